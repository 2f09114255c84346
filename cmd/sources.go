package cmd

import (
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamscout/streamscout/color"
	"github.com/streamscout/streamscout/provider"
	"github.com/streamscout/streamscout/style"
	"github.com/streamscout/streamscout/util"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

// sourcesCmd provides a parent command for inspecting configured providers.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the configured extraction providers",
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)

	sourcesListCmd.Flags().BoolP("raw", "r", false, "Suppress header and metadata descriptions in the output")
	sourcesListCmd.Flags().StringP("filter", "f", "", "Keep only providers whose name fuzzy-matches the query")
	sourcesListCmd.Flags().StringP("kind", "k", "", "Keep only providers of a kind: aggregator, embed or headless")

	lo.Must0(sourcesListCmd.RegisterFlagCompletionFunc("kind", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(provider.Aggregator), string(provider.Embed), string(provider.Headless)}, cobra.ShellCompDirectiveNoFileComp
	}))

	sourcesListCmd.SetOut(os.Stdout)
}

// sourcesListCmd displays every configured provider grouped by kind.
var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Display a collection of all configured providers",
	Run: func(cmd *cobra.Command, args []string) {
		providers, err := provider.All()
		handleErr(err)

		providers = provider.Filter(providers, lo.Must(cmd.Flags().GetString("filter")))
		if kind := lo.Must(cmd.Flags().GetString("kind")); kind != "" {
			providers = lo.Filter(providers, func(p *provider.Provider, _ int) bool {
				return string(p.Kind) == kind
			})
		}

		raw := lo.Must(cmd.Flags().GetBool("raw"))
		if raw {
			for _, p := range providers {
				cmd.Println(p.Name)
			}
			return
		}

		headerStyle := style.New().Foreground(color.HiBlue).Bold(true).Render
		groups := lo.GroupBy(providers, func(p *provider.Provider) provider.Kind { return p.Kind })

		first := true
		for _, kind := range []provider.Kind{provider.Aggregator, provider.Embed, provider.Headless} {
			group, ok := groups[kind]
			if !ok {
				continue
			}

			if !first {
				cmd.Println()
			}
			first = false

			cmd.Println(headerStyle(util.Capitalize(string(kind)) + ":"))
			for _, p := range group {
				cmd.Printf("%s %s\n", p.Name, style.Faint("priority "+strconv.Itoa(p.Priority)))
			}
		}

		if first {
			cmd.Println(style.Faint("no providers match"))
		}
	},
}
