package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/color"
	"github.com/streamscout/streamscout/engine"
	"github.com/streamscout/streamscout/filesystem"
	"github.com/streamscout/streamscout/inline"
	"github.com/streamscout/streamscout/internal/cache"
	"github.com/streamscout/streamscout/key"
	"github.com/streamscout/streamscout/provider"
	"github.com/streamscout/streamscout/source"
	"github.com/streamscout/streamscout/style"
	"github.com/streamscout/streamscout/util"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().IntP("id", "i", 0, "External catalog identifier of the title")
	resolveCmd.Flags().IntP("season", "s", 0, "Season number, for series")
	resolveCmd.Flags().IntP("episode", "e", 0, "Episode number, for series")
	resolveCmd.Flags().BoolP("json", "j", false, "Format the command output as a JSON object")
	resolveCmd.Flags().StringP("type", "t", "", "Keep only streams of this type: hls, mp4 or dash")
	resolveCmd.Flags().StringP("language", "l", "", "Keep only streams with this language hint: VF, VOSTFR or Multi")
	resolveCmd.Flags().StringSliceP("source", "S", []string{}, "Run only the named providers")
	resolveCmd.Flags().Bool("no-cache", false, "Ignore and do not update the result cache")
	resolveCmd.Flags().StringP("output", "o", "", "Specify a file path to write the command output")

	lo.Must0(resolveCmd.MarkFlagRequired("id"))
	resolveCmd.MarkFlagsRequiredTogether("season", "episode")

	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(source.HLS), string(source.MP4), string(source.DASH)}, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("language", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(source.VF), string(source.VOSTFR), string(source.Multi)}, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("source", completionProviders))
}

func completionProviders(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	providers, err := provider.All()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return lo.Map(providers, func(p *provider.Provider, _ int) string { return p.Name }), cobra.ShellCompDirectiveNoFileComp
}

func errUnknownProvider(name string) error {
	msg := fmt.Sprintf("unknown source %s", style.Fg(color.Red)(name))
	if closest, ok := provider.Suggest(name); ok {
		msg += fmt.Sprintf(", did you mean %s?", style.Fg(color.Yellow)(closest))
	}

	return errors.New(msg)
}

// resolveCmd runs every configured extractor for one title and prints the ranked streams.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a movie or an episode into ranked, directly playable streams",
	Long: `Run every configured extractor concurrently and print the deduplicated, ranked streams.

A movie is selected with --id alone; an episode also needs --season and --episode.
Plain output prints one URL per line, best first. Use --json for headers and diagnostics.`,
	Example: "  streamscout resolve --id 603\n  streamscout resolve --id 1399 -s 1 -e 2 --json --language VF",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			id      = lo.Must(cmd.Flags().GetInt("id"))
			season  = lo.Must(cmd.Flags().GetInt("season"))
			episode = lo.Must(cmd.Flags().GetInt("episode"))
			names   = lo.Must(cmd.Flags().GetStringSlice("source"))
		)

		ref := lo.Ternary(cmd.Flags().Changed("season"), source.NewEpisode(id, season, episode), source.NewMovie(id))
		handleErr(ref.Validate())

		for _, name := range names {
			if _, ok := provider.Get(name); !ok {
				handleErr(errUnknownProvider(name))
			}
		}

		deps := provider.DepsFromConfig()
		defer util.Ignore(deps.Close)

		extractors, err := provider.Extractors(deps)
		handleErr(err)

		if len(names) > 0 {
			extractors = lo.Filter(extractors, func(e source.Extractor, _ int) bool {
				return lo.Contains(names, e.Name())
			})
		}

		options := &inline.Options{
			Resolver:  engine.New(engine.OptionsFromConfig(), extractors...),
			Reference: ref,
			Json:      lo.Must(cmd.Flags().GetBool("json")),
			Cache:     mo.None[inline.Cache](),
		}

		// A partial run would poison the cache for the full provider set.
		if viper.GetBool(key.CacheEnable) && !lo.Must(cmd.Flags().GetBool("no-cache")) && len(names) == 0 {
			options.Cache = mo.Some[inline.Cache](cache.FromConfig())
		}

		if t := lo.Must(cmd.Flags().GetString("type")); t != "" {
			filter, err := inline.ParseTypeFilter(t)
			handleErr(err)
			options.TypeFilter = mo.Some(filter)
		}

		if l := lo.Must(cmd.Flags().GetString("language")); l != "" {
			filter, err := inline.ParseLanguageFilter(l)
			handleErr(err)
			options.LanguageFilter = mo.Some(filter)
		}

		var writer io.Writer = os.Stdout
		if output := lo.Must(cmd.Flags().GetString("output")); output != "" {
			f, err := filesystem.API().Create(output)
			handleErr(err)
			defer util.Ignore(f.Close)
			writer = f
		}
		options.Out = writer

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		handleErr(inline.Run(ctx, options))
	},
}

func init() {
	resolveCmd.AddCommand(resolveSchemaCmd)
}

// resolveSchemaCmd generates the JSON schema of resolve --json output.
var resolveSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate the JSON schema of the structured resolve output",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "output", "extractedstream", "extractionresult", "mediareference":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(reflector.Reflect(&inline.Output{})))
	},
}
