// Package cmd implements the command-line interface for streamscout.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/color"
	"github.com/streamscout/streamscout/constant"
	"github.com/streamscout/streamscout/icon"
	"github.com/streamscout/streamscout/key"
	"github.com/streamscout/streamscout/log"
	"github.com/streamscout/streamscout/style"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., plain, emoji, nerd)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.CliIcons, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().Bool("headless", false, "Enable headless browser capture for this run")
	lo.Must0(viper.BindPFlag(key.HeadlessEnable, rootCmd.PersistentFlags().Lookup("headless")))
}

// rootCmd defines the entry point for the streamscout application.
var rootCmd = &cobra.Command{
	Use:   constant.Streamscout,
	Short: "Resolve catalog references into directly playable stream URLs",
	Long: constant.Banner + "\n\n" +
		style.New().Italic(true).Foreground(color.HiCyan).Render("    - Resolve catalog references into directly playable stream URLs"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
