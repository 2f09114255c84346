package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/color"
	"github.com/streamscout/streamscout/config"
	"github.com/streamscout/streamscout/filesystem"
	"github.com/streamscout/streamscout/icon"
	"github.com/streamscout/streamscout/style"
)

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

// keyArg takes the key from the first argument or from --key.
func keyArg(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	if k := lo.Must(cmd.Flags().GetString("key")); k != "" {
		return k
	}

	handleErr(errors.New("key is required as an argument or --key flag"))
	return ""
}

func success(format string, a ...any) {
	fmt.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), fmt.Sprintf(format, a...))
}

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings, including the site lists",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().StringSliceP("key", "k", []string{}, "Keys to describe")
	configInfoCmd.Flags().BoolP("json", "j", false, "Print fields as JSON")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe settings with their current and default values",
	Run: func(cmd *cobra.Command, args []string) {
		fields, err := config.Fields(lo.Must(cmd.Flags().GetStringSlice("key"))...)
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(lo.ToSlicePtr(fields)))
			return
		}

		for i := range fields {
			if i > 0 {
				fmt.Print("\n\n")
			}
			fmt.Print(fields[i].Pretty())
		}
		fmt.Println()
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configGetCmd.Flags().StringP("key", "k", "", "Key to print")
	_ = configGetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configGetCmd = &cobra.Command{
	Use:               "get [key]",
	Short:             "Print the current value of a setting. Site lists are printed as JSON",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field, err := config.Lookup(keyArg(cmd, args))
		handleErr(err)

		value := viper.Get(field.Key)
		switch value.(type) {
		case string, int, bool, fmt.Stringer:
			fmt.Println(value)
		default:
			out, err := json.MarshalIndent(value, "", "  ")
			handleErr(err)
			fmt.Println(string(out))
		}
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configSetCmd.Flags().StringP("key", "k", "", "Key to update")
	configSetCmd.Flags().StringSliceP("value", "v", []string{}, "New value. Lists take several values")
	_ = configSetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configSetCmd = &cobra.Command{
	Use:               "set [key] [value...]",
	Short:             "Update a setting and save it",
	Example:           "  streamscout config set cache.ttl 10m\n  streamscout config set engine.preferred_languages VOSTFR VF",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		name := keyArg(cmd, args)

		raw := lo.Must(cmd.Flags().GetStringSlice("value"))
		if len(args) > 1 {
			raw = args[1:]
		}

		value, err := config.Set(name, raw)
		handleErr(err)

		success("set %s to %s", style.Fg(color.Purple)(name), style.Fg(color.Yellow)(fmt.Sprint(value)))
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
	configResetCmd.Flags().StringP("key", "k", "", "Key to restore")
	configResetCmd.Flags().BoolP("all", "a", false, "Restore every setting")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")
	configResetCmd.MarkFlagsOneRequired("key", "all")
	_ = configResetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore settings to their defaults and save them",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("all")) {
			handleErr(config.Reset())
			success("reset all config values")
			return
		}

		name := lo.Must(cmd.Flags().GetString("key"))
		handleErr(config.Reset(name))
		success("reset %s to %s", style.Fg(color.Purple)(name), style.Fg(color.Yellow)(fmt.Sprint(config.Default[name].Value)))
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolP("force", "f", false, "Replace an existing file")
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings, site lists included, to a new config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.Path()

		if lo.Must(cmd.Flags().GetBool("force")) {
			if err := filesystem.API().Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				handleErr(err)
			}
		}

		handleErr(viper.SafeWriteConfig())
		success("wrote config to %s", path)
	},
}
