package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/streamscout/streamscout/icon"
	"github.com/streamscout/streamscout/internal/cache"
	"github.com/streamscout/streamscout/util"
	"github.com/streamscout/streamscout/where"
)

// clearTarget defines a resource eligible for cleanup.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	clear    func() error
}

var clearTargets = []clearTarget{
	{"result cache", "cache", mo.Some("c"), func() error { return cache.FromConfig().Clear() }},
	{"log files", "logs", mo.Some("l"), func() error { return util.Delete(where.Logs()) }},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

// clearCmd removes cached and temporary application artifacts.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached stream lists and log files",
	Run: func(cmd *cobra.Command, args []string) {
		cleared := lo.Filter(clearTargets, func(target clearTarget, _ int) bool {
			return lo.Must(cmd.Flags().GetBool(target.argLong))
		})

		if len(cleared) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, target := range cleared {
			e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := target.clear()
			e()
			handleErr(err)
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		fmt.Println(util.Quantify(len(cleared), "target", "targets") + " cleared")
	},
}
