// Package icon renders the status symbols printed by CLI commands.
package icon

import (
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/key"
)

const (
	plain = "plain"
	emoji = "emoji"
	nerd  = "nerd"
)

// AvailableVariants lists the accepted values of cli.icons.
func AvailableVariants() []string {
	return []string{plain, emoji, nerd}
}

// Icon identifies a symbol.
type Icon int

const (
	Success Icon = iota + 1
	Fail
	Progress
	Stream
	Cached
)

type def struct {
	plain, emoji, nerd string
}

var icons = map[Icon]def{
	Success:  {"[ok]", "✅", ""},
	Fail:     {"[!!]", "❌", ""},
	Progress: {"[..]", "⏳", ""},
	Stream:   {">", "🎬", ""},
	Cached:   {"[c]", "💾", ""},
}

// Get renders i in the configured variant. Unknown variants render nothing.
func Get(i Icon) string {
	d, ok := icons[i]
	if !ok {
		return ""
	}

	switch viper.GetString(key.CliIcons) {
	case plain:
		return d.plain
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	default:
		return ""
	}
}
