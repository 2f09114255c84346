package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/color"
	"github.com/streamscout/streamscout/constant"
	"github.com/streamscout/streamscout/key"
	"github.com/streamscout/streamscout/style"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored description of the field for `config info`.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Streamscout + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON includes the current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.TypeName(),
	})
}

// TypeName reports the kind of value the field accepts.
func (f *Field) TypeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []string:
		return "[]string"
	case []map[string]any:
		return "[]table"
	default:
		return "unknown"
	}
}

// Default holds every registered configuration field.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.NetworkTimeout, 15*time.Second, "Timeout applied to every single page or token fetch")
	register(key.NetworkRetries, 2, "Attempts for a fetch that failed at the transport level")
	register(key.NetworkTLSFingerprint, true, "Use a Chrome TLS fingerprint (uTLS) for https requests")
	register(key.NetworkUserAgent, constant.UserAgent, "User-Agent sent to hosting sites and headless contexts")

	register(key.EngineExtractorTimeout, 45*time.Second, "Upper bound for a single extractor run")
	register(key.EngineMaxParallel, 8, "Extractors allowed to run at the same time for one request")
	register(key.EnginePreferredLanguages, []string{"VF", "Multi", "VOSTFR"}, "Language tags ranked first in the final list, most preferred first")

	register(key.AggregatorMaxParallelEmbeds, 4, "Embeds of one aggregator page resolved concurrently.\nKeep it low to avoid hammering a single hoster")
	register(key.AggregatorLookback, 500, "Characters of page text scanned before an embed to guess its language")

	register(key.HeadlessEnable, false, "Enable headless browser capture.\nRequires a Chromium binary or a remote DevTools endpoint")
	register(key.HeadlessBudget, 12*time.Second, "Wall-clock budget of one capture session")
	register(key.HeadlessBin, "", "Path to the Chromium binary. Empty means auto-detect")
	register(key.HeadlessControlURL, "", "DevTools websocket of an already running browser.\nTakes precedence over launching one")
	register(key.HeadlessNoSandbox, false, "Launch Chromium with --no-sandbox (containers)")

	register(key.SitesAggregators, []map[string]any{}, "Aggregator portals: name, base_url, category, priority, movie_paths, episode_paths")
	register(key.SitesEmbeds, []map[string]any{
		{
			"name":        "vidsrc",
			"movie_url":   "https://vidsrc.xyz/embed/movie?tmdb={id}",
			"episode_url": "https://vidsrc.xyz/embed/tv?tmdb={id}&season={season}&episode={episode}",
			"category":    "embed",
			"priority":    10,
		},
	}, "Direct embed endpoints: name, movie_url, episode_url, category, priority, language")
	register(key.SitesHeadless, []map[string]any{
		{
			"name":        "vidlink",
			"movie_url":   "https://vidlink.pro/movie/{id}",
			"episode_url": "https://vidlink.pro/tv/{id}/{season}/{episode}",
			"category":    "headless",
			"priority":    0,
		},
	}, "Headless capture targets: name, movie_url, episode_url, category, priority")

	register(key.CacheEnable, true, "Cache ranked stream lists between CLI invocations")
	register(key.CacheTTL, 30*time.Minute, "Lifetime of a cached stream list.\nHoster links expire, keep it short")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliIcons, "plain", "Icons variant.\nAvailable options are: plain, emoji, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
