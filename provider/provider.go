// Package provider builds the configured extractors from the sites.* settings.
package provider

import (
	"errors"
	"fmt"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/browser"
	"github.com/streamscout/streamscout/hoster"
	"github.com/streamscout/streamscout/key"
	"github.com/streamscout/streamscout/log"
	"github.com/streamscout/streamscout/network"
	"github.com/streamscout/streamscout/provider/aggregator"
	"github.com/streamscout/streamscout/provider/embed"
	"github.com/streamscout/streamscout/provider/headless"
	"github.com/streamscout/streamscout/source"
)

var ErrDuplicateName = errors.New("duplicate provider name")

// Kind is the extraction strategy of a provider.
type Kind string

const (
	Aggregator Kind = "aggregator"
	Embed      Kind = "embed"
	Headless   Kind = "headless"
)

// Provider represents a configured extraction target.
type Provider struct {
	Name         string
	Kind         Kind
	Priority     int
	UsesHeadless bool // Indicates whether the provider requires the shared headless browser.

	CreateExtractor func(deps *Deps) source.Extractor
}

func (p *Provider) String() string {
	return p.Name
}

// Deps are the resources shared by every extractor of one run.
type Deps struct {
	Fetcher  network.Fetcher
	Resolver aggregator.Resolver
	// Browser is nil when headless capture is disabled or could not start.
	Browser browser.Browser

	Aggregator aggregator.Options
	Headless   headless.Options
}

// DepsFromConfig creates the shared client, hoster resolver and, when enabled, the browser.
// A browser that fails to start is logged and left nil.
func DepsFromConfig() *Deps {
	client := network.FromConfig()

	deps := &Deps{
		Fetcher:  client,
		Resolver: hoster.New(client),
		Aggregator: aggregator.Options{
			MaxParallelEmbeds: viper.GetInt(key.AggregatorMaxParallelEmbeds),
			Lookback:          viper.GetInt(key.AggregatorLookback),
		},
		Headless: headless.Options{
			Budget:    viper.GetDuration(key.HeadlessBudget),
			UserAgent: client.UserAgent(),
		},
	}

	if viper.GetBool(key.HeadlessEnable) {
		b, err := browser.FromConfig()
		if err != nil {
			log.Warn(err)
		} else {
			deps.Browser = b
		}
	}

	return deps
}

// Close releases the browser, if any.
func (d *Deps) Close() error {
	if d.Browser == nil {
		return nil
	}
	return d.Browser.Close()
}

// All returns every configured provider: aggregators, then embeds, then headless targets.
// That order is the ranking tiebreak.
func All() ([]*Provider, error) {
	var (
		sites   []aggregator.Site
		embeds  []embed.Embed
		targets []headless.Target
	)

	if err := viper.UnmarshalKey(key.SitesAggregators, &sites); err != nil {
		return nil, fmt.Errorf("%s: %w", key.SitesAggregators, err)
	}
	if err := viper.UnmarshalKey(key.SitesEmbeds, &embeds); err != nil {
		return nil, fmt.Errorf("%s: %w", key.SitesEmbeds, err)
	}
	if err := viper.UnmarshalKey(key.SitesHeadless, &targets); err != nil {
		return nil, fmt.Errorf("%s: %w", key.SitesHeadless, err)
	}

	providers := make([]*Provider, 0, len(sites)+len(embeds)+len(targets))

	for _, site := range sites {
		providers = append(providers, &Provider{
			Name:     site.Name,
			Kind:     Aggregator,
			Priority: site.Priority,
			CreateExtractor: func(deps *Deps) source.Extractor {
				return aggregator.New(site, deps.Fetcher, deps.Resolver, deps.Aggregator)
			},
		})
	}

	for _, e := range embeds {
		providers = append(providers, &Provider{
			Name:     e.Name,
			Kind:     Embed,
			Priority: e.Priority,
			CreateExtractor: func(deps *Deps) source.Extractor {
				return embed.New(e, deps.Fetcher)
			},
		})
	}

	for _, target := range targets {
		providers = append(providers, &Provider{
			Name:         target.Name,
			Kind:         Headless,
			Priority:     target.Priority,
			UsesHeadless: true,
			CreateExtractor: func(deps *Deps) source.Extractor {
				return headless.New(target, deps.Browser, deps.Headless)
			},
		})
	}

	seen := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		if p.Name == "" {
			return nil, fmt.Errorf("%s provider without a name", p.Kind)
		}
		if _, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	return providers, nil
}

// Get finds a provider by name.
func Get(name string) (*Provider, bool) {
	providers, err := All()
	if err != nil {
		return nil, false
	}

	return lo.Find(providers, func(p *Provider) bool {
		return p.Name == name
	})
}

// Suggest returns the configured provider name closest to name.
func Suggest(name string) (string, bool) {
	providers, err := All()
	if err != nil || len(providers) == 0 {
		return "", false
	}

	closest := lo.MinBy(providers, func(a, b *Provider) bool {
		return levenshtein.Distance(name, a.Name) < levenshtein.Distance(name, b.Name)
	})

	return closest.Name, true
}

// Filter keeps the providers whose name fuzzy-matches query. An empty query keeps all.
func Filter(providers []*Provider, query string) []*Provider {
	if query == "" {
		return providers
	}

	return lo.Filter(providers, func(p *Provider, _ int) bool {
		return fuzzy.MatchFold(query, p.Name)
	})
}

// Extractors creates the extractors of every provider. Headless providers are omitted
// when deps carries no browser.
func Extractors(deps *Deps) ([]source.Extractor, error) {
	providers, err := All()
	if err != nil {
		return nil, err
	}

	var extractors []source.Extractor
	for _, p := range providers {
		if p.UsesHeadless && deps.Browser == nil {
			log.Debugf("skipping %s: no headless browser", p.Name)
			continue
		}
		extractors = append(extractors, p.CreateExtractor(deps))
	}

	return extractors, nil
}
