// Package aggregator scrapes streaming portals that list several hoster embeds per title.
// Many differently-skinned portals share the same markup conventions, so one Extractor
// is instantiated per configured Site.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"github.com/streamscout/streamscout/constant"
	"github.com/streamscout/streamscout/hoster"
	"github.com/streamscout/streamscout/log"
	"github.com/streamscout/streamscout/network"
	"github.com/streamscout/streamscout/scan"
	"github.com/streamscout/streamscout/source"
)

var (
	errNoLookup = errors.New("no lookup page with player markup")
	errNoEmbed  = errors.New("no embed resolved")
)

// Default lookup templates, tried in order when a Site does not configure its own.
var (
	DefaultMoviePaths = []string{
		"{base}/film/{id}",
		"{base}/movie/{id}",
		"{base}/films/{id}",
	}
	DefaultEpisodePaths = []string{
		"{base}/serie/{id}/saison-{season}/episode-{episode}",
		"{base}/tv/{id}/{season}/{episode}",
		"{base}/episode/{id}-{season}x{episode}",
	}
)

// sniffMarkers identify a page that actually carries a player.
var sniffMarkers = []string{"<iframe", "data-src", "data-url", "player"}

var embedAttrs = []string{"data-src", "data-url", "data-embed"}

// Site configures one aggregator portal.
type Site struct {
	Name         string   `mapstructure:"name" json:"name"`
	BaseURL      string   `mapstructure:"base_url" json:"base_url"`
	Category     string   `mapstructure:"category" json:"category"`
	Priority     int      `mapstructure:"priority" json:"priority"`
	MoviePaths   []string `mapstructure:"movie_paths" json:"movie_paths,omitempty"`
	EpisodePaths []string `mapstructure:"episode_paths" json:"episode_paths,omitempty"`
	// Language replaces the Multi fallback when the page text carries no locale keyword.
	Language string `mapstructure:"language" json:"language,omitempty"`
}

// EmbedInfo is a candidate embed found on a lookup page.
type EmbedInfo struct {
	URL      string
	Hoster   string
	Language source.Language
	Offset   int
}

// Resolver resolves embed URLs to direct streams.
type Resolver interface {
	Resolve(ctx context.Context, embedURL string) (*hoster.Resolved, error)
}

// Options tune embed discovery and resolution.
type Options struct {
	MaxParallelEmbeds int
	Lookback          int
}

// Extractor implements source.Extractor for one Site.
type Extractor struct {
	site     Site
	fetcher  network.Fetcher
	resolver Resolver
	options  Options
}

// New creates an Extractor for site.
func New(site Site, fetcher network.Fetcher, resolver Resolver, options Options) *Extractor {
	site.BaseURL = strings.TrimRight(site.BaseURL, "/")
	if site.Category == "" {
		site.Category = "aggregator"
	}
	if options.MaxParallelEmbeds <= 0 {
		options.MaxParallelEmbeds = 4
	}
	if options.Lookback <= 0 {
		options.Lookback = 500
	}

	return &Extractor{
		site:     site,
		fetcher:  fetcher,
		resolver: resolver,
		options:  options,
	}
}

func (e *Extractor) Name() string {
	return e.site.Name
}

func (e *Extractor) NeedsBrowser() bool {
	return false
}

func (e *Extractor) Priority() int {
	return e.site.Priority
}

// Site returns the extractor's configuration.
func (e *Extractor) Site() Site {
	return e.site
}

// Extract finds the title's page, collects its embeds and resolves them concurrently.
func (e *Extractor) Extract(ctx context.Context, ref source.MediaReference) *source.ExtractionResult {
	logger := log.WithFields(logrus.Fields{"provider": e.site.Name, "ref": ref.String()})

	page, err := e.lookup(ctx, ref)
	if err != nil {
		logger.WithError(err).Debug("lookup failed")
		return source.Failed(e.site.Name, err)
	}

	embeds := e.Embeds(page.Body, page.URL)
	logger.WithField("embeds", len(embeds)).Debug("embeds found")
	if len(embeds) == 0 {
		return source.Failed(e.site.Name, errNoEmbed)
	}

	streams := e.resolveAll(ctx, embeds)
	if len(streams) == 0 {
		return source.Failed(e.site.Name, fmt.Errorf("%w: tried %d embeds", errNoEmbed, len(embeds)))
	}

	return &source.ExtractionResult{Provider: e.site.Name, Streams: streams}
}

// LookupURLs expands the site's templates for ref, in order.
func (e *Extractor) LookupURLs(ref source.MediaReference) []string {
	templates := e.site.MoviePaths
	if ref.Type == source.Series {
		templates = e.site.EpisodePaths
	}

	if len(templates) == 0 {
		templates = lo.Ternary(ref.Type == source.Series, DefaultEpisodePaths, DefaultMoviePaths)
	}

	replacer := strings.NewReplacer(
		"{base}", e.site.BaseURL,
		"{id}", strconv.Itoa(ref.ExternalID),
		"{season}", strconv.Itoa(ref.Season.OrElse(0)),
		"{episode}", strconv.Itoa(ref.Episode.OrElse(0)),
	)

	return lo.Uniq(lo.Map(templates, func(t string, _ int) string {
		return replacer.Replace(t)
	}))
}

// lookup fetches candidate pages until one carries player markup.
func (e *Extractor) lookup(ctx context.Context, ref source.MediaReference) (*network.Page, error) {
	headers := map[string]string{
		"Accept-Language": constant.AcceptLanguageFR,
		"Referer":         e.site.BaseURL + "/",
	}

	var lastErr error
	for _, u := range e.LookupURLs(ref) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		page, err := e.fetcher.Get(ctx, u, headers)
		if err != nil {
			log.WithField("url", u).WithError(err).Debug("lookup fetch failed")
			lastErr = err
			continue
		}

		if page.OK() && Sniff(page.Body) {
			return page, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", errNoLookup, lastErr)
	}

	return nil, errNoLookup
}

// Sniff reports whether body looks like a page with an embedded player rather than a listing or error page.
func Sniff(body string) bool {
	lower := strings.ToLower(body)
	return lo.SomeBy(sniffMarkers, func(m string) bool {
		return strings.Contains(lower, m)
	})
}

// Embeds collects iframe and lazy-load embeds from a lookup page, deduplicated by URL.
func (e *Extractor) Embeds(body, pageURL string) []EmbedInfo {
	matches := append(scan.IframeMatches(body, pageURL), scan.AttrMatches(body, pageURL, embedAttrs...)...)
	slices.SortStableFunc(matches, func(a, b scan.Match) int { return a.Offset - b.Offset })
	matches = lo.UniqBy(matches, func(m scan.Match) string { return m.URL })

	return lo.Map(matches, func(m scan.Match, _ int) EmbedInfo {
		language := DetectLanguage(body[max(0, m.Offset-e.options.Lookback):m.Offset])
		if language == source.Multi && e.site.Language != "" {
			language = source.Language(e.site.Language)
		}

		return EmbedInfo{
			URL:      m.URL,
			Hoster:   hoster.Family(m.URL),
			Language: language,
			Offset:   m.Offset,
		}
	})
}

// resolveAll resolves embeds on a bounded pool. A failing or panicking embed only loses its own stream.
func (e *Extractor) resolveAll(ctx context.Context, embeds []EmbedInfo) []source.ExtractedStream {
	results := make([]*source.ExtractedStream, len(embeds))

	p := pool.New().WithMaxGoroutines(e.options.MaxParallelEmbeds)
	for i, embed := range embeds {
		p.Go(func() {
			var (
				resolved *hoster.Resolved
				err      error
				catcher  panics.Catcher
			)

			catcher.Try(func() {
				resolved, err = e.resolver.Resolve(ctx, embed.URL)
			})
			if r := catcher.Recovered(); r != nil {
				err = r.AsError()
			} else if err == nil && resolved == nil {
				err = hoster.ErrNoStream
			}

			logger := log.WithFields(logrus.Fields{"provider": e.site.Name, "embed": embed.URL, "hoster": embed.Hoster})
			if err != nil {
				logger.WithError(err).Debug("embed failed")
				return
			}

			stream := resolved.Stream(e.site.Name, e.site.Category, embed.Language)
			if !stream.Valid() {
				logger.Debug("embed resolved to an invalid url")
				return
			}

			results[i] = &stream
		})
	}
	p.Wait()

	return lo.FilterMap(results, func(s *source.ExtractedStream, _ int) (source.ExtractedStream, bool) {
		if s == nil {
			return source.ExtractedStream{}, false
		}
		return *s, true
	})
}
