// Package embed extracts streams from sites that expose one predictable embed URL per title.
package embed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/streamscout/streamscout/atob"
	"github.com/streamscout/streamscout/hoster"
	"github.com/streamscout/streamscout/log"
	"github.com/streamscout/streamscout/network"
	"github.com/streamscout/streamscout/scan"
	"github.com/streamscout/streamscout/source"
	"github.com/streamscout/streamscout/unpack"
)

var (
	// ErrUnsupportedMediaType is reported when the site has no template for the reference's media type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	errNoStream = errors.New("no stream in embed")
)

// Embed configures one direct-embed site. Templates use {id}, {season} and {episode}.
type Embed struct {
	Name       string `mapstructure:"name" json:"name"`
	MovieURL   string `mapstructure:"movie_url" json:"movie_url,omitempty"`
	EpisodeURL string `mapstructure:"episode_url" json:"episode_url,omitempty"`
	Category   string `mapstructure:"category" json:"category"`
	Priority   int    `mapstructure:"priority" json:"priority"`
	Language   string `mapstructure:"language" json:"language,omitempty"`
}

// URL expands the template matching ref, if the site has one.
func (e Embed) URL(ref source.MediaReference) (string, bool) {
	template := lo.Ternary(ref.Type == source.Series, e.EpisodeURL, e.MovieURL)
	if template == "" {
		return "", false
	}

	return strings.NewReplacer(
		"{id}", strconv.Itoa(ref.ExternalID),
		"{season}", strconv.Itoa(ref.Season.OrElse(0)),
		"{episode}", strconv.Itoa(ref.Episode.OrElse(0)),
	).Replace(template), true
}

// Extractor implements source.Extractor for one Embed.
type Extractor struct {
	embed   Embed
	fetcher network.Fetcher
}

// New creates an Extractor for embed.
func New(embed Embed, fetcher network.Fetcher) *Extractor {
	if embed.Category == "" {
		embed.Category = "embed"
	}
	return &Extractor{embed: embed, fetcher: fetcher}
}

func (e *Extractor) Name() string {
	return e.embed.Name
}

func (e *Extractor) NeedsBrowser() bool {
	return false
}

func (e *Extractor) Priority() int {
	return e.embed.Priority
}

// Embed returns the extractor's configuration.
func (e *Extractor) Embed() Embed {
	return e.embed
}

// Extract fetches the embed, scans it and, when it holds nothing, follows its first iframe once.
func (e *Extractor) Extract(ctx context.Context, ref source.MediaReference) *source.ExtractionResult {
	embedURL, ok := e.embed.URL(ref)
	if !ok {
		return source.Failed(e.embed.Name, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, ref.Type))
	}

	logger := log.WithFields(logrus.Fields{"provider": e.embed.Name, "embed": embedURL})

	origin, err := hoster.Origin(embedURL)
	if err != nil {
		return source.Failed(e.embed.Name, err)
	}

	page, err := e.fetcher.Get(ctx, embedURL, map[string]string{"Referer": origin + "/"})
	if err != nil {
		return source.Failed(e.embed.Name, err)
	}
	if !page.OK() {
		return source.Failed(e.embed.Name, fmt.Errorf("embed returned status %d", page.Status))
	}

	served := page
	urls := Scan(page.Body)

	if len(urls) == 0 {
		if iframe, ok := firstIframe(page.Body, page.URL); ok {
			logger.WithField("iframe", iframe).Debug("following iframe")

			sub, err := e.fetcher.Get(ctx, iframe, map[string]string{"Referer": page.URL})
			switch {
			case err != nil:
				return source.Failed(e.embed.Name, fmt.Errorf("follow iframe: %w", err))
			case sub.OK():
				served = sub
				urls = Scan(sub.Body)
			}
		}
	}

	if len(urls) == 0 {
		return source.Failed(e.embed.Name, errNoStream)
	}

	servedOrigin, err := hoster.Origin(served.URL)
	if err != nil {
		servedOrigin = origin
	}

	language := lo.Ternary(e.embed.Language != "", source.Language(e.embed.Language), source.Multi)

	streams := lo.Map(urls, func(u string, _ int) source.ExtractedStream {
		return source.ExtractedStream{
			Provider: e.embed.Name,
			URL:      u,
			Quality:  source.QualityFromURL(u),
			Type:     source.StreamTypeFromURL(u),
			Language: language,
			Category: e.embed.Category,
			Headers: map[string]string{
				"Referer": servedOrigin + "/",
				"Origin":  servedOrigin,
			},
		}
	})

	return &source.ExtractionResult{Provider: e.embed.Name, Streams: streams}
}

// Scan runs every static technique over a page: packed scripts first, then keyed,
// sources and literal scans of the page itself, then atob payloads.
func Scan(body string) []string {
	texts := append(unpack.UnpackAll(body), body)

	var found []string
	for _, text := range texts {
		found = append(found, scan.KeyedURL(text)...)
		found = append(found, scan.SourcesArray(text)...)
		found = append(found, scan.LiteralMediaURLs(text)...)
	}

	for _, arg := range scan.AtobArgs(body) {
		if decoded, ok := atob.DecodeString(arg); ok {
			if decoded = strings.TrimSpace(decoded); scan.IsMediaURL(decoded) {
				found = append(found, decoded)
			}
		}
	}

	return lo.Uniq(found)
}

// firstIframe returns the first iframe src. The DOM is parsed when possible; the raw scanner covers markup goquery drops.
func firstIframe(body, base string) (string, bool) {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		if src, ok := doc.Find("iframe[src]").First().Attr("src"); ok {
			if u := scan.Resolve(base, src); scan.IsHTTP(u) {
				return u, true
			}
		}
	}

	srcs := scan.IframeSrcs(body, base)
	if len(srcs) == 0 {
		return "", false
	}
	return srcs[0], true
}
