// Package hoster turns a third-party embed URL into a direct stream URL.
//
// Every family tries, in order: the packer decoder followed by keyed and literal
// scanning, raw keyed/literal/sources scanning of the page, and finally the family's
// own protocol when it has one.
package hoster

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/streamscout/streamscout/log"
	"github.com/streamscout/streamscout/network"
	"github.com/streamscout/streamscout/scan"
	"github.com/streamscout/streamscout/source"
	"github.com/streamscout/streamscout/unpack"
)

// ErrNoStream is returned when an embed page was fetched but no stream could be recovered from it.
var ErrNoStream = errors.New("no stream found")

// Resolved is a stream recovered from an embed.
type Resolved struct {
	EmbedURL string
	Family   string
	URL      string
	Type     source.StreamType
	Quality  string
	Headers  map[string]string
}

// Stream converts the resolution into the shared output type.
func (r *Resolved) Stream(provider, category string, language source.Language) source.ExtractedStream {
	return source.ExtractedStream{
		Provider: provider,
		URL:      r.URL,
		Quality:  r.Quality,
		Type:     r.Type,
		Language: language,
		Category: category,
		Headers:  r.Headers,
	}
}

// Resolver dispatches embed URLs to their family strategy.
type Resolver struct {
	fetcher network.Fetcher
	now     func() time.Time
	suffix  func(n int) string
}

// New creates a Resolver fetching through fetcher.
func New(fetcher network.Fetcher) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		now:     time.Now,
		suffix:  randomAlphanumeric,
	}
}

// embedPage is a fetched embed with everything strategies need.
type embedPage struct {
	embedURL string
	origin   string
	body     string
	unpacked []string
}

// Resolve fetches embedURL and recovers its stream.
func (r *Resolver) Resolve(ctx context.Context, embedURL string) (*Resolved, error) {
	f := lookup(embedURL)
	logger := log.WithFields(logrus.Fields{"family": f.name, "embed": embedURL})

	origin, err := Origin(embedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoStream, err)
	}

	page, err := r.fetcher.Get(ctx, embedURL, map[string]string{"Referer": origin + "/"})
	if err != nil {
		return nil, fmt.Errorf("fetch embed: %w", err)
	}
	if !page.OK() {
		return nil, fmt.Errorf("%w: embed returned status %d", ErrNoStream, page.Status)
	}

	if final, err := Origin(page.URL); err == nil {
		origin = final
	}

	p := &embedPage{
		embedURL: embedURL,
		origin:   origin,
		body:     page.Body,
		unpacked: unpack.UnpackAll(page.Body),
	}

	keys := append([]string{"file", "src"}, f.keys...)

	for _, script := range p.unpacked {
		if u, ok := scanText(script, keys); ok {
			logger.Debug("resolved from packed script")
			return r.resolved(f, p, u), nil
		}
	}

	if u, ok := scanText(p.body, keys); ok {
		logger.Debug("resolved from page scan")
		return r.resolved(f, p, u), nil
	}

	if f.protocol != nil {
		u, err := f.protocol(ctx, r, p)
		if err != nil {
			logger.WithError(err).Debug("protocol failed")
			return nil, err
		}
		logger.Debug("resolved by protocol")
		return r.resolved(f, p, u), nil
	}

	return nil, ErrNoStream
}

func (r *Resolver) resolved(f family, p *embedPage, streamURL string) *Resolved {
	typ := source.StreamTypeFromURL(streamURL)
	if f.fallback != "" && !scan.IsMediaURL(streamURL) {
		typ = f.fallback
	}

	return &Resolved{
		EmbedURL: p.embedURL,
		Family:   f.name,
		URL:      streamURL,
		Type:     typ,
		Quality:  source.QualityFromURL(streamURL),
		Headers: map[string]string{
			"Referer": p.origin + "/",
			"Origin":  p.origin,
		},
	}
}

// scanText runs keyed, sources and literal scans, preferring a master playlist.
func scanText(text string, keys []string) (string, bool) {
	var found []string
	found = append(found, scan.KeyedURL(text, keys...)...)
	found = append(found, scan.SourcesArray(text)...)
	found = append(found, scan.LiteralMediaURLs(text)...)

	return scan.Master(lo.Uniq(found))
}

// Origin returns scheme://host of rawURL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

const alphanumerics = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomAlphanumeric(n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alphanumerics[rand.IntN(len(alphanumerics))])
	}
	return b.String()
}
