// Package headless captures stream URLs from the network traffic of pages whose
// player is built entirely at runtime, where static scanning finds nothing.
package headless

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/streamscout/streamscout/browser"
	"github.com/streamscout/streamscout/constant"
	"github.com/streamscout/streamscout/hoster"
	"github.com/streamscout/streamscout/log"
	"github.com/streamscout/streamscout/provider/embed"
	"github.com/streamscout/streamscout/source"
)

// DefaultBudget bounds the capture phase.
const DefaultBudget = 12 * time.Second

// ErrBrowserUnavailable is reported when no browser was injected or a context could not be opened.
var ErrBrowserUnavailable = errors.New("headless browser unavailable")

var errNothingCaptured = errors.New("no stream captured")

// Target configures one headless site. It shares the direct-embed template format.
type Target = embed.Embed

// Options tune capture.
type Options struct {
	Budget    time.Duration
	UserAgent string
	// OnPhase observes every phase transition.
	OnPhase func(Phase)
}

// Extractor implements source.Extractor by driving a browser context per request.
type Extractor struct {
	target  Target
	browser browser.Browser
	options Options
}

// New creates an Extractor for target. A nil browser makes every extraction fail with ErrBrowserUnavailable.
func New(target Target, b browser.Browser, options Options) *Extractor {
	if target.Category == "" {
		target.Category = "headless"
	}
	if options.Budget <= 0 {
		options.Budget = DefaultBudget
	}
	if options.UserAgent == "" {
		options.UserAgent = constant.UserAgent
	}

	return &Extractor{target: target, browser: b, options: options}
}

func (e *Extractor) Name() string {
	return e.target.Name
}

func (e *Extractor) NeedsBrowser() bool {
	return true
}

func (e *Extractor) Priority() int {
	return e.target.Priority
}

// Target returns the extractor's configuration.
func (e *Extractor) Target() Target {
	return e.target
}

// Extract navigates to the target page and converts captured responses into streams.
func (e *Extractor) Extract(ctx context.Context, ref source.MediaReference) *source.ExtractionResult {
	pageURL, ok := e.target.URL(ref)
	if !ok {
		return source.Failed(e.target.Name, fmt.Errorf("%w: %s", embed.ErrUnsupportedMediaType, ref.Type))
	}

	if e.browser == nil {
		return source.Failed(e.target.Name, ErrBrowserUnavailable)
	}

	hits, err := e.capture(ctx, pageURL)
	if err != nil {
		return source.Failed(e.target.Name, err)
	}
	if len(hits) == 0 {
		return source.Failed(e.target.Name, errNothingCaptured)
	}

	pageOrigin, _ := hoster.Origin(pageURL)
	language := lo.Ternary(e.target.Language != "", source.Language(e.target.Language), source.Multi)

	streams := lo.Map(hits, func(h browser.Response, _ int) source.ExtractedStream {
		referer := h.Referer
		origin, err := hoster.Origin(referer)
		if err != nil {
			referer, origin = pageOrigin+"/", pageOrigin
		}

		return source.ExtractedStream{
			Provider: e.target.Name,
			URL:      h.URL,
			Quality:  source.QualityFromURL(h.URL),
			Type:     source.StreamTypeFromURL(h.URL),
			Language: language,
			Category: e.target.Category,
			Headers: map[string]string{
				"Referer": referer,
				"Origin":  origin,
			},
		}
	})

	return &source.ExtractionResult{Provider: e.target.Name, Streams: streams}
}

// capture runs one Idle → Navigating → Capturing → Closing → Done cycle.
func (e *Extractor) capture(ctx context.Context, pageURL string) ([]browser.Response, error) {
	run := &run{
		logger:  log.WithFields(logrus.Fields{"provider": e.target.Name, "url": pageURL}),
		onPhase: e.options.OnPhase,
	}
	defer run.enter(Done)

	budget, cancel := context.WithTimeout(ctx, e.options.Budget)
	defer cancel()

	bctx, err := e.browser.NewContext(budget, browser.ContextOptions{
		UserAgent:         e.options.UserAgent,
		IgnoreHTTPSErrors: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrowserUnavailable, err)
	}

	defer func() {
		run.enter(Closing)
		if err := bctx.Close(); err != nil {
			run.logger.WithError(err).Warn("closing browser context")
		}
	}()

	var (
		mu     sync.Mutex
		seen   = map[string]struct{}{}
		hits   []browser.Response
		master = make(chan struct{})
		once   sync.Once
	)

	bctx.OnResponse(func(r browser.Response) {
		if !IsStream(r.URL) {
			return
		}

		mu.Lock()
		if _, ok := seen[r.URL]; ok {
			mu.Unlock()
			return
		}
		seen[r.URL] = struct{}{}
		hits = append(hits, r)
		mu.Unlock()

		run.logger.WithField("stream", r.URL).Debug("captured")

		if IsMaster(r.URL) {
			once.Do(func() { close(master) })
		}
	})

	run.enter(Navigating)
	if err := bctx.Navigate(budget, pageURL); err != nil {
		run.logger.WithError(err).Warn("navigation failed, still capturing")
	}

	run.enter(Capturing)
	select {
	case <-master:
		run.logger.Debug("master playlist captured")
	case <-budget.Done():
		run.logger.Debug("capture budget elapsed")
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]browser.Response(nil), hits...), nil
}

// IsStream reports whether u looks like a playable manifest or file rather than segment or page noise.
func IsStream(u string) bool {
	lower := strings.ToLower(u)
	if !strings.Contains(lower, ".m3u8") && !strings.Contains(lower, ".mp4") && !strings.Contains(lower, ".mpd") {
		return false
	}

	p := lower
	if parsed, err := url.Parse(lower); err == nil {
		p = parsed.Path
	}

	switch {
	case strings.Contains(p, "favicon"),
		strings.HasSuffix(p, ".ts"),
		strings.HasSuffix(p, ".m4s"),
		strings.Contains(p, "segment"),
		strings.Contains(p, "/seg-"),
		strings.HasSuffix(p, "init.mp4"):
		return false
	}

	return true
}

// IsMaster reports a master*.m3u8 playlist.
func IsMaster(u string) bool {
	p := strings.ToLower(u)
	if parsed, err := url.Parse(p); err == nil {
		p = parsed.Path
	}

	base := path.Base(p)
	return strings.HasPrefix(base, "master") && strings.HasSuffix(base, ".m3u8")
}
