// Package engine runs every registered extractor for a reference and merges their streams into one ranked list.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/key"
	"github.com/streamscout/streamscout/log"
	"github.com/streamscout/streamscout/source"
)

// LanguageStep separates preferred-language tiers in the ranking weight. It exceeds any
// sane extractor priority so locale-matched streams always rank first.
const LanguageStep = 100

var errNoResult = errors.New("extractor returned no result")

// Options tune orchestration.
type Options struct {
	MaxParallel      int
	ExtractorTimeout time.Duration
	// PreferredLanguages ranks languages, most preferred first.
	PreferredLanguages []source.Language
}

// OptionsFromConfig reads the engine.* settings.
func OptionsFromConfig() Options {
	return Options{
		MaxParallel:      viper.GetInt(key.EngineMaxParallel),
		ExtractorTimeout: viper.GetDuration(key.EngineExtractorTimeout),
		PreferredLanguages: lo.Map(viper.GetStringSlice(key.EnginePreferredLanguages), func(l string, _ int) source.Language {
			return source.Language(l)
		}),
	}
}

// Report is the outcome of one ResolveAll call.
type Report struct {
	Reference source.MediaReference     `json:"reference"`
	Streams   []source.ExtractedStream  `json:"streams"`
	Results   []*source.ExtractionResult `json:"results"`
}

// Errors maps provider names to their error, for diagnostics.
func (r *Report) Errors() map[string]string {
	errs := make(map[string]string)
	for _, res := range r.Results {
		if res.Error != "" {
			errs[res.Provider] = res.Error
		}
	}
	return errs
}

// Engine owns an ordered set of extractors. Registration order is the tiebreak for ranking.
type Engine struct {
	extractors []source.Extractor
	options    Options
}

// New creates an Engine.
func New(options Options, extractors ...source.Extractor) *Engine {
	if options.MaxParallel <= 0 {
		options.MaxParallel = len(extractors)
	}
	if options.ExtractorTimeout <= 0 {
		options.ExtractorTimeout = 45 * time.Second
	}

	return &Engine{extractors: extractors, options: options}
}

// Extractors returns the registered extractors in order.
func (e *Engine) Extractors() []source.Extractor {
	return e.extractors
}

// ResolveAll runs the given extractors with default options and returns the ranked streams.
func ResolveAll(ctx context.Context, ref source.MediaReference, extractors ...source.Extractor) []source.ExtractedStream {
	return New(Options{}, extractors...).ResolveAll(ctx, ref).Streams
}

// ResolveAll runs every extractor concurrently. A failing, slow or panicking extractor
// only affects its own result; an empty stream list is a valid outcome.
func (e *Engine) ResolveAll(ctx context.Context, ref source.MediaReference) *Report {
	report := &Report{Reference: ref, Streams: []source.ExtractedStream{}}

	if err := ref.Validate(); err != nil {
		report.Results = []*source.ExtractionResult{source.Failed("engine", err)}
		return report
	}

	results := make([]*source.ExtractionResult, len(e.extractors))

	p := pool.New().WithMaxGoroutines(max(1, e.options.MaxParallel))
	for i, extractor := range e.extractors {
		p.Go(func() {
			results[i] = e.run(ctx, extractor, ref)
		})
	}
	p.Wait()

	report.Results = results
	report.Streams = e.merge(results)

	log.WithFields(logrus.Fields{
		"ref":     ref.String(),
		"streams": len(report.Streams),
		"errors":  len(report.Errors()),
	}).Info("resolved")

	return report
}

func (e *Engine) run(ctx context.Context, extractor source.Extractor, ref source.MediaReference) *source.ExtractionResult {
	ctx, cancel := context.WithTimeout(ctx, e.options.ExtractorTimeout)
	defer cancel()

	var (
		name    = extractor.Name()
		result  *source.ExtractionResult
		catcher panics.Catcher
		start   = time.Now()
	)

	catcher.Try(func() {
		result = extractor.Extract(ctx, ref)
	})

	logger := log.WithFields(logrus.Fields{"provider": name, "took": time.Since(start).Round(time.Millisecond)})

	if r := catcher.Recovered(); r != nil {
		logger.WithField("panic", r.Value).Error("extractor panicked")
		return source.Failed(name, fmt.Errorf("panic: %w", r.AsError()))
	}

	if result == nil {
		return source.Failed(name, errNoResult)
	}

	if result.Provider == "" {
		result.Provider = name
	}

	if result.Error != "" {
		logger.WithField("error", result.Error).Warn("extractor failed")
	} else {
		logger.WithField("streams", len(result.Streams)).Debug("extractor finished")
	}

	return result
}

type ranked struct {
	stream source.ExtractedStream
	weight int
}

// merge deduplicates streams by URL in registration order and sorts them by weight, stably.
func (e *Engine) merge(results []*source.ExtractionResult) []source.ExtractedStream {
	seen := make(map[string]struct{})
	var merged []ranked

	for i, res := range results {
		priority := e.extractors[i].Priority()

		for _, stream := range res.Streams {
			if !stream.Valid() {
				continue
			}
			if _, ok := seen[stream.URL]; ok {
				continue
			}
			seen[stream.URL] = struct{}{}

			if stream.Provider == "" {
				stream.Provider = res.Provider
			}
			if stream.Quality == "" {
				stream.Quality = source.QualityAuto
			}

			merged = append(merged, ranked{
				stream: stream,
				weight: priority + e.languageBonus(stream.Language),
			})
		}
	}

	slices.SortStableFunc(merged, func(a, b ranked) int {
		return b.weight - a.weight
	})

	return lo.Map(merged, func(r ranked, _ int) source.ExtractedStream { return r.stream })
}

// languageBonus gives the most preferred language the largest bonus; unlisted languages get none.
func (e *Engine) languageBonus(language source.Language) int {
	i := slices.Index(e.options.PreferredLanguages, language)
	if i < 0 {
		return 0
	}
	return (len(e.options.PreferredLanguages) - i) * LanguageStep
}
