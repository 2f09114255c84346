// Package source defines the domain model shared by every extraction strategy.
package source

import "context"

// Extractor turns a catalog reference into directly playable streams.
//
// Implementations never return a Go error from Extract: transport, parse and protocol
// failures are reported in ExtractionResult.Error, and partial results are kept.
type Extractor interface {
	// Name identifies the extractor in results and logs.
	Name() string

	// NeedsBrowser reports whether the extractor drives the shared headless browser.
	NeedsBrowser() bool

	// Priority weights the extractor's streams in the final ranking. Higher ranks first.
	Priority() int

	// Extract runs the extraction for ref. It must honor ctx cancellation.
	Extract(ctx context.Context, ref MediaReference) *ExtractionResult
}

// ExtractionResult is the outcome of one extractor invocation.
type ExtractionResult struct {
	Provider string            `json:"provider"`
	Streams  []ExtractedStream `json:"streams"`
	// Error is informational; Streams may still hold partial results.
	Error string `json:"error,omitempty"`
}

// Failed builds a result carrying only an error message.
func Failed(provider string, err error) *ExtractionResult {
	return &ExtractionResult{Provider: provider, Error: err.Error()}
}
