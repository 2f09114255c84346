// Package browser abstracts the shared headless browser used for network capture.
// One Browser serves many short-lived, isolated contexts.
package browser

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no browser can be launched or reached.
var ErrUnavailable = errors.New("browser unavailable")

// Browser hands out isolated browsing contexts.
type Browser interface {
	NewContext(ctx context.Context, options ContextOptions) (Context, error)
	Close() error
}

// ContextOptions configure a new context.
type ContextOptions struct {
	UserAgent         string
	IgnoreHTTPSErrors bool
}

// Context is one isolated browsing session with a single page.
type Context interface {
	// OnResponse subscribes to network responses. The subscription is active when OnResponse returns.
	OnResponse(handler func(Response))

	// Navigate loads url in the context's page.
	Navigate(ctx context.Context, url string) error

	// Close disposes the context. It is safe to call more than once.
	Close() error
}

// Response is a network response observed by a context.
type Response struct {
	URL string
	// Referer is the Referer header of the request that produced the response.
	Referer  string
	MimeType string
	Status   int
}
