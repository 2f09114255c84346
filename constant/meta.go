// Package constant defines immutable application-level identifiers and build metadata.
package constant

const (
	// Streamscout is the canonical application identifier used for filesystem paths and CLI branding.
	Streamscout = "streamscout"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is the browser-like User-Agent sent to hosting sites and used by headless contexts.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// AcceptLanguageFR is sent to aggregator portals that serve French catalogs.
	AcceptLanguageFR = "fr-FR,fr;q=0.9,en-US;q=0.6,en;q=0.5"
)

// Build metadata, overridden at link time with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
