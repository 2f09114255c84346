// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Network - these keys tune the shared HTTP client used by every extractor and hoster strategy.
const (
	NetworkTimeout        = "network.timeout"
	NetworkRetries        = "network.retries"
	NetworkTLSFingerprint = "network.tls_fingerprint"
	NetworkUserAgent      = "network.user_agent"
)

// Engine - these keys govern the extraction orchestrator.
const (
	EngineExtractorTimeout   = "engine.extractor_timeout"
	EngineMaxParallel        = "engine.max_parallel"
	EnginePreferredLanguages = "engine.preferred_languages"
)

// Aggregator - these keys configure portal scraping and embed resolution fan-out.
const (
	AggregatorMaxParallelEmbeds = "aggregator.max_parallel_embeds"
	AggregatorLookback          = "aggregator.lookback"
)

// Headless Browser - these keys manage the shared browser used for network capture.
const (
	HeadlessEnable     = "headless.enable"
	HeadlessBudget     = "headless.budget"
	HeadlessBin        = "headless.bin"
	HeadlessControlURL = "headless.control_url"
	HeadlessNoSandbox  = "headless.no_sandbox"
)

// Sites - these keys hold the lists of configured extraction targets.
const (
	SitesAggregators = "sites.aggregators"
	SitesEmbeds      = "sites.embeds"
	SitesHeadless    = "sites.headless"
)

// Result Cache - these keys control caller-side caching of ranked stream lists.
const (
	CacheEnable = "cache.enable"
	CacheTTL    = "cache.ttl"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment.
const (
	CliColored = "cli.colored"
	CliIcons   = "cli.icons"
)
