package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Extractor ExtractorConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Batch     BatchConfig
	Webhook   WebhookConfig
	Log       LogConfig
	Engine    EngineConfig
}

// EngineConfig controls the racing dispatcher.
type EngineConfig struct {
	EnableMultiEngine bool // default: true

	// EscalationDelays is the start delay per engine, in the order
	// http, rod, rod-stealth.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	HTTPTimeout time.Duration // default: 8s

	// MemoryTTL is how long a winning engine is remembered per host.
	MemoryTTL time.Duration // default: 24h
}

// ExtractorConfig controls media extraction.
type ExtractorConfig struct {
	// DefaultMode is used when a request names no mode.
	DefaultMode string // "strict" or "lenient"; default: "lenient"

	// VideoCDNBase is prefixed to a note's origin video key.
	VideoCDNBase string // default: "https://sns-video-bd.xhscdn.com/"
}

// CacheConfig controls the media response cache.
type CacheConfig struct {
	MaxEntries int           // default: 1000
	TTL        time.Duration // default: 1h
	PruneEvery time.Duration // default: 5m
}

// BatchConfig controls batch jobs.
type BatchConfig struct {
	// Concurrency bounds how many notes of one batch are fetched at once.
	Concurrency int // default: 5

	// JobTTL is how long finished jobs stay queryable.
	JobTTL time.Duration // default: 1h
}

// WebhookConfig controls batch completion callbacks.
type WebhookConfig struct {
	Timeout     time.Duration   // default: 10s
	RetryDelays []time.Duration // default: [0s, 1s, 5s, 30s]
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	BrowserBin string
}

// ScraperConfig controls browser page loads.
type ScraperConfig struct {
	DefaultTimeout    time.Duration // default: 30s
	MaxTimeout        time.Duration // default: 120s
	NavigationTimeout time.Duration // default: 15s

	// BlockedResourceTypes lists resource types the hijack router fails.
	// Media is left out so players still assign their sources.
	BlockedResourceTypes []string // default: ["Image", "Stylesheet", "Font"]

	// MediaSelector is waited for after load so lazily built carousels and
	// players are in the DOM before it is captured.
	MediaSelector string // default: ".img-container, .swiper-slide, .player-container, .media-container"

	// MediaWait bounds the MediaSelector wait. Pages without media, or with
	// a login wall, are captured when it runs out.
	MediaWait time.Duration // default: 5s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool // default: true
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from NOTEMEDIA_* environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("NOTEMEDIA_HOST", "0.0.0.0"),
			Port: envIntOr("NOTEMEDIA_PORT", 8080),
			Mode: envOr("NOTEMEDIA_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("NOTEMEDIA_HEADLESS", true),
			MaxPages:     envIntOr("NOTEMEDIA_MAX_PAGES", 10),
			DefaultProxy: os.Getenv("NOTEMEDIA_PROXY"),
			NoSandbox:    envBoolOr("NOTEMEDIA_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("NOTEMEDIA_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			DefaultTimeout:    envDurationOr("NOTEMEDIA_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:        envDurationOr("NOTEMEDIA_MAX_TIMEOUT", 120*time.Second),
			NavigationTimeout: envDurationOr("NOTEMEDIA_NAV_TIMEOUT", 15*time.Second),
			BlockedResourceTypes: envSliceOr("NOTEMEDIA_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font",
			}),
			MediaSelector: envOr("NOTEMEDIA_MEDIA_SELECTOR", ".img-container, .swiper-slide, .player-container, .media-container"),
			MediaWait:     envDurationOr("NOTEMEDIA_MEDIA_WAIT", 5*time.Second),
		},
		Extractor: ExtractorConfig{
			DefaultMode:  envOr("NOTEMEDIA_EXTRACT_MODE", "lenient"),
			VideoCDNBase: envOr("NOTEMEDIA_VIDEO_CDN", "https://sns-video-bd.xhscdn.com/"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("NOTEMEDIA_AUTH_ENABLED", true),
			APIKeys: envSliceOr("NOTEMEDIA_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("NOTEMEDIA_RATE_RPS", 5.0),
			Burst:             envIntOr("NOTEMEDIA_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("NOTEMEDIA_CACHE_MAX_ENTRIES", 1000),
			TTL:        envDurationOr("NOTEMEDIA_CACHE_TTL", time.Hour),
			PruneEvery: envDurationOr("NOTEMEDIA_CACHE_PRUNE", 5*time.Minute),
		},
		Batch: BatchConfig{
			Concurrency: envIntOr("NOTEMEDIA_BATCH_CONCURRENCY", 5),
			JobTTL:      envDurationOr("NOTEMEDIA_BATCH_TTL", time.Hour),
		},
		Webhook: WebhookConfig{
			Timeout:     envDurationOr("NOTEMEDIA_WEBHOOK_TIMEOUT", 10*time.Second),
			RetryDelays: envDurationSliceOr("NOTEMEDIA_WEBHOOK_RETRIES", []time.Duration{0, time.Second, 5 * time.Second, 30 * time.Second}),
		},
		Log: LogConfig{
			Level:  envOr("NOTEMEDIA_LOG_LEVEL", "info"),
			Format: envOr("NOTEMEDIA_LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("NOTEMEDIA_MULTI_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("NOTEMEDIA_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:       envDurationOr("NOTEMEDIA_HTTP_TIMEOUT", 8*time.Second),
			MemoryTTL:         envDurationOr("NOTEMEDIA_ENGINE_MEMORY_TTL", 24*time.Hour),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

// envDurationSliceOr skips unparseable items and falls back when none parse.
func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		var result []time.Duration
		for _, p := range strings.Split(v, ",") {
			if d, err := time.ParseDuration(strings.TrimSpace(p)); err == nil {
				result = append(result, d)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
