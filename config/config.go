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
	Captcha   CaptchaConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the shared Rod browser session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy routes all browser and raw-fetch traffic through an upstream
	// proxy when set.
	Proxy string

	// UserDataDir is the scratch profile directory. It is wiped before
	// every session launch so fingerprint state never survives a restart.
	UserDataDir string // default: os.TempDir()/amazon-scraper-profile
}

// ScraperConfig controls extraction behavior.
type ScraperConfig struct {
	// SearchBaseURL is the origin the search path is resolved against.
	SearchBaseURL string // default: "https://www.amazon.com"

	// NavigationTimeout bounds page navigation (DOM parsed, not full load).
	NavigationTimeout time.Duration // default: 30s

	// SelectorTimeout bounds the wait for the first result item.
	SelectorTimeout time.Duration // default: 10s

	// FetchTimeout bounds a single raw-fetch request.
	FetchTimeout time.Duration // default: 15s

	// RetryBackoff is the linear backoff unit between rendering attempts.
	RetryBackoff time.Duration // default: 2s

	// FetchRPS paces outbound raw-fetch requests.
	FetchRPS float64 // default: 0.5

	// FetchBurst is the raw-fetch pacing burst size.
	FetchBurst int // default: 1
}

// CaptchaConfig controls the third-party challenge remediation provider.
type CaptchaConfig struct {
	// APIKey authenticates against the provider. Empty disables the
	// provider; remediation then degrades to a single page reload.
	APIKey string

	// BaseURL is the provider endpoint.
	BaseURL string // default: "https://2captcha.com"

	// PollInterval is the answer polling cadence.
	PollInterval time.Duration // default: 2s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls the per-client admission gate.
type RateLimitConfig struct {
	// Window is the fixed counting window per client.
	Window time.Duration // default: 60s

	// MaxRequests is the number of requests admitted per window.
	MaxRequests int // default: 10
}

// CacheConfig controls the search response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SCRAPER_HOST", "0.0.0.0"),
			Port: envIntOr("SCRAPER_PORT", 8080),
			Mode: envOr("SCRAPER_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:    envBoolOr("SCRAPER_HEADLESS", true),
			NoSandbox:   envBoolOr("SCRAPER_NO_SANDBOX", true),
			BrowserBin:  os.Getenv("SCRAPER_BROWSER_BIN"),
			Proxy:       os.Getenv("SCRAPER_PROXY"),
			UserDataDir: envOr("SCRAPER_USER_DATA_DIR", defaultUserDataDir()),
		},
		Scraper: ScraperConfig{
			SearchBaseURL:     envOr("SCRAPER_SEARCH_BASE_URL", "https://www.amazon.com"),
			NavigationTimeout: envDurationOr("SCRAPER_NAV_TIMEOUT", 30*time.Second),
			SelectorTimeout:   envDurationOr("SCRAPER_SELECTOR_TIMEOUT", 10*time.Second),
			FetchTimeout:      envDurationOr("SCRAPER_FETCH_TIMEOUT", 15*time.Second),
			RetryBackoff:      envDurationOr("SCRAPER_RETRY_BACKOFF", 2*time.Second),
			FetchRPS:          envFloatOr("SCRAPER_FETCH_RPS", 0.5),
			FetchBurst:        envIntOr("SCRAPER_FETCH_BURST", 1),
		},
		Captcha: CaptchaConfig{
			APIKey:       os.Getenv("SCRAPER_CAPTCHA_API_KEY"),
			BaseURL:      envOr("SCRAPER_CAPTCHA_BASE_URL", "https://2captcha.com"),
			PollInterval: envDurationOr("SCRAPER_CAPTCHA_POLL_INTERVAL", 2*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SCRAPER_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SCRAPER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			Window:      envDurationOr("SCRAPER_RATE_WINDOW", 60*time.Second),
			MaxRequests: envIntOr("SCRAPER_RATE_MAX", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SCRAPER_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("SCRAPER_LOG_LEVEL", "info"),
			Format: envOr("SCRAPER_LOG_FORMAT", "json"),
		},
	}
}

func defaultUserDataDir() string {
	return os.TempDir() + string(os.PathSeparator) + "amazon-scraper-profile"
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
