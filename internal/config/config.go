// Package config defines process configuration and its layered loading.
package config

// Config contains process configuration.
type Config struct {
	// Env selects the runtime environment: dev or prod.
	Env string `koanf:"env"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the root of the remote claims API, e.g.
	// "https://geotagger-api.fly.dev/api".
	APIBaseURL string `koanf:"api_base_url"`

	// GeocodeBaseURL is the root of the reverse-geocoding endpoint.
	GeocodeBaseURL string `koanf:"geocode_base_url"`

	// GeocodeAPIKey authenticates geocoding calls. Empty in dev; the
	// server then falls back to a static geocoder.
	GeocodeAPIKey string `koanf:"geocode_api_key"`

	// DefaultLatitude and DefaultLongitude are shown when the browser
	// cannot provide a position.
	DefaultLatitude  float64 `koanf:"default_latitude"`
	DefaultLongitude float64 `koanf:"default_longitude"`

	// DBPath locates the SQLite database file.
	DBPath string `koanf:"db_path"`

	// CSRFKey is the 32-byte key for CSRF token generation.
	CSRFKey string `koanf:"csrf_key"`

	// ResendAPIKey enables outgoing email; empty selects the noop sender.
	ResendAPIKey string `koanf:"resend_api_key"`

	// EmailFrom is the default sender address for outgoing email.
	EmailFrom string `koanf:"email_from"`

	// EmailReplyTo is the reply-to address for outgoing email.
	EmailReplyTo string `koanf:"email_reply_to"`

	// RateLimitPerMinute caps requests per client IP.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// SlowQueryMs is the threshold for slow-query log warnings.
	SlowQueryMs int `koanf:"slow_query_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Env:                "dev",
		LogLevel:           "info",
		Addr:               ":8080",
		APIBaseURL:         "https://geotagger-api.fly.dev/api",
		GeocodeBaseURL:     "https://maps.googleapis.com/maps/api/geocode",
		DefaultLatitude:    25.7566,
		DefaultLongitude:   28.1914,
		DBPath:             "etag.db",
		CSRFKey:            "dev-only-csrf-key-32-bytes-long!",
		EmailFrom:          "eTag Claims <noreply@etag.example>",
		RateLimitPerMinute: 120,
		SlowQueryMs:        50,
	}
}

// IsProd reports whether the process runs in production mode.
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
