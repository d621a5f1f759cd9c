package types

import "errors"

// Config holds backend selection and server parameters for the canvas service.
type Config struct {
	Backend   string          `json:"backend" yaml:"backend" mapstructure:"backend"`
	Listen    string          `json:"listen" yaml:"listen" mapstructure:"listen"`
	LogLevel  string          `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFormat string          `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Server is the base URL the client commands call.
	Server string `json:"server" yaml:"server" mapstructure:"server"`
}

// RateLimitConfig bounds requests per client. A zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `json:"rps" yaml:"rps" mapstructure:"rps"`
	Burst int     `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// Supported backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrLogFormatUnknown  = errors.New("unknown log format")
	ErrRateLimitNegative = errors.New("rate limit must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory: true,
	BackendSQLite: true,
}

// DefaultConfig returns the configuration used when no config file sets a value.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendMemory,
		Listen:    ":8080",
		LogLevel:  "info",
		LogFormat: LogFormatText,
		Server:    "http://localhost:8080",
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.LogFormat != "" && c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrLogFormatUnknown
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return ErrRateLimitNegative
	}
	return nil
}
