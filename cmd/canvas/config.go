// Config loading for the canvas CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/canvas/internal/paths"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "CANVAS"

	cfgKeyBackend        = "backend"
	cfgKeyListen         = "listen"
	cfgKeyLogLevel       = "log_level"
	cfgKeyLogFormat      = "log_format"
	cfgKeyRateLimitRPS   = "rate_limit.rps"
	cfgKeyRateLimitBurst = "rate_limit.burst"
	cfgKeyServer         = "server"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Canvas configuration

# Widget store: memory or sqlite
backend: memory

# Address the server listens on
listen: ":8080"

# Logging: level (debug, info, warn, error) and format (text, json)
log_level: info
log_format: text

# Per-client request budget; rps 0 disables limiting
rate_limit:
  rps: 0
  burst: 0

# Base URL the client commands call
server: http://localhost:8080
`

// loadConfig reads config.yaml from configDir using Viper, layering
// CANVAS_* environment variables over the file and the file over the
// defaults. It creates the directory and a default config.yaml on first run.
func loadConfig(configDir string) (types.Config, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return types.Config{}, sysError(fmt.Errorf("ensure config dir: %w", err))
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, sysError(fmt.Errorf("ensure default config: %w", err))
	}

	v := newViper()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, userError(fmt.Errorf("read config: %w", err))
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, userError(fmt.Errorf("decode config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError(fmt.Errorf("invalid config: %w", err))
	}
	return cfg, nil
}

// newViper returns a Viper instance seeded with defaults and bound to the
// CANVAS_ environment prefix. Nested keys map to underscores, so
// rate_limit.rps is read from CANVAS_RATE_LIMIT_RPS.
func newViper() *viper.Viper {
	def := types.DefaultConfig()

	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyListen, def.Listen)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)
	v.SetDefault(cfgKeyRateLimitRPS, def.RateLimit.RPS)
	v.SetDefault(cfgKeyRateLimitBurst, def.RateLimit.Burst)
	v.SetDefault(cfgKeyServer, def.Server)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
