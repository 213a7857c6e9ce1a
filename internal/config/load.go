package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every configuration environment variable,
// e.g. LINGDOU_SERVER_PORT or LINGDOU_DATABASE_URL.
const EnvPrefix = "LINGDOU"

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 10,
	"database.url":                    "",
	"database.max_open_conns":         10,
	"auth.jwt_secret":                 "",
	"auth.token_lifetime_minutes":     60,
	"grader.provider":                 "gemini",
	"grader.api_key":                  "",
	"grader.model":                    "",
	"grader.timeout_seconds":          20,
	"grader.max_output_tokens":        1024,
	"cache.redis_addr":                "",
	"cache.ttl_seconds":               300,
	"tracing.exporter":                "none",
	"tracing.endpoint":                "",
	"tracing.sample_ratio":            1.0,
	"tracing.service_name":            "lingdou-api",
	"policy.mastery_file":             "",
}

// Load reads configuration from environment variables and, when present, a
// config.yaml in the working directory. Environment variables take
// precedence over file values.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for an optional config.yaml; a non-empty path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
