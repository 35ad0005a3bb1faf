package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. PARCEL_FRONTEND_API_BASE for frontend.api_base.
const EnvPrefix = "PARCEL"

// Default values mirrored by the deployed frontend.
const (
	DefaultAPIBase    = "https://parcel-demo-backend.onrender.com/api/v1"
	DefaultGeoJSONURL = "synthetic_parcels.geojson"
	DefaultPort       = 8000
)

var validate = validator.New()

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from config files. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file instead of
// searching the working directory. A missing explicit file is an error.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT is what hosting platforms inject; it wins over the prefixed name.
	if err := v.BindEnv("server.port", "PORT", EnvPrefix+"_SERVER_PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind port environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.Frontend.APIBase = strings.TrimSpace(cfg.Frontend.APIBase)
	cfg.Frontend.GeoJSONURL = strings.TrimSpace(cfg.Frontend.GeoJSONURL)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can populate it during
// Unmarshal, including keys that have no meaningful default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl_seconds", 300)

	v.SetDefault("frontend.api_base", DefaultAPIBase)
	v.SetDefault("frontend.geojson_url", DefaultGeoJSONURL)
	v.SetDefault("frontend.using_api", true)
	v.SetDefault("frontend.static_dir", "static")
}
