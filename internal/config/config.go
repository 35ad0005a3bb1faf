package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Frontend FrontendConfig `mapstructure:"frontend" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int      `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string   `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
	CORSAllowedOrigins     []string `mapstructure:"cors_allowed_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL means the parcel endpoints are not backed by a database.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// CacheConfig configures the optional redis read-through cache for parcel views.
type CacheConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"     validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       validate:"gte=0"`
	TTLSeconds    int    `mapstructure:"ttl_seconds"    validate:"gte=1"`
}

// Enabled reports whether a redis address has been configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// FrontendConfig holds the values published to the browser frontend.
// APIBase is the URL prefix under which all backend endpoints are mounted,
// GeoJSONURL points at the static parcel geometry, and UsingAPI selects
// between remote-API mode and local-only mode.
type FrontendConfig struct {
	APIBase    string `mapstructure:"api_base"    validate:"required,url"`
	GeoJSONURL string `mapstructure:"geojson_url" validate:"required"`
	UsingAPI   bool   `mapstructure:"using_api"`
	StaticDir  string `mapstructure:"static_dir"`
}
