package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Grader   GraderConfig   `mapstructure:"grader" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Policy   PolicyConfig   `mapstructure:"policy"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
}

// AuthConfig contains the settings used to validate bearer tokens issued by
// the external auth service.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// GraderConfig selects and configures the free-text answer grader.
type GraderConfig struct {
	Provider        string `mapstructure:"provider" validate:"required,oneof=gemini openai anthropic none"`
	APIKey          string `mapstructure:"api_key" validate:"required_unless=Provider none"`
	Model           string `mapstructure:"model"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"gt=0"`
	MaxOutputTokens int    `mapstructure:"max_output_tokens" validate:"gt=0"`
}

// CacheConfig configures the optional Redis catalog cache. An empty address
// disables caching.
type CacheConfig struct {
	RedisAddr  string `mapstructure:"redis_addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"gte=0"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Exporter    string  `mapstructure:"exporter" validate:"oneof=none stdout otlp"`
	Endpoint    string  `mapstructure:"endpoint" validate:"required_if=Exporter otlp"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	ServiceName string  `mapstructure:"service_name"`
}

// PolicyConfig points at tunable domain tables.
type PolicyConfig struct {
	// MasteryFile is a TOML mastery promotion table; empty uses the defaults.
	MasteryFile string `mapstructure:"mastery_file"`
}
