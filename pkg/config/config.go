package config

import (
	"context"
	"sort"
	"time"

	"github.com/msgboard/msgboard/pkg/config/definition"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	AliasPrimary = "primary"
	AliasStandby = "standby"
)

// Config represents the complete configuration for the message board.
// It provides type-safe access to all configuration values with validation.
type Config struct {
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Database   DatabaseConfig   `koanf:"database"   validate:"required"`
	Board      BoardConfig      `koanf:"board"`
	Runtime    RuntimeConfig    `koanf:"runtime"    validate:"required"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	CLI        CLIConfig        `koanf:"cli"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"             validate:"required"        env:"SERVER_HOST"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535" env:"SERVER_PORT"`
	CORSEnabled     bool          `koanf:"cors_enabled"                                env:"SERVER_CORS_ENABLED"`
	CORS            CORSConfig    `koanf:"cors"`
	Timeout         time.Duration `koanf:"timeout"                                     env:"SERVER_TIMEOUT"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"                            env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"   env:"SERVER_CORS_ALLOWED_ORIGINS"`
	AllowCredentials bool     `koanf:"allow_credentials" env:"SERVER_CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `koanf:"max_age"           env:"SERVER_CORS_MAX_AGE"`
}

// DatabaseConfig describes the database aliases and how requests are routed
// between them.
type DatabaseConfig struct {
	Driver            string        `koanf:"driver"              validate:"oneof=postgres sqlite" env:"DB_DRIVER"`
	DefaultAlias      string        `koanf:"default_alias"       validate:"required,db_alias"     env:"DB_DEFAULT_ALIAS"`
	Routers           []string      `koanf:"routers"             validate:"dive,router_name"      env:"DB_ROUTERS"`
	PinnedModels      []string      `koanf:"pinned_models"                                        env:"DB_PINNED_MODELS"`
	AutoMigrate       bool          `koanf:"auto_migrate"                                         env:"DB_AUTO_MIGRATE"`
	MigrationTimeout  time.Duration `koanf:"migration_timeout"                                    env:"DB_MIGRATION_TIMEOUT"`
	ConnectRetries    int           `koanf:"connect_retries"     validate:"min=0"                 env:"DB_CONNECT_RETRIES"`
	ConnectRetryDelay time.Duration `koanf:"connect_retry_delay"                                  env:"DB_CONNECT_RETRY_DELAY"`
	Primary           NodeConfig    `koanf:"primary"                                              env:"DB_PRIMARY"`
	Standby           NodeConfig    `koanf:"standby"                                              env:"DB_STANDBY"`
}

// NodeConfig holds the connection settings of a single database alias.
// Postgres nodes use the connection fields, SQLite nodes use Path.
type NodeConfig struct {
	ConnString        string          `koanf:"conn_string"         env:"CONN_STRING"`
	Host              string          `koanf:"host"                env:"HOST"`
	Port              string          `koanf:"port"                env:"PORT"`
	User              string          `koanf:"user"                env:"USER"`
	Password          SensitiveString `koanf:"password"            env:"PASSWORD"            sensitive:"true"`
	DBName            string          `koanf:"name"                env:"NAME"`
	SSLMode           string          `koanf:"ssl_mode"            env:"SSL_MODE"`
	Path              string          `koanf:"path"                env:"PATH"`
	MaxOpenConns      int             `koanf:"max_open_conns"      env:"MAX_OPEN_CONNS"      validate:"min=0"`
	MaxIdleConns      int             `koanf:"max_idle_conns"      env:"MAX_IDLE_CONNS"      validate:"min=0"`
	ConnMaxLifetime   time.Duration   `koanf:"conn_max_lifetime"   env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTime   time.Duration   `koanf:"conn_max_idle_time"  env:"CONN_MAX_IDLE_TIME"`
	ConnectTimeout    time.Duration   `koanf:"connect_timeout"     env:"CONNECT_TIMEOUT"`
	PingTimeout       time.Duration   `koanf:"ping_timeout"        env:"PING_TIMEOUT"`
	HealthCheckPeriod time.Duration   `koanf:"health_check_period" env:"HEALTH_CHECK_PERIOD"`
	BusyTimeout       time.Duration   `koanf:"busy_timeout"        env:"BUSY_TIMEOUT"`
}

// Nodes returns the configured aliases keyed by name.
func (d *DatabaseConfig) Nodes() map[string]NodeConfig {
	return map[string]NodeConfig{
		AliasPrimary: d.Primary,
		AliasStandby: d.Standby,
	}
}

// Node returns the settings of a single alias.
func (d *DatabaseConfig) Node(alias string) (NodeConfig, bool) {
	node, ok := d.Nodes()[alias]
	return node, ok
}

// Aliases lists the configured aliases in a stable order.
func (d *DatabaseConfig) Aliases() []string {
	nodes := d.Nodes()
	out := make([]string, 0, len(nodes))
	for alias := range nodes {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// BoardConfig contains message board behavior.
// MaxLength cannot exceed the msg_text column width.
type BoardConfig struct {
	MaxLength int `koanf:"max_length" validate:"min=1,max=200" env:"BOARD_MAX_LENGTH"`
	PageSize  int `koanf:"page_size"  validate:"min=1,max=100" env:"BOARD_PAGE_SIZE"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"          env:"RUNTIME_LOG_LEVEL"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	GlobalRate    RateConfig      `koanf:"global_rate"    env:"RATELIMIT_GLOBAL"`
	PostRate      RateConfig      `koanf:"post_rate"      env:"RATELIMIT_POST"`
	RedisAddr     string          `koanf:"redis_addr"     env:"RATELIMIT_REDIS_ADDR"`
	RedisPassword SensitiveString `koanf:"redis_password" env:"RATELIMIT_REDIS_PASSWORD" sensitive:"true"`
	RedisDB       int             `koanf:"redis_db"       env:"RATELIMIT_REDIS_DB"`
	Prefix        string          `koanf:"prefix"         env:"RATELIMIT_PREFIX"`
	MaxRetry      int             `koanf:"max_retry"      env:"RATELIMIT_MAX_RETRY"`
}

// RateConfig represents a single rate limit configuration.
// A zero limit disables the limiter.
type RateConfig struct {
	Limit  int64         `koanf:"limit"  env:"LIMIT"  validate:"min=0"`
	Period time.Duration `koanf:"period" env:"PERIOD"`
}

// MonitoringConfig controls the Prometheus endpoint.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"`
}

// CLIConfig contains CLI-specific configuration.
type CLIConfig struct {
	ConfigFile string `koanf:"config_file" env:"MSGBOARD_CONFIG_FILE"`
	EnvFile    string `koanf:"env_file"    env:"MSGBOARD_ENV_FILE"`
	Format     string `koanf:"format"      env:"MSGBOARD_FORMAT"      validate:"oneof=text json"`
}

// Service defines the configuration management service interface.
// It provides methods for loading, watching, and validating configuration.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Watch monitors configuration changes and invokes callbacks on updates.
	Watch(ctx context.Context, callback func(*Config)) error
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type for a specific configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	Load() (map[string]any, error)
	Watch(ctx context.Context, callback func()) error
	Type() SourceType
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata tracks where each configuration key came from.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Default returns the configuration built from the field registry.
func Default() *Config {
	registry := definition.CreateRegistry()
	return &Config{
		Server:     buildServerConfig(registry),
		Database:   buildDatabaseConfig(registry),
		Board:      buildBoardConfig(registry),
		Runtime:    buildRuntimeConfig(registry),
		RateLimit:  buildRateLimitConfig(registry),
		Monitoring: buildMonitoringConfig(registry),
		CLI:        buildCLIConfig(registry),
	}
}

func getString(registry *definition.Registry, path string) string {
	if s, ok := registry.GetDefault(path).(string); ok {
		return s
	}
	return ""
}

func getInt(registry *definition.Registry, path string) int {
	if i, ok := registry.GetDefault(path).(int); ok {
		return i
	}
	return 0
}

func getInt64(registry *definition.Registry, path string) int64 {
	switch v := registry.GetDefault(path).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func getBool(registry *definition.Registry, path string) bool {
	if b, ok := registry.GetDefault(path).(bool); ok {
		return b
	}
	return false
}

func getDuration(registry *definition.Registry, path string) time.Duration {
	if d, ok := registry.GetDefault(path).(time.Duration); ok {
		return d
	}
	return 0
}

func getStringSlice(registry *definition.Registry, path string) []string {
	switch v := registry.GetDefault(path).(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func buildServerConfig(registry *definition.Registry) ServerConfig {
	return ServerConfig{
		Host:        getString(registry, "server.host"),
		Port:        getInt(registry, "server.port"),
		CORSEnabled: getBool(registry, "server.cors_enabled"),
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice(registry, "server.cors.allowed_origins"),
			AllowCredentials: getBool(registry, "server.cors.allow_credentials"),
			MaxAge:           getInt(registry, "server.cors.max_age"),
		},
		Timeout:         getDuration(registry, "server.timeout"),
		ShutdownTimeout: getDuration(registry, "server.shutdown_timeout"),
	}
}

func buildDatabaseConfig(registry *definition.Registry) DatabaseConfig {
	return DatabaseConfig{
		Driver:            getString(registry, "database.driver"),
		DefaultAlias:      getString(registry, "database.default_alias"),
		Routers:           getStringSlice(registry, "database.routers"),
		PinnedModels:      getStringSlice(registry, "database.pinned_models"),
		AutoMigrate:       getBool(registry, "database.auto_migrate"),
		MigrationTimeout:  getDuration(registry, "database.migration_timeout"),
		ConnectRetries:    getInt(registry, "database.connect_retries"),
		ConnectRetryDelay: getDuration(registry, "database.connect_retry_delay"),
		Primary:           buildNodeConfig(registry, "database."+AliasPrimary),
		Standby:           buildNodeConfig(registry, "database."+AliasStandby),
	}
}

func buildNodeConfig(registry *definition.Registry, prefix string) NodeConfig {
	return NodeConfig{
		ConnString:        getString(registry, prefix+".conn_string"),
		Host:              getString(registry, prefix+".host"),
		Port:              getString(registry, prefix+".port"),
		User:              getString(registry, prefix+".user"),
		Password:          SensitiveString(getString(registry, prefix+".password")),
		DBName:            getString(registry, prefix+".name"),
		SSLMode:           getString(registry, prefix+".ssl_mode"),
		Path:              getString(registry, prefix+".path"),
		MaxOpenConns:      getInt(registry, prefix+".max_open_conns"),
		MaxIdleConns:      getInt(registry, prefix+".max_idle_conns"),
		ConnMaxLifetime:   getDuration(registry, prefix+".conn_max_lifetime"),
		ConnMaxIdleTime:   getDuration(registry, prefix+".conn_max_idle_time"),
		ConnectTimeout:    getDuration(registry, prefix+".connect_timeout"),
		PingTimeout:       getDuration(registry, prefix+".ping_timeout"),
		HealthCheckPeriod: getDuration(registry, prefix+".health_check_period"),
		BusyTimeout:       getDuration(registry, prefix+".busy_timeout"),
	}
}

func buildBoardConfig(registry *definition.Registry) BoardConfig {
	return BoardConfig{
		MaxLength: getInt(registry, "board.max_length"),
		PageSize:  getInt(registry, "board.page_size"),
	}
}

func buildRuntimeConfig(registry *definition.Registry) RuntimeConfig {
	return RuntimeConfig{
		Environment: getString(registry, "runtime.environment"),
		LogLevel:    getString(registry, "runtime.log_level"),
	}
}

func buildRateLimitConfig(registry *definition.Registry) RateLimitConfig {
	return RateLimitConfig{
		GlobalRate: RateConfig{
			Limit:  getInt64(registry, "ratelimit.global_rate.limit"),
			Period: getDuration(registry, "ratelimit.global_rate.period"),
		},
		PostRate: RateConfig{
			Limit:  getInt64(registry, "ratelimit.post_rate.limit"),
			Period: getDuration(registry, "ratelimit.post_rate.period"),
		},
		RedisAddr:     getString(registry, "ratelimit.redis_addr"),
		RedisPassword: SensitiveString(getString(registry, "ratelimit.redis_password")),
		RedisDB:       getInt(registry, "ratelimit.redis_db"),
		Prefix:        getString(registry, "ratelimit.prefix"),
		MaxRetry:      getInt(registry, "ratelimit.max_retry"),
	}
}

func buildMonitoringConfig(registry *definition.Registry) MonitoringConfig {
	return MonitoringConfig{
		Enabled: getBool(registry, "monitoring.enabled"),
		Path:    getString(registry, "monitoring.path"),
	}
}

func buildCLIConfig(registry *definition.Registry) CLIConfig {
	return CLIConfig{
		ConfigFile: getString(registry, "cli.config_file"),
		EnvFile:    getString(registry, "cli.env_file"),
		Format:     getString(registry, "cli.format"),
	}
}
