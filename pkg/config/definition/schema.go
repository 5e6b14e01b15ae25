package definition

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	stringType      = reflect.TypeOf("")
	intType         = reflect.TypeOf(0)
	int64Type       = reflect.TypeOf(int64(0))
	boolType        = reflect.TypeOf(true)
	durationType    = reflect.TypeOf(time.Duration(0))
	stringSliceType = reflect.TypeOf([]string{})
)

// CreateRegistry creates and populates the configuration registry.
// Every default value and CLI flag is declared here.
func CreateRegistry() *Registry {
	registry := NewRegistry()
	registerServerFields(registry)
	registerDatabaseFields(registry)
	registerBoardFields(registry)
	registerRuntimeFields(registry)
	registerRateLimitFields(registry)
	registerMonitoringFields(registry)
	registerCLIFields(registry)
	return registry
}

func registerServerFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "server.host",
		Default: "0.0.0.0",
		CLIFlag: "host",
		EnvVar:  "SERVER_HOST",
		Type:    stringType,
		Help:    "Host to bind the server to",
	})
	registry.Register(&FieldDef{
		Path:    "server.port",
		Default: 8000,
		CLIFlag: "port",
		EnvVar:  "SERVER_PORT",
		Type:    intType,
		Help:    "Port to run the server on",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors_enabled",
		Default: false,
		CLIFlag: "cors",
		EnvVar:  "SERVER_CORS_ENABLED",
		Type:    boolType,
		Help:    "Enable CORS",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors.allowed_origins",
		Default: []string{"http://localhost:8000"},
		CLIFlag: "cors-allowed-origins",
		EnvVar:  "SERVER_CORS_ALLOWED_ORIGINS",
		Type:    stringSliceType,
		Help:    "Allowed CORS origins (comma-separated)",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors.allow_credentials",
		Default: false,
		EnvVar:  "SERVER_CORS_ALLOW_CREDENTIALS",
		Type:    boolType,
		Help:    "Allow credentials in CORS requests",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors.max_age",
		Default: 86400,
		EnvVar:  "SERVER_CORS_MAX_AGE",
		Type:    intType,
		Help:    "CORS preflight max age in seconds",
	})
	registry.Register(&FieldDef{
		Path:    "server.timeout",
		Default: 30 * time.Second,
		EnvVar:  "SERVER_TIMEOUT",
		Type:    durationType,
		Help:    "HTTP read and write timeout",
	})
	registry.Register(&FieldDef{
		Path:    "server.shutdown_timeout",
		Default: 5 * time.Second,
		EnvVar:  "SERVER_SHUTDOWN_TIMEOUT",
		Type:    durationType,
		Help:    "Maximum time to wait for in-flight requests on shutdown",
	})
}

func registerDatabaseFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "database.driver",
		Default: "sqlite",
		CLIFlag: "db-driver",
		EnvVar:  "DB_DRIVER",
		Type:    stringType,
		Help:    "Database driver: postgres|sqlite",
	})
	registry.Register(&FieldDef{
		Path:    "database.default_alias",
		Default: "primary",
		CLIFlag: "db-default-alias",
		EnvVar:  "DB_DEFAULT_ALIAS",
		Type:    stringType,
		Help:    "Alias used when every router abstains",
	})
	registry.Register(&FieldDef{
		Path:    "database.routers",
		Default: []string{"replica"},
		CLIFlag: "db-routers",
		EnvVar:  "DB_ROUTERS",
		Type:    stringSliceType,
		Help:    "Ordered list of routing policies (replica, pinned)",
	})
	registry.Register(&FieldDef{
		Path:    "database.pinned_models",
		Default: []string{},
		CLIFlag: "db-pinned-models",
		EnvVar:  "DB_PINNED_MODELS",
		Type:    stringSliceType,
		Help:    "Models the pinned router sends to the primary",
	})
	registry.Register(&FieldDef{
		Path:    "database.auto_migrate",
		Default: true,
		CLIFlag: "db-auto-migrate",
		EnvVar:  "DB_AUTO_MIGRATE",
		Type:    boolType,
		Help:    "Apply migrations when the server starts",
	})
	registry.Register(&FieldDef{
		Path:    "database.migration_timeout",
		Default: 2 * time.Minute,
		EnvVar:  "DB_MIGRATION_TIMEOUT",
		Type:    durationType,
		Help:    "Timeout for applying migrations",
	})
	registry.Register(&FieldDef{
		Path:    "database.connect_retries",
		Default: 5,
		EnvVar:  "DB_CONNECT_RETRIES",
		Type:    intType,
		Help:    "Connection attempts before giving up",
	})
	registry.Register(&FieldDef{
		Path:    "database.connect_retry_delay",
		Default: 500 * time.Millisecond,
		EnvVar:  "DB_CONNECT_RETRY_DELAY",
		Type:    durationType,
		Help:    "Initial backoff between connection attempts",
	})
	registerNodeFields(registry, "primary")
	registerNodeFields(registry, "standby")
}

// registerNodeFields declares the connection settings of one alias.
// Both aliases share defaults so a fresh checkout points them at the same database.
func registerNodeFields(registry *Registry, alias string) {
	prefix := "database." + alias
	envPrefix := "DB_" + strings.ToUpper(alias) + "_"
	flagPrefix := "db-" + alias + "-"
	node := func(key, flag string, def any, typ reflect.Type, help string) {
		field := &FieldDef{
			Path:    prefix + "." + key,
			Default: def,
			EnvVar:  envPrefix + strings.ToUpper(key),
			Type:    typ,
			Help:    fmt.Sprintf("%s (%s)", help, alias),
		}
		if flag != "" {
			field.CLIFlag = flagPrefix + flag
		}
		registry.Register(field)
	}
	node("conn_string", "conn-string", "", stringType, "Postgres connection string")
	node("host", "host", "localhost", stringType, "Postgres host")
	node("port", "port", "5432", stringType, "Postgres port")
	node("user", "user", "postgres", stringType, "Postgres user")
	node("password", "", "", stringType, "Postgres password")
	node("name", "name", "msgboard", stringType, "Postgres database name")
	node("ssl_mode", "", "disable", stringType, "Postgres SSL mode")
	node("path", "path", "msgboard.db", stringType, "SQLite database file")
	node("max_open_conns", "", 10, intType, "Maximum open connections")
	node("max_idle_conns", "", 2, intType, "Maximum idle connections")
	node("conn_max_lifetime", "", 30*time.Minute, durationType, "Maximum connection lifetime")
	node("conn_max_idle_time", "", 5*time.Minute, durationType, "Maximum connection idle time")
	node("connect_timeout", "", 5*time.Second, durationType, "Connection timeout")
	node("ping_timeout", "", 3*time.Second, durationType, "Ping timeout")
	node("health_check_period", "", 30*time.Second, durationType, "Pool health check period")
	node("busy_timeout", "", 5*time.Second, durationType, "SQLite busy timeout")
}

func registerBoardFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "board.max_length",
		Default: 200,
		CLIFlag: "max-length",
		EnvVar:  "BOARD_MAX_LENGTH",
		Type:    intType,
		Help:    "Maximum message length in characters",
	})
	registry.Register(&FieldDef{
		Path:    "board.page_size",
		Default: 10,
		CLIFlag: "page-size",
		EnvVar:  "BOARD_PAGE_SIZE",
		Type:    intType,
		Help:    "Messages per archive page",
	})
}

func registerRuntimeFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "runtime.environment",
		Default: "development",
		CLIFlag: "environment",
		EnvVar:  "RUNTIME_ENVIRONMENT",
		Type:    stringType,
		Help:    "Runtime environment: development|staging|production",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_level",
		Default: "info",
		EnvVar:  "RUNTIME_LOG_LEVEL",
		Type:    stringType,
		Help:    "Log level: debug|info|warn|error",
	})
}

func registerRateLimitFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "ratelimit.global_rate.limit",
		Default: int64(0),
		CLIFlag: "rate-limit",
		EnvVar:  "RATELIMIT_GLOBAL_LIMIT",
		Type:    int64Type,
		Help:    "Requests per period per client (0 disables)",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.global_rate.period",
		Default: 1 * time.Minute,
		EnvVar:  "RATELIMIT_GLOBAL_PERIOD",
		Type:    durationType,
		Help:    "Global rate limit period",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.post_rate.limit",
		Default: int64(0),
		EnvVar:  "RATELIMIT_POST_LIMIT",
		Type:    int64Type,
		Help:    "Message submissions per period per client (0 disables)",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.post_rate.period",
		Default: 1 * time.Minute,
		EnvVar:  "RATELIMIT_POST_PERIOD",
		Type:    durationType,
		Help:    "Submission rate limit period",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.redis_addr",
		Default: "",
		EnvVar:  "RATELIMIT_REDIS_ADDR",
		Type:    stringType,
		Help:    "Redis address for a shared limiter store (in-memory when empty)",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.redis_password",
		Default: "",
		EnvVar:  "RATELIMIT_REDIS_PASSWORD",
		Type:    stringType,
		Help:    "Redis password",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.redis_db",
		Default: 0,
		EnvVar:  "RATELIMIT_REDIS_DB",
		Type:    intType,
		Help:    "Redis database index",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.prefix",
		Default: "msgboard:ratelimit:",
		EnvVar:  "RATELIMIT_PREFIX",
		Type:    stringType,
		Help:    "Key prefix for rate limit storage",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.max_retry",
		Default: 3,
		EnvVar:  "RATELIMIT_MAX_RETRY",
		Type:    intType,
		Help:    "Maximum retries for rate limit store operations",
	})
}

func registerMonitoringFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "monitoring.enabled",
		Default: true,
		CLIFlag: "monitoring",
		EnvVar:  "MONITORING_ENABLED",
		Type:    boolType,
		Help:    "Expose Prometheus metrics",
	})
	registry.Register(&FieldDef{
		Path:    "monitoring.path",
		Default: "/metrics",
		EnvVar:  "MONITORING_PATH",
		Type:    stringType,
		Help:    "Path of the metrics endpoint",
	})
}

func registerCLIFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "cli.config_file",
		Default: "msgboard.yaml",
		EnvVar:  "MSGBOARD_CONFIG_FILE",
		Type:    stringType,
		Help:    "Path to the YAML configuration file",
	})
	registry.Register(&FieldDef{
		Path:    "cli.env_file",
		Default: ".env",
		EnvVar:  "MSGBOARD_ENV_FILE",
		Type:    stringType,
		Help:    "Path to the environment variables file",
	})
	registry.Register(&FieldDef{
		Path:      "cli.format",
		Default:   "text",
		CLIFlag:   "format",
		Shorthand: "f",
		EnvVar:    "MSGBOARD_FORMAT",
		Type:      stringType,
		Help:      "Output format: text|json",
	})
}
