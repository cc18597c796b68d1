package config // package config loads application configuration from file and environment

import (
    "errors"
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/spf13/viper"
)

// Config holds all runtime configuration values.  Values come from an
// optional config.yaml (in . or ./config), then from the environment.  Nested
// keys map to upper-case variables with "_" separators (store.driver ->
// STORE_DRIVER); the variable names of earlier deployments (APP_PORT,
// DB_USER, REDIS_ADDR, ...) are bound explicitly.
type Config struct {
    Env       string          `mapstructure:"env"` // application environment (e.g. "dev", "prod")
    Server    ServerConfig    `mapstructure:"server"`
    Log       LogConfig       `mapstructure:"log"`
    Store     StoreConfig     `mapstructure:"store"`
    DB        DBConfig        `mapstructure:"db"`
    Redis     RedisConfig     `mapstructure:"redis"`
    Cache     CacheConfig     `mapstructure:"cache"`
    RateLimit RateLimitConfig `mapstructure:"rate_limit"`
    RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
    Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
    Address         string        `mapstructure:"address"`          // interface to bind, empty = all
    Port            int           `mapstructure:"port"`             // HTTP port to listen on
    ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // grace period on SIGTERM
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
    return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
    Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
    Format string `mapstructure:"format"` // console or json
}

// StoreConfig selects the show store backend.
type StoreConfig struct {
    Driver      string `mapstructure:"driver"`       // memory, mysql, sqlite or redis
    Seed        bool   `mapstructure:"seed"`         // load the bundled fixture into an empty store
    SQLitePath  string `mapstructure:"sqlite_path"`  // database file for the sqlite driver
    RedisPrefix string `mapstructure:"redis_prefix"` // key namespace for the redis driver
}

// DBConfig holds MySQL credentials.
type DBConfig struct {
    User string `mapstructure:"user"` // database username
    Pass string `mapstructure:"pass"` // database password (optional)
    Host string `mapstructure:"host"` // database host address
    Port string `mapstructure:"port"` // database port number
    Name string `mapstructure:"name"` // database name
}

// RabbitMQConfig points the event publisher and consumer at a broker.  An
// empty URL disables publishing.
type RabbitMQConfig struct {
    URL   string `mapstructure:"url"`
    Queue string `mapstructure:"queue"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
    Enabled bool   `mapstructure:"enabled"`
    Path    string `mapstructure:"path"`
}

// envBindings keeps the environment variable names used by earlier
// deployments working alongside the derived names.
var envBindings = map[string][]string{
    "env":                        {"APP_ENV", "ENV"},
    "server.port":                {"APP_PORT", "SERVER_PORT"},
    "log.level":                  {"LOG_LEVEL"},
    "log.format":                 {"LOG_FORMAT"},
    "db.user":                    {"DB_USER"},
    "db.pass":                    {"DB_PASS"},
    "db.host":                    {"DB_HOST"},
    "db.port":                    {"DB_PORT"},
    "db.name":                    {"DB_NAME"},
    "redis.addr":                 {"REDIS_ADDR"},
    "redis.host":                 {"REDIS_HOST"},
    "redis.port":                 {"REDIS_PORT"},
    "redis.password":             {"REDIS_PASSWORD"},
    "redis.db":                   {"REDIS_DB"},
    "redis.tls":                  {"REDIS_TLS"},
    "rabbitmq.url":               {"RABBITMQ_URL", "AMQP_URL"},
    "cache.enabled":              {"CACHE_ENABLED"},
    "cache.methods":              {"CACHE_METHODS"},
    "cache.ttl":                  {"CACHE_TTL"},
    "cache.key_strategy":         {"CACHE_KEY_STRATEGY"},
    "cache.prefix":               {"CACHE_PREFIX"},
    "cache.max_body_bytes":       {"CACHE_MAX_BODY_BYTES"},
    "cache.size":                 {"CACHE_SIZE"},
    "rate_limit.enabled":         {"RATE_LIMIT_ENABLED"},
    "rate_limit.capacity":        {"RATE_LIMIT_CAPACITY"},
    "rate_limit.refill_tokens":   {"RATE_LIMIT_REFILL_TOKENS"},
    "rate_limit.refill_interval": {"RATE_LIMIT_REFILL_INTERVAL"},
    "rate_limit.ttl":             {"RATE_LIMIT_TTL"},
    "rate_limit.key_strategy":    {"RATE_LIMIT_KEY_STRATEGY"},
    "rate_limit.prefix":          {"RATE_LIMIT_PREFIX"},
    "rate_limit.burst":           {"RATE_LIMIT_BURST"},
    "rate_limit.refill_every":    {"RATE_LIMIT_REFILL_EVERY"},
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("env", "dev")
    v.SetDefault("server.address", "")
    v.SetDefault("server.port", 8080)
    v.SetDefault("server.shutdown_timeout", "10s")
    v.SetDefault("log.level", "info")
    v.SetDefault("log.format", "console")
    v.SetDefault("store.driver", "memory")
    v.SetDefault("store.seed", true)
    v.SetDefault("store.sqlite_path", "data/shows.db")
    v.SetDefault("store.redis_prefix", "showtracker:")
    v.SetDefault("db.user", "root")
    v.SetDefault("db.host", "localhost")
    v.SetDefault("db.port", "3306")
    v.SetDefault("db.name", "shows")
    v.SetDefault("redis.addr", "")
    v.SetDefault("redis.db", 0)
    v.SetDefault("rabbitmq.url", "")
    v.SetDefault("rabbitmq.queue", "shows.events")
    v.SetDefault("metrics.enabled", true)
    v.SetDefault("metrics.path", "/metrics")
    setCacheDefaults(v)
    setRateLimitDefaults(v)
}

// Load reads configuration from an optional .env file, an optional
// config.yaml and the environment, in increasing order of precedence.
func Load() (*Config, error) {
    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        return nil, fmt.Errorf("load .env: %w", err)
    }
    return load(viper.New(), ".", "./config")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
    v.SetConfigName("config")
    v.SetConfigType("yaml")
    for _, p := range paths {
        v.AddConfigPath(p)
    }

    // Environment variable support
    v.AutomaticEnv()
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    for key, envs := range envBindings {
        _ = v.BindEnv(append([]string{key}, envs...)...)
    }
    setDefaults(v)

    if err := v.ReadInConfig(); err != nil {
        var notFound viper.ConfigFileNotFoundError
        if !errors.As(err, &notFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    var cfg Config
    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }
    cfg.Cache = cfg.Cache.normalize()
    cfg.RateLimit = cfg.RateLimit.normalize()
    cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

    if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
        return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
    }
    return &cfg, nil
}
