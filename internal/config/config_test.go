package config

import (
    "bytes"
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/spf13/viper"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
    cfg, err := load(viper.New(), t.TempDir())
    require.NoError(t, err)

    assert.Equal(t, "dev", cfg.Env)
    assert.Equal(t, 8080, cfg.Server.Port)
    assert.Equal(t, ":8080", cfg.Server.Addr())
    assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
    assert.Equal(t, "memory", cfg.Store.Driver)
    assert.True(t, cfg.Store.Seed)
    assert.True(t, cfg.Cache.Enabled)
    assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
    assert.Equal(t, map[string]bool{"GET": true}, cfg.Cache.MethodSet())
    assert.Equal(t, 60, cfg.RateLimit.Capacity)
    assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
    assert.Equal(t, "shows.events", cfg.RabbitMQ.Queue)
    assert.Empty(t, cfg.RabbitMQ.URL)
    assert.Equal(t, "/metrics", cfg.Metrics.Path)
    assert.Empty(t, cfg.Redis.Address())
}

func TestLoad_LegacyEnvNames(t *testing.T) {
    t.Setenv("APP_ENV", "prod")
    t.Setenv("APP_PORT", "9000")
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_PASS", "secret")
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("RABBITMQ_URL", "amqp://guest:guest@mq:5672/")
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("CACHE_TTL", "2m")
    t.Setenv("LOG_LEVEL", "debug")

    cfg, err := load(viper.New(), t.TempDir())
    require.NoError(t, err)

    assert.Equal(t, "prod", cfg.Env)
    assert.Equal(t, 9000, cfg.Server.Port)
    assert.Equal(t, "app", cfg.DB.User)
    assert.Equal(t, "secret", cfg.DB.Pass)
    assert.Equal(t, "cache:6380", cfg.Redis.Address())
    assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.RabbitMQ.URL)
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Cache.MethodSet())
    assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
    assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_NestedEnvNames(t *testing.T) {
    t.Setenv("STORE_DRIVER", " SQLite ")
    t.Setenv("STORE_SQLITE_PATH", "/tmp/shows.db")
    t.Setenv("METRICS_ENABLED", "false")

    cfg, err := load(viper.New(), t.TempDir())
    require.NoError(t, err)

    assert.Equal(t, "sqlite", cfg.Store.Driver)
    assert.Equal(t, "/tmp/shows.db", cfg.Store.SQLitePath)
    assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_ConfigFile(t *testing.T) {
    dir := t.TempDir()
    yaml := []byte(`
env: staging
server:
  port: 7070
store:
  driver: redis
  seed: false
rate_limit:
  capacity: 5
  refill_every: 2s
`)
    require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

    cfg, err := load(viper.New(), dir)
    require.NoError(t, err)

    assert.Equal(t, "staging", cfg.Env)
    assert.Equal(t, 7070, cfg.Server.Port)
    assert.Equal(t, "redis", cfg.Store.Driver)
    assert.False(t, cfg.Store.Seed)
    assert.Equal(t, 5, cfg.RateLimit.Capacity)
    assert.Equal(t, 1, cfg.RateLimit.RefillTokens)
    assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
    assert.Equal(t, 10*time.Minute, cfg.RateLimit.TTL)
}

func TestLoad_InvalidPort(t *testing.T) {
    t.Setenv("APP_PORT", "0")
    _, err := load(viper.New(), t.TempDir())
    assert.Error(t, err)
}

func TestRateLimitConfig_Normalize(t *testing.T) {
    got := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: 0, Burst: 10}.normalize()
    assert.Equal(t, 10, got.Capacity)
    assert.Equal(t, 1, got.RefillTokens)
    assert.Equal(t, time.Second, got.RefillInterval)
    assert.Equal(t, 5*time.Second, got.TTL)
}

func TestRedisConfig_Address(t *testing.T) {
    assert.Equal(t, "h:1", RedisConfig{Addr: "x:2", Host: "h", Port: "1"}.Address())
    assert.Equal(t, "x:2", RedisConfig{Addr: "x:2", Host: "h"}.Address())
    assert.Nil(t, NewRedisClient(RedisConfig{}))
}

func TestNewLogger(t *testing.T) {
    var buf bytes.Buffer
    logger := newLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
    assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

    logger.Info().Msg("hidden")
    logger.Warn().Str("k", "v").Msg("shown")
    assert.NotContains(t, buf.String(), "hidden")
    assert.Contains(t, buf.String(), `"k":"v"`)

    buf.Reset()
    logger = newLogger(LogConfig{Level: "loud", Format: "json"}, &buf)
    assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
    assert.Contains(t, buf.String(), "Invalid log level")
}
