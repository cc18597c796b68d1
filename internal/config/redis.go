package config

// This file defines a Redis client constructor for the application.  Redis is
// used by the redis show store, distributed rate limiting and HTTP response
// caching.  If the connection fails during startup the function returns nil
// and callers should degrade gracefully: the response cache falls back to an
// in-process LRU and rate limiting is disabled.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection parameters.
//   Host and Port – hostname and port of the Redis server
//   Addr          – host:port shorthand; Host/Port take precedence when both are set
//   Password      – optional password
//   DB            – database number (default 0)
//   TLS           – enable TLS
// An empty address (no Addr, no Host/Port) means Redis is not configured.
type RedisConfig struct {
    Addr     string `mapstructure:"addr"`
    Host     string `mapstructure:"host"`
    Port     string `mapstructure:"port"`
    Password string `mapstructure:"password"`
    DB       int    `mapstructure:"db"`
    TLS      bool   `mapstructure:"tls"`
}

// Address resolves the effective host:port, or "" when Redis is not configured.
func (c RedisConfig) Address() string {
    if c.Host != "" && c.Port != "" {
        return c.Host + ":" + c.Port
    }
    return c.Addr
}

// NewRedisClient instantiates a Redis client from cfg.  The returned client
// is nil when Redis is not configured or a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    addr := cfg.Address()
    if addr == "" {
        return nil
    }
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    // Ping the server with a short timeout.  Return nil on failure.
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
