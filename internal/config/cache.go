package config

import (
    "strings"
    "time"

    "github.com/spf13/viper"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false caching is disabled.  Methods lists the HTTP
// methods to cache (e.g. GET, HEAD).  TTL defines the lifetime of cache
// entries.  KeyStrategy determines which parts of the request contribute to
// the cache key.  Prefix and MaxBodyBytes allow control over namespacing and
// the maximum size of responses to cache.  Size bounds the in-process LRU
// used when no Redis server is reachable.
type CacheConfig struct {
    Enabled      bool          `mapstructure:"enabled"`
    Methods      []string      `mapstructure:"methods"`
    TTL          time.Duration `mapstructure:"ttl"`
    KeyStrategy  string        `mapstructure:"key_strategy"`
    Prefix       string        `mapstructure:"prefix"`
    MaxBodyBytes int           `mapstructure:"max_body_bytes"`
    Size         int           `mapstructure:"size"`
}

func setCacheDefaults(v *viper.Viper) {
    v.SetDefault("cache.enabled", true)
    v.SetDefault("cache.methods", []string{"GET"})
    v.SetDefault("cache.ttl", "30s")
    v.SetDefault("cache.key_strategy", "route_query")
    v.SetDefault("cache.prefix", "cache")
    v.SetDefault("cache.max_body_bytes", 1048576)
    v.SetDefault("cache.size", 512)
}

// MethodSet returns the configured methods upper-cased as a lookup set.
func (c CacheConfig) MethodSet() map[string]bool {
    m := map[string]bool{}
    for _, raw := range c.Methods {
        for _, p := range strings.Split(raw, ",") {
            p = strings.TrimSpace(strings.ToUpper(p))
            if p != "" {
                m[p] = true
            }
        }
    }
    return m
}

func (c CacheConfig) normalize() CacheConfig {
    if c.TTL <= 0 {
        c.TTL = time.Second
    }
    if c.Size < 1 {
        c.Size = 1
    }
    if c.Prefix == "" {
        c.Prefix = "cache"
    }
    return c
}
