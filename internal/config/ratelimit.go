package config

import (
    "time"

    "github.com/spf13/viper"
)

// RateLimitConfig configures the per-client token bucket in front of the
// API routes.
type RateLimitConfig struct {
    Enabled        bool          `mapstructure:"enabled"`
    Capacity       int           `mapstructure:"capacity"`        // bucket size
    RefillTokens   int           `mapstructure:"refill_tokens"`   // tokens added per interval
    RefillInterval time.Duration `mapstructure:"refill_interval"`
    TTL            time.Duration `mapstructure:"ttl"`             // idle buckets expire after this
    KeyStrategy    string        `mapstructure:"key_strategy"`    // ip, route or ip_route
    Prefix         string        `mapstructure:"prefix"`
    Burst          int           `mapstructure:"burst"`           // overrides Capacity when > 0
    RefillEvery    time.Duration `mapstructure:"refill_every"`    // shorthand for 1 token per interval
}

func setRateLimitDefaults(v *viper.Viper) {
    v.SetDefault("rate_limit.enabled", true)
    v.SetDefault("rate_limit.capacity", 60)
    v.SetDefault("rate_limit.refill_tokens", 1)
    v.SetDefault("rate_limit.refill_interval", "1s")
    v.SetDefault("rate_limit.ttl", "10m")
    v.SetDefault("rate_limit.key_strategy", "ip_route")
    v.SetDefault("rate_limit.prefix", "rl")
    v.SetDefault("rate_limit.burst", -1)
    v.SetDefault("rate_limit.refill_every", "0s")
}

// normalize applies the shorthands and clamps values the bucket cannot
// work with.
func (rl RateLimitConfig) normalize() RateLimitConfig {
    if rl.Burst > 0 {
        rl.Capacity = rl.Burst
    }
    if rl.RefillEvery > 0 {
        rl.RefillTokens = 1
        rl.RefillInterval = rl.RefillEvery
    }
    if rl.Capacity < 1 {
        rl.Capacity = 1
    }
    if rl.RefillTokens < 1 {
        rl.RefillTokens = 1
    }
    if rl.RefillInterval <= 0 {
        rl.RefillInterval = time.Second
    }
    if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL { // outlive a few refills
        rl.TTL = minTTL
    }
    return rl
}
