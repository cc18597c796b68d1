package repository

import (
    "database/sql"
    "errors"

    "github.com/redis/go-redis/v9"
)

// Options carries the already opened connections a backend needs.  Only
// the field matching Driver has to be set.
type Options struct {
    Driver      string
    DB          *sql.DB       // mysql and sqlite
    Redis       *redis.Client // redis
    RedisPrefix string
}

// New builds the ShowStore selected by opts.Driver.  An empty driver means
// the in-memory store.
func New(opts Options) (ShowStore, error) {
    if opts.Driver == "" {
        opts.Driver = DriverMemory
    }
    if err := validateDriver(opts.Driver); err != nil {
        return nil, err
    }
    switch opts.Driver {
    case DriverMySQL, DriverSQLite:
        if opts.DB == nil {
            return nil, errors.New("store: sql driver selected without a database handle")
        }
        return NewSQLStore(opts.DB), nil
    case DriverRedis:
        if opts.Redis == nil {
            return nil, errors.New("store: redis driver selected without a redis client")
        }
        return NewRedisStore(opts.Redis, opts.RedisPrefix), nil
    default:
        return NewMemoryStore(), nil
    }
}
