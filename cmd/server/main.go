package main // Entry point package

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/show-tracker/internal/config"
    "github.com/iliyamo/show-tracker/internal/database"
    "github.com/iliyamo/show-tracker/internal/handler"
    "github.com/iliyamo/show-tracker/internal/queue"
    "github.com/iliyamo/show-tracker/internal/repository"
    "github.com/iliyamo/show-tracker/internal/router"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatal().Err(err).Msg("load config") // logger config is not known yet
    }
    logger := config.NewLogger(cfg.Log).With().Str("env", cfg.Env).Logger()

    rdb := config.NewRedisClient(cfg.Redis) // nil when not configured or unreachable
    if rdb == nil && cfg.Redis.Address() != "" {
        logger.Warn().Str("addr", cfg.Redis.Address()).Msg("redis unreachable; using in-process cache, rate limiting disabled")
    }

    store, err := openStore(cfg, rdb)
    if err != nil {
        logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("open store")
    }
    defer func() {
        if err := store.Close(); err != nil {
            logger.Warn().Err(err).Msg("close store")
        }
        if rdb != nil && cfg.Store.Driver != repository.DriverRedis {
            _ = rdb.Close()
        }
    }()

    if cfg.Store.Seed {
        seedStore(store, logger)
    }

    var events queue.Publisher = queue.NoopPublisher{}
    if cfg.RabbitMQ.URL != "" {
        events = queue.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, 256, logger)
    }
    defer events.Close()

    e := router.New(router.Deps{
        Config: cfg,
        Shows:  handler.NewShowHandler(store, events, logger),
        Redis:  rdb,
        Logger: logger,
    })

    go func() {
        logger.Info().Str("addr", cfg.Server.Addr()).Str("store", cfg.Store.Driver).Msg("listening")
        if err := e.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
            logger.Fatal().Err(err).Msg("server failed")
        }
    }()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()

    logger.Info().Msg("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        logger.Error().Err(err).Msg("graceful shutdown failed")
    }
}

// openStore connects the backend selected by store.driver and runs pending
// migrations for the SQL drivers.
func openStore(cfg *config.Config, rdb *redis.Client) (repository.ShowStore, error) {
    opts := repository.Options{Driver: cfg.Store.Driver, Redis: rdb, RedisPrefix: cfg.Store.RedisPrefix}
    switch cfg.Store.Driver {
    case repository.DriverMySQL:
        db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
        if err != nil {
            return nil, err
        }
        opts.DB = db
    case repository.DriverSQLite:
        db, err := database.OpenSQLite(cfg.Store.SQLitePath)
        if err != nil {
            return nil, err
        }
        opts.DB = db
    }
    if opts.DB != nil {
        if err := database.Migrate(opts.DB, cfg.Store.Driver); err != nil {
            _ = opts.DB.Close()
            return nil, err
        }
    }
    return repository.New(opts)
}

func seedStore(store repository.ShowStore, logger zerolog.Logger) {
    shows, err := repository.DefaultShows()
    if err != nil {
        logger.Error().Err(err).Msg("parse seed fixture")
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    n, err := repository.Seed(ctx, store, shows)
    if err != nil {
        logger.Error().Err(err).Msg("seed store")
        return
    }
    if n > 0 {
        logger.Info().Int("shows", n).Msg("seeded store")
    }
}
