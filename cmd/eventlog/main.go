// Command eventlog consumes show events from RabbitMQ and appends them to
// logs/shows.log.
package main

import (
    "context"
    "errors"
    "os"
    "os/signal"
    "syscall"

    "github.com/rs/zerolog/log"

    "github.com/iliyamo/show-tracker/internal/config"
    "github.com/iliyamo/show-tracker/internal/queue"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatal().Err(err).Msg("load config") // logger config is not known yet
    }
    logger := config.NewLogger(cfg.Log)

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    err = queue.StartShowEventConsumer(ctx, queue.ConsumerConfig{
        URL:   cfg.RabbitMQ.URL,
        Queue: cfg.RabbitMQ.Queue,
    }, logger)
    if err != nil && !errors.Is(err, context.Canceled) {
        logger.Fatal().Err(err).Msg("consumer stopped")
    }
    logger.Info().Msg("consumer stopped")
}
