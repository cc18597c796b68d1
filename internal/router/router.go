package router // package router defines how HTTP routes are registered for the API

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/show-tracker/internal/config"     // runtime configuration
    "github.com/iliyamo/show-tracker/internal/handler"    // handlers that implement the API
    "github.com/iliyamo/show-tracker/internal/metrics"    // /metrics endpoint
    "github.com/iliyamo/show-tracker/internal/middleware" // logging, metrics, rate limiting and caching
)

// Deps carries everything New needs to build the HTTP server.  Redis may be
// nil; caching then falls back to the in-process LRU and rate limiting is
// off.
type Deps struct {
    Config *config.Config
    Shows  *handler.ShowHandler
    Redis  *redis.Client
    Logger zerolog.Logger
}

// New returns a configured Echo instance with middleware and every route
// registered.
func New(d Deps) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.HTTPErrorHandler = HTTPErrorHandler(d.Logger)

    // The logger and metrics see the final status of every request.
    e.Use(middleware.RequestLogger(d.Logger))
    if d.Config.Metrics.Enabled {
        e.Use(middleware.Metrics())
        e.GET(d.Config.Metrics.Path, echo.WrapHandler(metrics.Handler()))
    }
    e.Use(echomw.Recover())
    // Load balancer probe; plain text, not an envelope.
    e.GET("/healthz", handler.Health)

    RegisterRoutes(e, d.Shows,
        middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Logger),
        middleware.NewResponseCache(d.Config.Cache, middleware.NewCacheStore(d.Config.Cache, d.Redis), d.Logger),
    )
    return e
}

// RegisterRoutes maps the public API onto e.  mw wraps every API route, so
// probes and /metrics are neither rate limited nor cached.
func RegisterRoutes(e *echo.Echo, shows *handler.ShowHandler, mw ...echo.MiddlewareFunc) {
    e.GET("/", handler.Hello, mw...)
    e.GET("/mirror/:name", handler.Mirror, mw...)

    e.GET("/shows", shows.ListShows, mw...)
    e.POST("/shows", shows.CreateShow, mw...)
    e.GET("/shows/:id", shows.GetShow, mw...)
    e.PUT("/shows/:id", shows.UpdateShow, mw...)
    e.DELETE("/shows/:id", shows.DeleteShow, mw...)
}

// HTTPErrorHandler renders every error that reaches Echo as an envelope.
// echo.HTTPErrors keep their code and message; anything else is logged and
// reported as a 500 without leaking detail to the client.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }

        code := http.StatusInternalServerError
        message := "Internal server error"
        var he *echo.HTTPError
        if errors.As(err, &he) {
            code = he.Code
            if m, ok := he.Message.(string); ok {
                message = m
            } else {
                message = fmt.Sprint(he.Message)
            }
        }
        if code >= http.StatusInternalServerError {
            logger.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Request().URL.Path).Msg("request failed")
            message = "Internal server error"
        }

        var werr error
        if c.Request().Method == http.MethodHead {
            werr = c.NoContent(code)
        } else {
            werr = c.JSON(code, handler.NewEnvelope(nil, code, message))
        }
        if werr != nil {
            logger.Error().Err(werr).Msg("write error response")
        }
    }
}
