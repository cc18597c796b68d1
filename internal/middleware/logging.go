package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// RequestLogger writes one log line per request.  Errors returned by the
// handler chain are rendered here through echo's HTTPErrorHandler so the
// logged status is the one the client received.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            req := c.Request()
            res := c.Response()
            ev := logger.Info()
            switch {
            case res.Status >= 500:
                ev = logger.Error().Err(err)
            case res.Status >= 400:
                ev = logger.Warn()
            }
            ev.Str("method", req.Method).
                Str("path", req.URL.Path).
                Str("route", c.Path()).
                Int("status", res.Status).
                Int64("bytes", res.Size).
                Dur("latency", time.Since(start)).
                Str("remote_ip", c.RealIP()).
                Msg("request")
            return nil
        }
    }
}
