package router

import (
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/show-tracker/internal/config"
    "github.com/iliyamo/show-tracker/internal/handler"
    "github.com/iliyamo/show-tracker/internal/model"
    "github.com/iliyamo/show-tracker/internal/queue"
    "github.com/iliyamo/show-tracker/internal/repository"
)

func testConfig() *config.Config {
    return &config.Config{
        Cache: config.CacheConfig{
            Enabled:     true,
            Methods:     []string{"GET"},
            TTL:         60e9,
            KeyStrategy: "route_query",
            Prefix:      "cache",
            Size:        32,
        },
        Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
    }
}

func newServer(t *testing.T) *echo.Echo {
    t.Helper()
    store := repository.NewMemoryStore()
    _, err := repository.Seed(t.Context(), store, []model.Show{{ID: 1, Name: "Rick and Morty", EpisodesSeen: 0}})
    require.NoError(t, err)
    return New(Deps{
        Config: testConfig(),
        Shows:  handler.NewShowHandler(store, queue.NoopPublisher{}, zerolog.Nop()),
        Logger: zerolog.Nop(),
    })
}

func do(e *echo.Echo, method, target string, form url.Values) (*httptest.ResponseRecorder, handler.Envelope) {
    var req *http.Request
    if form != nil {
        req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
    } else {
        req = httptest.NewRequest(method, target, nil)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    var env handler.Envelope
    _ = json.Unmarshal(rec.Body.Bytes(), &env)
    return rec, env
}

func TestRoutes_EndToEnd(t *testing.T) {
    e := newServer(t)

    rec, env := do(e, http.MethodGet, "/", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "hello world!", env.Result["content"])

    rec, _ = do(e, http.MethodGet, "/shows/1", nil)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    rec, _ = do(e, http.MethodGet, "/shows/1", nil)
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

    rec, env = do(e, http.MethodPut, "/shows/1", url.Values{"episodes_seen": {"2"}})
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, float64(2), env.Result["episodes_seen"])

    // The write invalidated the cached GET.
    rec, env = do(e, http.MethodGet, "/shows/1", nil)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Equal(t, map[string]any{"id": float64(1), "name": "Rick and Morty", "episodes_seen": float64(2)}, env.Result)
}

func TestRoutes_Health(t *testing.T) {
    rec, _ := do(newServer(t), http.MethodGet, "/healthz", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
}

func TestRoutes_Metrics(t *testing.T) {
    e := newServer(t)
    do(e, http.MethodGet, "/shows", nil)

    rec, _ := do(e, http.MethodGet, "/metrics", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `http_requests_total{code="200",method="GET",route="/shows"}`)
}

func TestRoutes_UnknownRouteIsEnvelope(t *testing.T) {
    rec, env := do(newServer(t), http.MethodGet, "/nope", nil)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, http.StatusNotFound, env.Code)
    assert.False(t, env.Success)
    assert.Equal(t, "Not Found", env.Message)
    assert.Nil(t, env.Result)
}

func TestRoutes_MethodNotAllowedIsEnvelope(t *testing.T) {
    rec, env := do(newServer(t), http.MethodPatch, "/shows/1", nil)
    assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
    assert.Equal(t, http.StatusMethodNotAllowed, env.Code)
    assert.False(t, env.Success)
}

func TestHTTPErrorHandler_HidesInternalErrors(t *testing.T) {
    e := echo.New()
    e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop())
    e.GET("/fail", func(c echo.Context) error { return errors.New("dial tcp: connection refused") })
    e.GET("/teapot", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") })

    rec, env := do(e, http.MethodGet, "/fail", nil)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.Equal(t, "Internal server error", env.Message)
    assert.NotContains(t, rec.Body.String(), "connection refused")

    rec, env = do(e, http.MethodGet, "/teapot", nil)
    assert.Equal(t, http.StatusTeapot, rec.Code)
    assert.Equal(t, "short and stout", env.Message)
}

func TestRoutes_RateLimitedIsEnvelope(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })

    cfg := testConfig()
    cfg.RateLimit = config.RateLimitConfig{
        Enabled:        true,
        Capacity:       1,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Hour,
        KeyStrategy:    "ip",
        Prefix:         "rl",
    }
    e := New(Deps{
        Config: cfg,
        Shows:  handler.NewShowHandler(repository.NewMemoryStore(), queue.NoopPublisher{}, zerolog.Nop()),
        Redis:  rdb,
        Logger: zerolog.Nop(),
    })

    rec, _ := do(e, http.MethodGet, "/shows", nil)
    assert.Equal(t, http.StatusOK, rec.Code)

    rec, env := do(e, http.MethodGet, "/shows", nil)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, http.StatusTooManyRequests, env.Code)
    assert.False(t, env.Success)
    assert.Equal(t, "Too many requests", env.Message)
    assert.Nil(t, env.Result)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

    // Health checks are not limited.
    rec, _ = do(e, http.MethodGet, "/healthz", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
}
