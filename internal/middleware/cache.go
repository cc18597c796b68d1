package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "sync/atomic"
    "time"

    "github.com/hashicorp/golang-lru/v2/expirable"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/show-tracker/internal/config"
)

// CacheStore holds encoded responses.  Every key embeds the current
// generation; a successful write bumps it so older entries are never read
// again and simply expire.
type CacheStore interface {
    Get(ctx context.Context, key string) ([]byte, bool)
    Set(ctx context.Context, key string, value []byte, ttl time.Duration)
    Generation(ctx context.Context) int64
    Bump(ctx context.Context)
}

// RedisCacheStore keeps entries and the generation counter in Redis so
// every instance of the service shares them.
type RedisCacheStore struct {
    rdb    *redis.Client
    genKey string
}

func NewRedisCacheStore(rdb *redis.Client, prefix string) *RedisCacheStore {
    return &RedisCacheStore{rdb: rdb, genKey: prefix + ":gen"}
}

func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, bool) {
    bs, err := s.rdb.Get(ctx, key).Bytes()
    return bs, err == nil
}

func (s *RedisCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
    _ = s.rdb.SetEx(ctx, key, value, ttl).Err()
}

func (s *RedisCacheStore) Generation(ctx context.Context) int64 {
    n, err := s.rdb.Get(ctx, s.genKey).Int64()
    if err != nil {
        return 0 // redis.Nil before the first write
    }
    return n
}

func (s *RedisCacheStore) Bump(ctx context.Context) {
    _ = s.rdb.Incr(ctx, s.genKey).Err()
}

// LRUCacheStore is the in-process fallback used when Redis is unavailable.
// Entries share the single TTL the LRU was created with.
type LRUCacheStore struct {
    lru *expirable.LRU[string, []byte]
    gen atomic.Int64
}

func NewLRUCacheStore(size int, ttl time.Duration) *LRUCacheStore {
    return &LRUCacheStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *LRUCacheStore) Get(_ context.Context, key string) ([]byte, bool) {
    return s.lru.Get(key)
}

func (s *LRUCacheStore) Set(_ context.Context, key string, value []byte, _ time.Duration) {
    s.lru.Add(key, value)
}

func (s *LRUCacheStore) Generation(context.Context) int64 { return s.gen.Load() }

func (s *LRUCacheStore) Bump(context.Context) {
    s.gen.Add(1)
    s.lru.Purge()
}

// NewCacheStore picks Redis when a client is available and the LRU otherwise.
func NewCacheStore(cfg config.CacheConfig, rdb *redis.Client) CacheStore {
    if rdb != nil {
        return NewRedisCacheStore(rdb, cfg.Prefix)
    }
    return NewLRUCacheStore(cfg.Size, cfg.TTL)
}

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 {
        cw.buf.Write(b)
    } else if remain := cw.limit - cw.size; remain > 0 {
        if int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body exceeded the capture limit.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// Build a stable cache key honoring prefix/strategy and the current generation.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, gen int64) string {
    r := c.Request()
    method := r.Method
    route := c.Path()
    query := r.URL.RawQuery

    parts := []string{cfg.Prefix, "g", strconv.FormatInt(gen, 10)}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "path_query":
        parts = append(parts, "path", r.URL.Path, "q", query)
    case "method_route_query":
        parts = append(parts, "method", method, "route", route, "path", r.URL.Path, "q", query)
    default: // "route_query"
        parts = append(parts, "route", route, "path", r.URL.Path, "q", query)
    }

    tail := strings.Join(parts[1:], ":")
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", parts[0], sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    total := 4 + 4 + len(hdrJSON) + len(body)
    out := make([]byte, total)
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    var hdr http.Header
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    } else {
        hdr = make(http.Header)
    }
    body = bs[8+hlen:]
    return status, hdr, body, true
}

func isMutation(method string) bool {
    switch method {
    case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
        return true
    }
    return false
}

// NewResponseCache stores headers + body of 200 responses for the configured
// methods so clients see byte-identical bodies on a hit.  A mutating request
// that ends with a 2xx status invalidates everything cached so far.
func NewResponseCache(cfg config.CacheConfig, store CacheStore, logger zerolog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || store == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    methods := cfg.MethodSet()
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            method := strings.ToUpper(c.Request().Method)
            if isMutation(method) {
                err := next(c)
                status := c.Response().Status
                if err == nil && status >= 200 && status < 300 {
                    store.Bump(context.Background())
                    logger.Debug().Str("method", method).Str("path", c.Request().URL.Path).Msg("cache invalidated")
                }
                return err
            }
            if !methods[method] {
                return next(c)
            }

            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c, store.Generation(ctx))

            if bs, ok := store.Get(ctx, key); ok {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    // Restore headers (except hop-by-hop)
                    for k, vals := range hdr {
                        if strings.EqualFold(k, echo.HeaderContentLength) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            // Miss: capture
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated() {
                return nil
            }

            hdr := make(http.Header, len(c.Response().Header()))
            for k, vals := range c.Response().Header() {
                vv := make([]string, len(vals))
                copy(vv, vals)
                hdr[k] = vv
            }
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                store.Set(context.Background(), key, payload, cfg.TTL)
            }
            return nil
        }
    }
}
