package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tverdal/venue-seat-booking/internal/config"
)

// bodyCapture tees the response body so a successful render can be
// stored after it has been sent to the client.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (bc *bodyCapture) WriteHeader(code int) { bc.status = code; bc.ResponseWriter.WriteHeader(code) }
func (bc *bodyCapture) Write(b []byte) (int, error) {
	if bc.limit <= 0 || bc.size+int64(len(b)) <= bc.limit {
		bc.buf.Write(b)
	}
	bc.size += int64(len(b))
	return bc.ResponseWriter.Write(b)
}

// NewLayoutCache caches successful JSON responses of static routes in
// Redis.  It is applied only to the seat-layout endpoint: layouts
// change rarely and are identical for every viewer.  The live
// availability view is deliberately left out – occupancy is derived
// state and must be recomputed on every query.  Only 200 responses
// are cached, keyed by route and query string.
func NewLayoutCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cfg.Prefix + ":" + c.Path() + "?" + c.Request().URL.RawQuery

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			bc := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = bc
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if bc.status == http.StatusOK && (bc.limit <= 0 || bc.size <= bc.limit) {
				_ = rdb.SetEx(context.Background(), key, bc.buf.Bytes(), ttl).Err()
			}
			return nil
		}
	}
}
