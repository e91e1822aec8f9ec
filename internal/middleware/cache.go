package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/config"
)

// bodyRecorder tees the response to the client and to a bounded buffer.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.overflow = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	u := c.Request().URL
	sum := sha1.Sum([]byte(u.Path + "?" + u.RawQuery))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// packEntry lays out [status u32][content-type length u32][content-type][body].
func packEntry(status int, contentType string, body []byte) []byte {
	out := make([]byte, 8, 8+len(contentType)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(contentType)))
	out = append(out, contentType...)
	return append(out, body...)
}

func unpackEntry(b []byte) (status int, contentType string, body []byte, ok bool) {
	if len(b) < 8 {
		return 0, "", nil, false
	}
	n := int(binary.BigEndian.Uint32(b[4:8]))
	if n < 0 || 8+n > len(b) {
		return 0, "", nil, false
	}
	return int(binary.BigEndian.Uint32(b[0:4])), string(b[8 : 8+n]), b[8+n:], true
}

// NewRedisCache serves repeated GETs under the configured public listing
// paths from Redis.  Only 200 answers are stored.  Responses carry
// X-Cache: HIT or MISS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet || !cfg.Cacheable(req.URL.Path) {
				return next(c)
			}
			key := cacheKey(cfg, c)

			if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
				if status, ct, body, ok := unpackEntry(raw); ok {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(status, ct, body)
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}
			entry := packEntry(rec.status, c.Response().Header().Get(echo.HeaderContentType), rec.buf.Bytes())
			if err := rdb.Set(context.WithoutCancel(req.Context()), key, entry, ttl).Err(); err != nil {
				log.WithError(err).Warn("cache: store failed")
			}
			return nil
		}
	}
}
