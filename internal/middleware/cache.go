package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/contactbook/internal/config"
	"github.com/iliyamo/contactbook/internal/observability"
)

// cacheStore is the subset of redis commands the contact cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
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
	if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
		cw.buf.Write(b)
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) overflowed() bool { return cw.limit > 0 && cw.size > cw.limit }

// generationKey holds the tenant's cache generation.  Bumping it orphans
// every entry written under the previous value.
func generationKey(prefix, tenantID string) string {
	return prefix + ":tenant:" + tenantID + ":gen"
}

// entryKey is prefix:tenant:<id>:<gen>:<sha1(method path query)>.
func entryKey(prefix, tenantID string, gen int64, c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:tenant:%s:%d:%x", prefix, tenantID, gen, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
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
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewContactCache caches successful contact reads per tenant in Redis.  It
// must run after RequireAPISession: requests without a verified identity
// are never cached.  Non-cacheable methods that succeed bump the tenant's
// generation so later reads miss.  With caching disabled or no client the
// middleware does nothing.
func NewContactCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return newContactCache(cfg, rdb)
}

func newContactCache(cfg config.CacheConfig, store cacheStore) echo.MiddlewareFunc {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant := TenantID(c)
			if tenant == "" {
				observability.ContactCacheTotal.WithLabelValues(observability.CacheBypass).Inc()
				return next(c)
			}
			ctx := c.Request().Context()
			genKey := generationKey(cfg.Prefix, tenant)

			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				if err := next(c); err != nil {
					return err
				}
				if status := c.Response().Status; status >= 200 && status < 300 {
					if err := store.Incr(context.WithoutCancel(ctx), genKey).Err(); err != nil {
						zap.L().Warn("contact cache invalidation failed", zap.String("tenant_id", tenant), zap.Error(err))
					}
				}
				return nil
			}

			gen, err := store.Get(ctx, genKey).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				observability.ContactCacheTotal.WithLabelValues(observability.CacheError).Inc()
				return next(c)
			}
			key := entryKey(cfg.Prefix, tenant, gen, c)

			if bs, err := store.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					observability.ContactCacheTotal.WithLabelValues(observability.CacheHit).Inc()
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

			observability.ContactCacheTotal.WithLabelValues(observability.CacheMiss).Inc()
			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflowed() {
				return nil
			}

			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderSetCookie)
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := store.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				zap.L().Warn("contact cache store failed", zap.String("tenant_id", tenant), zap.Error(err))
			}
			return nil
		}
	}
}
