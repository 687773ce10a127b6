package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/offer-stocks/internal/cache"
	"github.com/iliyamo/offer-stocks/internal/config"
)

// captureWriter keeps a copy of the body while forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		cw.buf.Write(b[:min(int64(len(b)), remain)])
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// cacheKeyParts lists what identifies a cached response besides the offer.
func cacheKeyParts(cfg config.CacheConfig, c echo.Context) []string {
	r := c.Request()
	parts := []string{"user", userKey(c)}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = append(parts, "route", c.Path())
	case "method_route":
		parts = append(parts, "method", r.Method, "route", c.Path())
	case "method_route_query":
		parts = append(parts, "method", r.Method, "route", c.Path(), "q", r.URL.RawQuery)
	default:
		parts = append(parts, "route", c.Path(), "q", r.URL.RawQuery)
	}
	return parts
}

// NewRedisCache caches successful responses of routes carrying an :id offer
// parameter.  Entries are dropped by OfferCache.InvalidateOffer whenever
// the offer's stocks change.
func NewRedisCache(cfg config.CacheConfig, oc *cache.OfferCache) echo.MiddlewareFunc {
	if !cfg.Enabled || oc == nil {
		return passThrough
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			offerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil {
				return next(c)
			}

			ctx := c.Request().Context()
			key := oc.Key(offerID, cacheKeyParts(cfg, c)...)

			if hit, ok := oc.Get(ctx, key); ok {
				for k, vals := range hit.Header {
					if strings.EqualFold(k, "Content-Length") {
						continue
					}
					for _, v := range vals {
						c.Response().Header().Add(k, v)
					}
				}
				c.Response().Header().Set("X-Cache", "HIT")
				c.Response().WriteHeader(hit.Status)
				if len(hit.Body) > 0 {
					_, _ = c.Response().Write(hit.Body)
				}
				return nil
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated() {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			_ = oc.Set(context.WithoutCancel(ctx), key, cache.Response{Status: cw.status, Header: hdr, Body: cw.buf.Bytes()})
			return nil
		}
	}
}
