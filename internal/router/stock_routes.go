package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/offer-stocks/internal/cache"
	"github.com/iliyamo/offer-stocks/internal/config"
	"github.com/iliyamo/offer-stocks/internal/handler"
	"github.com/iliyamo/offer-stocks/internal/middleware"
)

// StockDeps groups what the stock routes need besides the handler.  A nil
// Redis client or cache disables rate limiting and response caching.
type StockDeps struct {
	JWTSecret string
	Redis     *redis.Client
	Cache     *cache.OfferCache
	RateLimit config.RateLimitConfig
	CacheCfg  config.CacheConfig
}

// RegisterStocks registers the offer stock endpoints under /v1/offers/:id.
// Every route requires a valid JWT with the PRO role.
func RegisterStocks(e *echo.Echo, h *handler.StockHandler, d StockDeps) {
	g := e.Group(
		"/v1/offers/:id",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleOwner),
		middleware.NewTokenBucket(d.RateLimit, d.Redis),
	)
	cached := middleware.NewRedisCache(d.CacheCfg, d.Cache)

	// reads
	g.GET("/stocks", h.ListStocks, cached)
	g.GET("/price-categories", h.PriceCategories, cached)
	g.GET("/price-table", h.PriceTable, cached)

	// writes invalidate the offer's cached reads in the service
	g.POST("/stocks", h.UpsertStocks)
	g.POST("/stocks/delete", h.DeleteStocks)
	g.DELETE("/stocks/:stock_id", h.DeleteStock)
	g.POST("/activation-codes", h.UploadActivationCodes)
}
