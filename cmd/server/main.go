package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/offer-stocks/internal/cache"
	"github.com/iliyamo/offer-stocks/internal/config"
	"github.com/iliyamo/offer-stocks/internal/database"
	"github.com/iliyamo/offer-stocks/internal/handler"
	"github.com/iliyamo/offer-stocks/internal/queue"
	"github.com/iliyamo/offer-stocks/internal/repository"
	"github.com/iliyamo/offer-stocks/internal/router"
	"github.com/iliyamo/offer-stocks/internal/service"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()
	cfg := config.Load()
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store repository.StockStore
	switch cfg.StoreDriver {
	case "memory":
		mem := repository.NewMemoryStore(loc)
		seedDemo(mem, cfg)
		store = mem
	default:
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		store = repository.NewStockRepo(db, loc)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis: unavailable, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	offerCache := cache.New(rdb, cacheCfg.Prefix, cacheCfg.TTL)

	svc := service.NewStockService(store, offerCache, service.NewAMQPPublisher(cfg.RabbitMQURL), service.Options{
		ExemptProvider:   cfg.ExemptProvider,
		SingleEntryLabel: cfg.SingleEntryLabel,
		Location:         loc,
	})

	if cfg.StockEventsConsumer {
		go func() {
			if err := queue.StartStockConsumer(ctx, cfg.RabbitMQURL, cfg.StockEventsLog); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("stock-consumer: stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger(), echomw.Recover())
	router.RegisterRoutes(e)
	router.RegisterStocks(e, handler.NewStockHandler(svc, cfg.StocksPerPage), router.StockDeps{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     offerCache,
		RateLimit: config.LoadRateLimitConfig(),
		CacheCfg:  cacheCfg,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s, tz=%s)", addr, cfg.Env, cfg.StoreDriver, loc)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
