package main

import (
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/offer-stocks/internal/config"
	"github.com/iliyamo/offer-stocks/internal/middleware"
	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/repository"
	"github.com/iliyamo/offer-stocks/internal/utils"
)

const demoOwner = uint64(1)

// seedDemo fills the memory store with one event offer and one digital
// thing, and logs a token for their owner outside production.
func seedDemo(m *repository.MemoryStore, cfg config.Config) {
	now := time.Now().UTC()
	m.PutOffer(model.Offer{ID: 1, OwnerID: demoOwner, Status: model.OfferStatusActive, IsEvent: true, DateCreated: now})
	m.PutOffer(model.Offer{ID: 2, OwnerID: demoOwner, Status: model.OfferStatusDraft, IsDigital: true, DateCreated: now})

	cats := []model.PriceCategory{
		m.AddPriceCategory(1, "Plein tarif", decimal.NewFromInt(25)),
		m.AddPriceCategory(1, "Tarif réduit", decimal.RequireFromString("12.50")),
	}
	loc := cfg.Location()
	day := time.Date(now.Year(), now.Month(), now.Day(), 20, 30, 0, 0, loc)
	for i := 0; i < 30; i++ {
		m.AddDatedStock(1, model.StockListRow{
			BeginningDatetime: day.AddDate(0, 0, i/2+1).Add(time.Duration(i%2) * -3 * time.Hour).UTC(),
			PriceCategoryID:   cats[i%2].ID,
			Quantity:          model.Ptr(100),
		})
	}

	if cfg.Env == "prod" || cfg.Env == "production" {
		return
	}
	tok, err := utils.NewAccessToken(cfg.JWTSecret, demoOwner, middleware.RoleOwner, 24*time.Hour)
	if err != nil {
		log.Printf("seed: token: %v", err)
		return
	}
	log.Printf("seed: demo owner %d token (expires %s): %s", demoOwner, tok.Exp.Format(time.RFC3339), tok.Token)
}
