package main

import (
	"github.com/redis/go-redis/v9"

	"github.com/tobaccostore/backend/services/storefront-service/cache"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
)

// gateways holds the upstream clients. A client whose key is not configured
// stays nil so the services answer 503 instead of calling out unauthenticated.
type gateways struct {
	regions providers.RateProvider
	snap    providers.SnapGateway
	qr      providers.QRGateway
}

func newGateways(cfg *Config, redisClient *redis.Client) gateways {
	var g gateways
	if cfg.RajaOngkirKey != "" {
		g.regions = cache.NewRegionCache(
			providers.NewRajaOngkirProvider(cfg.RajaOngkirKey, cfg.RajaOngkirBaseURL),
			redisClient,
			cache.DefaultRegionTTL,
		)
	}
	if cfg.MidtransServerKey != "" {
		g.snap = providers.NewMidtransProvider(cfg.MidtransServerKey, cfg.MidtransProduction)
	}
	if cfg.CashifyLicenseKey != "" {
		g.qr = providers.NewCashifyProvider(cfg.CashifyLicenseKey, cfg.CashifyBaseURL)
	}
	return g
}
