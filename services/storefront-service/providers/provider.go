package providers

import (
	"context"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

// RateProvider looks up the destination hierarchy and courier quotes.
type RateProvider interface {
	Provinces(ctx context.Context) ([]models.Province, error)
	Cities(ctx context.Context, provinceID int64) ([]models.City, error)
	Districts(ctx context.Context, cityID int64) ([]models.District, error)
	Cost(ctx context.Context, origin, destination int64, weight int, courier string) ([]models.ShippingQuote, error)
}

// SnapGateway creates hosted-checkout transactions and reads their status.
type SnapGateway interface {
	CreateSnapTransaction(ctx context.Context, req SnapRequest) (*SnapResult, error)
	GetStatus(ctx context.Context, providerOrderID string) (*MidtransStatus, error)
	VerifySignature(n models.MidtransNotification) bool
}

// QRGateway creates e-wallet QR payments and polls their status.
type QRGateway interface {
	CreateQR(ctx context.Context, req QRRequest) (*QRResult, error)
	CheckStatus(ctx context.Context, transactionID string) (*QRStatus, error)
}
