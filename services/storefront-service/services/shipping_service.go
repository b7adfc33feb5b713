package services

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
)

// MsgNoShippingServices is shown when a courier has no service for a route.
const MsgNoShippingServices = "Tidak ada layanan pengiriman tersedia"

// CostResult is the answer of a cost lookup. An empty Results carries
// MsgNoShippingServices in Message.
type CostResult struct {
	Results []models.ShippingQuote `json:"results"`
	Message string                 `json:"message,omitempty"`
}

// ShippingService resolves destinations and courier quotes.
type ShippingService interface {
	Provinces(ctx context.Context) ([]models.Province, *ServiceError)
	Cities(ctx context.Context, provinceID string) ([]models.City, *ServiceError)
	Districts(ctx context.Context, cityID string) ([]models.District, *ServiceError)
	Cost(ctx context.Context, req *models.ShippingCostRequest) (*CostResult, *ServiceError)
	Quote(ctx context.Context, destination int64, weight int, courier, service string) (*models.ShippingQuote, *ServiceError)
}

type shippingServiceImpl struct {
	provider      providers.RateProvider
	defaultOrigin int64
	metrics       *Metrics
	logger        *zap.Logger
}

// NewShippingService creates a ShippingService. provider may be nil when no
// API key is configured; every call then answers 503.
func NewShippingService(provider providers.RateProvider, defaultOrigin int64, metrics *Metrics, logger *zap.Logger) ShippingService {
	return &shippingServiceImpl{
		provider:      provider,
		defaultOrigin: defaultOrigin,
		metrics:       metrics,
		logger:        logger,
	}
}

var errShippingUnavailable = &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "API key not configured"}

func (s *shippingServiceImpl) Provinces(ctx context.Context) ([]models.Province, *ServiceError) {
	if s.provider == nil {
		return nil, errShippingUnavailable
	}
	provinces, err := s.provider.Provinces(ctx)
	if err != nil {
		s.logger.Error("Province fetch failed", zap.Error(err))
		return nil, upstreamError(err, "Failed to fetch provinces")
	}
	return provinces, nil
}

func (s *shippingServiceImpl) Cities(ctx context.Context, provinceID string) ([]models.City, *ServiceError) {
	if s.provider == nil {
		return nil, errShippingUnavailable
	}
	id, ok := parseRegionID(provinceID)
	if !ok {
		return nil, badRequest("province_id is required")
	}
	cities, err := s.provider.Cities(ctx, id)
	if err != nil {
		s.logger.Error("City fetch failed", zap.Int64("province_id", id), zap.Error(err))
		return nil, upstreamError(err, "Failed to fetch cities")
	}
	return cities, nil
}

func (s *shippingServiceImpl) Districts(ctx context.Context, cityID string) ([]models.District, *ServiceError) {
	if s.provider == nil {
		return nil, errShippingUnavailable
	}
	id, ok := parseRegionID(cityID)
	if !ok {
		return nil, badRequest("city_id is required")
	}
	districts, err := s.provider.Districts(ctx, id)
	if err != nil {
		s.logger.Error("District fetch failed", zap.Int64("city_id", id), zap.Error(err))
		return nil, upstreamError(err, "Failed to fetch districts")
	}
	return districts, nil
}

// Cost lists every service of the courier for the route. Origin defaults to
// the warehouse district.
func (s *shippingServiceImpl) Cost(ctx context.Context, req *models.ShippingCostRequest) (*CostResult, *ServiceError) {
	if s.provider == nil {
		return nil, errShippingUnavailable
	}
	origin := req.Origin
	if origin <= 0 {
		origin = s.defaultOrigin
	}
	courier := strings.ToLower(strings.TrimSpace(req.Courier))
	if origin <= 0 || req.Destination <= 0 || req.Weight <= 0 || !models.ValidCourier(courier) {
		return nil, badRequest("Missing required fields: origin, destination, weight, courier")
	}

	quotes, err := s.provider.Cost(ctx, origin, req.Destination, req.Weight, courier)
	if err != nil {
		s.logger.Error("Cost calculation failed",
			zap.Int64("origin", origin),
			zap.Int64("destination", req.Destination),
			zap.Int("weight", req.Weight),
			zap.String("courier", courier),
			zap.Error(err),
		)
		return nil, upstreamError(err, "Failed to calculate cost")
	}

	s.metrics.ShippingQuote(courier, len(quotes) == 0)
	if len(quotes) == 0 {
		return &CostResult{Results: []models.ShippingQuote{}, Message: MsgNoShippingServices}, nil
	}
	return &CostResult{Results: quotes}, nil
}

// Quote fetches a fresh cost list and returns the named service. The
// server-side checkout prices shipping with it instead of trusting the client.
func (s *shippingServiceImpl) Quote(ctx context.Context, destination int64, weight int, courier, service string) (*models.ShippingQuote, *ServiceError) {
	res, serr := s.Cost(ctx, &models.ShippingCostRequest{
		Destination: destination,
		Weight:      weight,
		Courier:     courier,
	})
	if serr != nil {
		return nil, serr
	}
	for i := range res.Results {
		if strings.EqualFold(res.Results[i].Service, service) {
			return &res.Results[i], nil
		}
	}
	if len(res.Results) == 0 {
		return nil, &ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: MsgNoShippingServices}
	}
	return nil, &ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: "Layanan pengiriman tidak tersedia: " + service}
}

func parseRegionID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
