package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
)

const (
	msgPromoInvalid   = "Kode promo tidak valid"
	msgPromoExpired   = "Kode promo sudah kadaluarsa"
	msgPromoExhausted = "Kode promo sudah mencapai batas penggunaan"
)

var idrPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah groups n the Indonesian way, e.g. 50000 -> "50.000".
func FormatRupiah(n int64) string {
	return idrPrinter.Sprintf("%d", n)
}

// PromoService validates promo codes and counts their use.
type PromoService interface {
	Validate(ctx context.Context, req *models.ValidatePromoRequest) (*models.AppliedPromo, *ServiceError)
	Increment(ctx context.Context, req *models.IncrementPromoRequest, idempotencyKey string) (bool, *ServiceError)
	RedeemForOrder(ctx context.Context, order *models.Order) (bool, error)
}

type promoServiceImpl struct {
	repo    repository.PromoRepository
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewPromoService(repo repository.PromoRepository, metrics *Metrics, logger *zap.Logger) PromoService {
	return &promoServiceImpl{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Validate checks a code against subtotal and computes the discount. The
// checks run in a fixed order: existence, window, usage cap, minimum purchase.
func (s *promoServiceImpl) Validate(ctx context.Context, req *models.ValidatePromoRequest) (*models.AppliedPromo, *ServiceError) {
	if strings.TrimSpace(req.Code) == "" || req.Subtotal <= 0 {
		return nil, badRequest("Missing required fields")
	}

	promo, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Error("Failed to load promo", zap.String("code", req.Code), zap.Error(err))
			return nil, internalError("Failed to validate promo code")
		}
		return nil, notFound(msgPromoInvalid)
	}

	if serr := checkEligibility(promo, req.Subtotal, s.now()); serr != nil {
		return nil, serr
	}

	return &models.AppliedPromo{
		ID:             promo.ID,
		Code:           promo.Code,
		Description:    promo.Description,
		DiscountType:   promo.DiscountType,
		DiscountValue:  promo.DiscountValue,
		DiscountAmount: promo.DiscountFor(req.Subtotal),
	}, nil
}

func checkEligibility(p *models.Promo, subtotal int64, now time.Time) *ServiceError {
	if !p.IsActive {
		return notFound(msgPromoInvalid)
	}
	if !p.InWindow(now) {
		return badRequest(msgPromoExpired)
	}
	if p.Exhausted() {
		return badRequest(msgPromoExhausted)
	}
	if subtotal < p.MinPurchase {
		return badRequest("Minimum pembelian untuk promo ini adalah Rp " + FormatRupiah(p.MinPurchase))
	}
	return nil
}

// Increment counts one use of a promo. The redemption key is order:{id} when
// an order is given, key:{idempotencyKey} when a key is given, and a fresh
// key otherwise.
func (s *promoServiceImpl) Increment(ctx context.Context, req *models.IncrementPromoRequest, idempotencyKey string) (bool, *ServiceError) {
	if strings.TrimSpace(req.PromoID) == "" {
		return false, badRequest("Missing promo_id")
	}
	promoID, err := uuid.Parse(req.PromoID)
	if err != nil {
		return false, badRequest("Invalid promo_id")
	}

	var orderID *uuid.UUID
	key := "key:" + shortuuid.New()
	switch {
	case req.OrderID != "":
		id, err := uuid.Parse(req.OrderID)
		if err != nil {
			return false, badRequest("Invalid order_id")
		}
		orderID = &id
		key = "order:" + id.String()
	case idempotencyKey != "":
		key = "key:" + idempotencyKey
	}

	counted, err := s.repo.Redeem(ctx, promoID, key, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPromoLimitReached) {
			s.metrics.PromoRedemption("limit_reached")
			return false, badRequest(msgPromoExhausted)
		}
		s.logger.Error("Failed to increment promo usage", zap.String("promo_id", req.PromoID), zap.Error(err))
		return false, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to increment promo usage"}
	}

	s.recordRedemption(counted)
	s.logger.Info("Promo usage incremented",
		zap.String("promo_id", req.PromoID),
		zap.String("redemption_key", key),
		zap.Bool("counted", counted),
	)
	return counted, nil
}

// RedeemForOrder counts the promo of a paid order under order:{id}. Orders
// without a promo are a no-op.
func (s *promoServiceImpl) RedeemForOrder(ctx context.Context, order *models.Order) (bool, error) {
	if order.PromoCode == "" {
		return false, nil
	}
	promo, err := s.repo.FindByCode(ctx, order.PromoCode)
	if err != nil {
		return false, err
	}
	counted, err := s.repo.Redeem(ctx, promo.ID, "order:"+order.ID.String(), &order.ID)
	if err != nil {
		if errors.Is(err, repository.ErrPromoLimitReached) {
			// the order was priced while the promo still had room
			s.logger.Warn("Promo limit reached at redemption",
				zap.String("order_id", order.ID.String()),
				zap.String("promo_code", order.PromoCode),
			)
			s.metrics.PromoRedemption("limit_reached")
			return false, nil
		}
		return false, err
	}
	s.recordRedemption(counted)
	return counted, nil
}

func (s *promoServiceImpl) recordRedemption(counted bool) {
	if counted {
		s.metrics.PromoRedemption("counted")
	} else {
		s.metrics.PromoRedemption("duplicate")
	}
}
