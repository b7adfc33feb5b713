package workers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	aws_pkg "github.com/tobaccostore/backend/pkg/aws"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

// Poller delivers queue message bodies to a handler until ctx is done.
type Poller interface {
	StartPolling(ctx context.Context, handler aws_pkg.MessageHandler) error
}

// PromoRedemptionWorker counts promo usage for paid orders. It consumes
// order_paid events fanned out from the orders topic.
type PromoRedemptionWorker struct {
	poller Poller
	orders services.OrderService
	promos services.PromoService
	logger *zap.Logger
}

func NewPromoRedemptionWorker(poller Poller, orders services.OrderService, promos services.PromoService, logger *zap.Logger) *PromoRedemptionWorker {
	return &PromoRedemptionWorker{poller: poller, orders: orders, promos: promos, logger: logger}
}

// Start blocks until ctx is cancelled.
func (w *PromoRedemptionWorker) Start(ctx context.Context) {
	w.logger.Info("Starting promo redemption consumer")
	err := w.poller.StartPolling(ctx, w.HandleMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("Promo redemption consumer stopped", zap.Error(err))
	}
}

// HandleMessage redeems the promo of one order_paid event. Malformed and
// unrelated messages are dropped; lookup failures are returned so the
// message is redelivered.
func (w *PromoRedemptionWorker) HandleMessage(ctx context.Context, body string) error {
	body = aws_pkg.UnwrapSNSMessage(body)

	var evt models.OrderEvent
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		w.logger.Warn("Dropping malformed order event", zap.Error(err))
		return nil
	}
	if evt.EventType != models.EventOrderPaid {
		return nil
	}
	if evt.OrderID == "" {
		w.logger.Warn("Dropping order_paid event without order_id")
		return nil
	}
	if evt.PromoCode == "" {
		return nil
	}

	order, svcErr := w.orders.GetOrder(ctx, evt.OrderID)
	if svcErr != nil {
		if svcErr.StatusCode == http.StatusNotFound || svcErr.StatusCode == http.StatusBadRequest {
			w.logger.Warn("Dropping order_paid event for unknown order",
				zap.String("order_id", evt.OrderID),
				zap.String("reason", svcErr.Message),
			)
			return nil
		}
		return svcErr
	}

	counted, err := w.promos.RedeemForOrder(ctx, order)
	if err != nil {
		if repository.IsNotFound(err) {
			w.logger.Warn("Promo of paid order no longer exists",
				zap.String("order_id", evt.OrderID),
				zap.String("promo_code", order.PromoCode),
			)
			return nil
		}
		w.logger.Error("Promo redemption failed", zap.String("order_id", evt.OrderID), zap.Error(err))
		return err
	}

	w.logger.Info("Promo redeemed for paid order",
		zap.String("order_id", evt.OrderID),
		zap.String("promo_code", order.PromoCode),
		zap.Bool("counted", counted),
	)
	return nil
}
