package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/common/logger"
	"github.com/tobaccostore/backend/services/storefront-service/checkout"
	"github.com/tobaccostore/backend/services/storefront-service/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/models"
)

type CheckoutController struct {
	checkoutService checkout.Service
}

func NewCheckoutController(checkoutService checkout.Service) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// Checkout handles POST /checkout. Once the order exists the answer is 201,
// also when the payment could not be started; the body then carries
// payment_error and the order can be paid through RetryPayment.
func (cc *CheckoutController) Checkout(ctx *gin.Context) {
	var req models.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, svcErr := cc.checkoutService.Checkout(ctx.Request.Context(), &req, middleware.UserID(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	if resp.PaymentError != "" {
		logger.Warn(ctx, "Order created without payment",
			zap.String("payment_error", resp.PaymentError),
			zap.Bool("retryable", resp.Retryable),
		)
	}
	ctx.JSON(http.StatusCreated, resp)
}

// RetryPayment handles POST /checkout/:order_id/payment.
func (cc *CheckoutController) RetryPayment(ctx *gin.Context) {
	var req models.RetryPaymentRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			respondBindError(ctx, err)
			return
		}
	}
	if key := middleware.IdempotencyKey(ctx); key != "" {
		req.IdempotencyKey = key
	}

	resp, svcErr := cc.checkoutService.RetryPayment(ctx.Request.Context(), ctx.Param("order_id"), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
