package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/common/logger"
	"github.com/tobaccostore/backend/services/storefront-service/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

type PaymentController struct {
	paymentService services.PaymentService
	logger         *zap.Logger
}

func NewPaymentController(paymentService services.PaymentService, logger *zap.Logger) *PaymentController {
	return &PaymentController{paymentService: paymentService, logger: logger}
}

// CreateSnap handles POST /payment/snap. The Idempotency-Key header takes
// precedence over the idempotency_key body field.
func (pc *PaymentController) CreateSnap(ctx *gin.Context) {
	var req models.SnapPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, svcErr := pc.paymentService.CreateSnap(ctx.Request.Context(), &req, middleware.IdempotencyKey(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateCashify handles POST /payment/cashify.
func (pc *PaymentController) CreateCashify(ctx *gin.Context) {
	var req models.CashifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, svcErr := pc.paymentService.CreateCashify(ctx.Request.Context(), &req, middleware.IdempotencyKey(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Status handles POST /payment/status and /payment/cashify/status.
func (pc *PaymentController) Status(ctx *gin.Context) {
	var req models.PaymentStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, svcErr := pc.paymentService.CheckStatus(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// QRImage handles GET /payment/cashify/:transaction_id/qr.png.
func (pc *PaymentController) QRImage(ctx *gin.Context) {
	png, svcErr := pc.paymentService.QRImage(ctx.Request.Context(), ctx.Param("transaction_id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.Header("Cache-Control", "private, max-age=300")
	ctx.Data(http.StatusOK, "image/png", png)
}

// Callback handles POST /payment/callback, the Snap UI result.
func (pc *PaymentController) Callback(ctx *gin.Context) {
	var req models.PaymentCallbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	logger.Info(ctx, "Snap callback received",
		zap.String("order_id", req.OrderID),
		zap.String("event", req.Event),
	)
	resp, svcErr := pc.paymentService.HandleCallback(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// MidtransNotification handles POST /payment/midtrans/notification.
// Midtrans retries anything but a 2xx, so accepted and ignored events both
// answer 200.
func (pc *PaymentController) MidtransNotification(ctx *gin.Context) {
	var n models.MidtransNotification
	if err := ctx.ShouldBindJSON(&n); err != nil {
		pc.logger.Warn("Malformed Midtrans notification", zap.Error(err))
		respondBindError(ctx, err)
		return
	}

	pc.logger.Info("Processing Midtrans notification",
		zap.String("order_id", n.OrderID),
		zap.String("transaction_status", n.TransactionStatus),
	)

	if svcErr := pc.paymentService.HandleNotification(ctx.Request.Context(), &n); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "received"})
}
