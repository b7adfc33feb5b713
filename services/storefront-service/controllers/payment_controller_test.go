package controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/storefront-service/controllers"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

func setupPaymentRouter(svc services.PaymentService) *gin.Engine {
	r := gin.New()
	pc := controllers.NewPaymentController(svc, zap.NewNop())
	r.POST("/payment/snap", pc.CreateSnap)
	r.POST("/payment/cashify", pc.CreateCashify)
	r.POST("/payment/status", pc.Status)
	r.POST("/payment/cashify/status", pc.Status)
	r.GET("/payment/cashify/:transaction_id/qr.png", pc.QRImage)
	r.POST("/payment/callback", pc.Callback)
	r.POST("/payment/midtrans/notification", pc.MidtransNotification)
	return r
}

func TestPaymentController_CreateSnap(t *testing.T) {
	var gotKey string
	svc := &stubPayments{
		snapFn: func(_ context.Context, req *models.SnapPaymentRequest, key string) (*models.PaymentResponse, *services.ServiceError) {
			gotKey = key
			if req.Amount < 0 {
				return nil, &services.ServiceError{StatusCode: http.StatusBadGateway, Message: "Payment gateway error: 500", Retryable: true}
			}
			return &models.PaymentResponse{
				OrderID:     req.OrderID,
				Status:      models.PaymentStatusAwaitingProvider,
				Token:       "snap-token",
				RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token",
			}, nil
		},
	}
	r := setupPaymentRouter(svc)
	orderID := uuid.NewString()

	w := doJSON(r, http.MethodPost, "/payment/snap", models.SnapPaymentRequest{OrderID: orderID}, map[string]string{"Idempotency-Key": "pay-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pay-1", gotKey)
	resp := decode(w)
	assert.Equal(t, "snap-token", resp["token"])
	assert.NotEmpty(t, resp["redirect_url"])

	w = doJSON(r, http.MethodPost, "/payment/snap", models.SnapPaymentRequest{OrderID: orderID, Amount: -1}, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Payment gateway error: 500", decode(w)["error"])
	assert.Equal(t, true, decode(w)["retryable"])
	assert.Empty(t, gotKey)

	w = doJSON(r, http.MethodPost, "/payment/snap", models.SnapPaymentRequest{OrderID: "not-a-uuid"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentController_CreateCashify(t *testing.T) {
	svc := &stubPayments{
		cashifyFn: func(_ context.Context, req *models.CashifyPaymentRequest, key string) (*models.PaymentResponse, *services.ServiceError) {
			return &models.PaymentResponse{
				TransactionID: "CFY-1",
				QRString:      "000201",
				QRImageURL:    "/payment/cashify/CFY-1/qr.png",
				Amount:        165123,
			}, nil
		},
	}
	r := setupPaymentRouter(svc)

	w := doJSON(r, http.MethodPost, "/payment/cashify", models.CashifyPaymentRequest{OrderID: uuid.NewString(), EwalletType: "dana"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CFY-1", decode(w)["transaction_id"])

	w = doJSON(r, http.MethodPost, "/payment/cashify", models.CashifyPaymentRequest{OrderID: uuid.NewString(), EwalletType: "paypal"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentController_Status(t *testing.T) {
	svc := &stubPayments{
		statusFn: func(_ context.Context, req *models.PaymentStatusRequest) (*models.PaymentResponse, *services.ServiceError) {
			if req.TransactionID == "" && req.OrderID == "" {
				return nil, &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Missing transactionId"}
			}
			return &models.PaymentResponse{TransactionID: req.TransactionID, Status: models.PaymentStatusSucceeded, Outcome: models.OutcomeSuccess, ClearCart: true}, nil
		},
	}
	r := setupPaymentRouter(svc)

	w := doJSON(r, http.MethodPost, "/payment/cashify/status", models.PaymentStatusRequest{TransactionID: "CFY-1"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(w)["clear_cart"])

	w = doJSON(r, http.MethodPost, "/payment/status", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing transactionId", decode(w)["error"])
}

func TestPaymentController_QRImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	svc := &stubPayments{
		qrFn: func(_ context.Context, id string) ([]byte, *services.ServiceError) {
			if id != "CFY-1" {
				return nil, &services.ServiceError{StatusCode: http.StatusNotFound, Message: "Transaction not found"}
			}
			return png, nil
		},
	}
	r := setupPaymentRouter(svc)

	w := doJSON(r, http.MethodGet, "/payment/cashify/CFY-1/qr.png", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())

	w = doJSON(r, http.MethodGet, "/payment/cashify/CFY-9/qr.png", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentController_Callback(t *testing.T) {
	svc := &stubPayments{
		callbackFn: func(_ context.Context, req *models.PaymentCallbackRequest) (*models.PaymentResponse, *services.ServiceError) {
			return &models.PaymentResponse{OrderID: req.OrderID, Status: models.PaymentStatusPending, Outcome: models.OutcomePending}, nil
		},
	}
	r := setupPaymentRouter(svc)

	w := doJSON(r, http.MethodPost, "/payment/callback", models.PaymentCallbackRequest{OrderID: "TBS-ORD-1-1", Event: "pending"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode(w)["outcome"])

	w = doJSON(r, http.MethodPost, "/payment/callback", models.PaymentCallbackRequest{OrderID: "TBS-ORD-1-1", Event: "refund"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentController_MidtransNotification(t *testing.T) {
	var got *models.MidtransNotification
	svc := &stubPayments{
		notificationFn: func(_ context.Context, n *models.MidtransNotification) *services.ServiceError {
			if n.SignatureKey != "valid" {
				return &services.ServiceError{StatusCode: http.StatusUnauthorized, Message: "Invalid signature"}
			}
			got = n
			return nil
		},
	}
	r := setupPaymentRouter(svc)
	n := models.MidtransNotification{
		OrderID:           "TBS-ORD-1-1",
		StatusCode:        "200",
		GrossAmount:       "165000.00",
		SignatureKey:      "valid",
		TransactionStatus: "settlement",
	}

	w := doJSON(r, http.MethodPost, "/payment/midtrans/notification", n, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "settlement", got.TransactionStatus)

	n.SignatureKey = "forged"
	w = doJSON(r, http.MethodPost, "/payment/midtrans/notification", n, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
