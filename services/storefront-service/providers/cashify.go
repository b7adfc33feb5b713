package providers

import (
	"context"
	"net/http"
	"strings"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

const CashifyBaseURL = "https://api.cashify.my.id/v1"

// CashifyProvider implements QRGateway.
type CashifyProvider struct {
	http httpClient
}

// NewCashifyProvider creates a provider. An empty baseURL selects the public
// endpoint.
func NewCashifyProvider(licenseKey, baseURL string) *CashifyProvider {
	if baseURL == "" {
		baseURL = CashifyBaseURL
	}
	return &CashifyProvider{
		http: newHTTPClient("cashify", baseURL, func(r *http.Request) {
			r.Header.Set("x-license-key", licenseKey)
		}),
	}
}

// QRRequest is the input of CreateQR.
type QRRequest struct {
	OrderID     string
	Amount      int64
	EwalletType string
}

// QRResult is the payable artifact of a QR payment. TotalAmount may include
// a unique code added by the provider.
type QRResult struct {
	TransactionID string
	QRString      string
	RedirectURL   string
	TotalAmount   int64
}

// QRStatus is the provider's view of a QR payment.
type QRStatus struct {
	TransactionID string
	RawStatus     string
	Status        models.PaymentStatus
}

// ---- Cashify API structs ----

type cashifyGenerateRequest struct {
	OrderID       string `json:"order_id"`
	Amount        int64  `json:"amount"`
	EwalletType   string `json:"ewalletType,omitempty"`
	UseUniqueCode bool   `json:"useUniqueCode"`
}

type cashifyGenerateResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TransactionID string `json:"transactionId"`
		QRString      string `json:"qr_string"`
		RedirectURL   string `json:"redirect_url"`
		TotalAmount   int64  `json:"totalAmount"`
	} `json:"data"`
}

type cashifyStatusRequest struct {
	TransactionID string `json:"transactionId"`
}

type cashifyStatusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TransactionID string `json:"transactionId"`
		Status        string `json:"status"`
	} `json:"data"`
}

// ---- QRGateway implementation ----

// CreateQR generates a QR payment. It is never retried.
func (p *CashifyProvider) CreateQR(ctx context.Context, req QRRequest) (*QRResult, error) {
	body := cashifyGenerateRequest{
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		EwalletType:   req.EwalletType,
		UseUniqueCode: true,
	}
	var resp cashifyGenerateResponse
	if err := p.http.doRequest(ctx, http.MethodPost, "/qris/generate", body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 0 && resp.Status != http.StatusOK {
		return nil, &BusinessError{Provider: "cashify", Code: resp.Status, Message: resp.Message}
	}
	if resp.Data.TransactionID == "" {
		return nil, &BusinessError{Provider: "cashify", Code: resp.Status, Message: "missing transaction id"}
	}

	total := resp.Data.TotalAmount
	if total == 0 {
		total = req.Amount
	}
	return &QRResult{
		TransactionID: resp.Data.TransactionID,
		QRString:      resp.Data.QRString,
		RedirectURL:   resp.Data.RedirectURL,
		TotalAmount:   total,
	}, nil
}

// CheckStatus polls the provider. It is idempotent.
func (p *CashifyProvider) CheckStatus(ctx context.Context, transactionID string) (*QRStatus, error) {
	var resp cashifyStatusResponse
	body := cashifyStatusRequest{TransactionID: transactionID}
	if err := p.http.doRequest(ctx, http.MethodPost, "/qris/status", body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 0 && resp.Status != http.StatusOK {
		return nil, &BusinessError{Provider: "cashify", Code: resp.Status, Message: resp.Message}
	}
	return &QRStatus{
		TransactionID: transactionID,
		RawStatus:     resp.Data.Status,
		Status:        MapCashifyStatus(resp.Data.Status),
	}, nil
}

// MapCashifyStatus treats paid, success and settlement as succeeded and the
// explicit failure words as failed. Everything else is still pending.
func MapCashifyStatus(status string) models.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid", "success", "settlement":
		return models.PaymentStatusSucceeded
	case "failed", "expired", "cancelled", "canceled":
		return models.PaymentStatusFailed
	}
	return models.PaymentStatusPending
}
