package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentProvider names a gateway.
type PaymentProvider string

const (
	ProviderMidtrans PaymentProvider = "midtrans"
	ProviderCashify  PaymentProvider = "cashify"
)

// PaymentStatus is the local state of a provider transaction.
type PaymentStatus string

const (
	PaymentStatusInitiated        PaymentStatus = "initiated"
	PaymentStatusAwaitingProvider PaymentStatus = "awaiting_provider"
	PaymentStatusPending          PaymentStatus = "pending"
	PaymentStatusSucceeded        PaymentStatus = "succeeded"
	PaymentStatusFailed           PaymentStatus = "failed"
	PaymentStatusCancelled        PaymentStatus = "cancelled"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusInitiated:        {PaymentStatusAwaitingProvider, PaymentStatusFailed},
	PaymentStatusAwaitingProvider: {PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusPending:          {PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled},
}

// IsTerminal reports whether no further transition is possible.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether s may move to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Outcome is what the storefront does after a payment attempt settles.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

// OutcomeFor maps a transaction status to a checkout outcome.
func OutcomeFor(s PaymentStatus) Outcome {
	switch s {
	case PaymentStatusSucceeded:
		return OutcomeSuccess
	case PaymentStatusFailed, PaymentStatusCancelled:
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

// ClearsCart reports whether the client should empty its cart.
func (o Outcome) ClearsCart() bool {
	return o == OutcomeSuccess || o == OutcomePending
}

// PaymentTransaction correlates an order with one provider transaction.
type PaymentTransaction struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID               uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Provider              PaymentProvider `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderOrderID       string          `gorm:"type:varchar(64);index" json:"provider_order_id,omitempty"`
	ProviderTransactionID string          `gorm:"type:varchar(128);index" json:"provider_transaction_id,omitempty"`
	IdempotencyKey        string          `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	Amount                int64           `gorm:"not null" json:"amount"`
	Status                PaymentStatus   `gorm:"type:varchar(24);not null;default:'initiated'" json:"status"`
	ProviderStatus        string          `json:"provider_status,omitempty"`
	Token                 string          `json:"token,omitempty"`
	RedirectURL           string          `json:"redirect_url,omitempty"`
	QRString              string          `gorm:"type:text" json:"qr_string,omitempty"`
	EwalletType           string          `json:"ewallet_type,omitempty"`
	FailureReason         string          `json:"failure_reason,omitempty"`
	SettledAt             *time.Time      `json:"settled_at,omitempty"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentCustomer is the payer as sent to a gateway.
type PaymentCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// SnapPaymentRequest is the payload of POST /payment/snap. The amount is
// always taken from the stored order.
type SnapPaymentRequest struct {
	OrderID        string           `json:"order_id" binding:"required,uuid"`
	Amount         int64            `json:"amount"`
	Customer       *PaymentCustomer `json:"customer"`
	IdempotencyKey string           `json:"idempotency_key"`
}

// CashifyPaymentRequest is the payload of POST /payment/cashify.
type CashifyPaymentRequest struct {
	OrderID        string `json:"order_id" binding:"required,uuid"`
	Amount         int64  `json:"amount"`
	EwalletType    string `json:"ewalletType" binding:"omitempty,oneof=dana ovo shopeepay gopay qris"`
	IdempotencyKey string `json:"idempotency_key"`
}

// PaymentStatusRequest is the payload of POST /payment/status.
type PaymentStatusRequest struct {
	TransactionID string `json:"transactionId"`
	OrderID       string `json:"order_id"`
}

// PaymentCallbackRequest is what the Snap client reports when its UI closes.
type PaymentCallbackRequest struct {
	OrderID    string `json:"order_id" binding:"required"`
	Event      string `json:"event" binding:"required,oneof=success pending error close"`
	StatusCode string `json:"status_code"`
}

// MidtransNotification is the HTTP notification body Midtrans posts.
type MidtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
	StatusMessage     string `json:"status_message"`
}

// PaymentResponse is the client facing view of a transaction.
type PaymentResponse struct {
	TransactionID   string        `json:"transaction_id"`
	OrderID         string        `json:"order_id"`
	ProviderOrderID string        `json:"provider_order_id,omitempty"`
	Status          PaymentStatus `json:"status"`
	Outcome         Outcome       `json:"outcome"`
	ClearCart       bool          `json:"clear_cart"`
	Amount          int64         `json:"amount"`
	Token           string        `json:"token,omitempty"`
	RedirectURL     string        `json:"redirect_url,omitempty"`
	QRString        string        `json:"qr_string,omitempty"`
	QRImageURL      string        `json:"qr_image_url,omitempty"`
	Message         string        `json:"message,omitempty"`
}
