package providers

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

const (
	midtransSnapSandbox    = "https://app.sandbox.midtrans.com/snap/v1"
	midtransSnapProduction = "https://app.midtrans.com/snap/v1"
	midtransAPISandbox     = "https://api.sandbox.midtrans.com/v2"
	midtransAPIProduction  = "https://api.midtrans.com/v2"

	defaultCustomerPhone = "+62812345678"
	maxItemNameLength    = 50
)

// MidtransProvider implements SnapGateway.
type MidtransProvider struct {
	serverKey string
	snap      httpClient
	api       httpClient
	now       func() time.Time
}

// MidtransOption customises a MidtransProvider.
type MidtransOption func(*MidtransProvider)

// WithMidtransURLs overrides the Snap and core API base URLs.
func WithMidtransURLs(snapURL, apiURL string) MidtransOption {
	return func(p *MidtransProvider) {
		p.snap.baseURL = snapURL
		p.api.baseURL = apiURL
	}
}

// NewMidtransProvider creates a provider for the sandbox, or production when
// production is true.
func NewMidtransProvider(serverKey string, production bool, opts ...MidtransOption) *MidtransProvider {
	snapURL, apiURL := midtransSnapSandbox, midtransAPISandbox
	if production {
		snapURL, apiURL = midtransSnapProduction, midtransAPIProduction
	}
	auth := func(r *http.Request) {
		r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(serverKey+":")))
	}
	p := &MidtransProvider{
		serverKey: serverKey,
		snap:      newHTTPClient("midtrans", snapURL, auth),
		api:       newHTTPClient("midtrans", apiURL, auth),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SnapItem is one item_details line. Price may be negative for discounts.
type SnapItem struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// SnapRequest is the input of CreateSnapTransaction. OrderRef is the local
// reference the provider order id is derived from.
type SnapRequest struct {
	OrderRef string
	Amount   int64
	Customer models.PaymentCustomer
	Items    []SnapItem
}

// SnapResult is the payable artifact of a Snap transaction.
type SnapResult struct {
	Token           string
	RedirectURL     string
	ProviderOrderID string
}

// MidtransStatus is the answer of the status API.
type MidtransStatus struct {
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
}

// ---- Snap API structs ----

type snapTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type snapBillingAddress struct {
	Address string `json:"address,omitempty"`
}

type snapCustomerDetails struct {
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone"`
	BillingAddress *snapBillingAddress `json:"billing_address,omitempty"`
}

type snapCreditCard struct {
	Secure bool `json:"secure"`
}

type snapTransactionRequest struct {
	TransactionDetails snapTransactionDetails `json:"transaction_details"`
	CustomerDetails    snapCustomerDetails    `json:"customer_details"`
	ItemDetails        []SnapItem             `json:"item_details,omitempty"`
	CreditCard         snapCreditCard         `json:"credit_card"`
}

type snapTransactionResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// ---- SnapGateway implementation ----

// CreateSnapTransaction exchanges an order for a Snap token. It is never
// retried.
func (p *MidtransProvider) CreateSnapTransaction(ctx context.Context, req SnapRequest) (*SnapResult, error) {
	now := p.now()
	providerOrderID := fmt.Sprintf("TBS-%s-%d", req.OrderRef, now.UnixMilli())

	body := snapTransactionRequest{
		TransactionDetails: snapTransactionDetails{
			OrderID:     providerOrderID,
			GrossAmount: req.Amount,
		},
		CustomerDetails: p.customerDetails(req.Customer, now),
		ItemDetails:     normalizeItems(req.Items),
		CreditCard:      snapCreditCard{Secure: true},
	}

	var resp snapTransactionResponse
	if err := p.snap.doRequest(ctx, http.MethodPost, "/transactions", body, &resp); err != nil {
		return nil, err
	}

	return &SnapResult{
		Token:           resp.Token,
		RedirectURL:     resp.RedirectURL,
		ProviderOrderID: providerOrderID,
	}, nil
}

// GetStatus reads the transaction status. It is idempotent.
func (p *MidtransProvider) GetStatus(ctx context.Context, providerOrderID string) (*MidtransStatus, error) {
	var status MidtransStatus
	path := "/" + url.PathEscape(providerOrderID) + "/status"
	if err := p.api.doRequest(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	if status.StatusCode == "404" {
		return nil, &BusinessError{Provider: "midtrans", Code: http.StatusNotFound, Message: status.StatusMessage}
	}
	return &status, nil
}

// VerifySignature checks SHA512(order_id + status_code + gross_amount + server_key).
func (p *MidtransProvider) VerifySignature(n models.MidtransNotification) bool {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + p.serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SignatureKey))) == 1
}

func (p *MidtransProvider) customerDetails(c models.PaymentCustomer, now time.Time) snapCustomerDetails {
	first, last := SplitName(c.Name)
	email := c.Email
	if email == "" {
		email = fmt.Sprintf("customer-%d@example.com", now.UnixMilli())
	}
	phone := c.Phone
	if phone == "" {
		phone = defaultCustomerPhone
	}
	details := snapCustomerDetails{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     phone,
	}
	if c.Address != "" {
		details.BillingAddress = &snapBillingAddress{Address: c.Address}
	}
	return details
}

// SplitName returns the first word of name and the remainder. An empty name
// becomes "Customer".
func SplitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Customer", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func normalizeItems(items []SnapItem) []SnapItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]SnapItem, len(items))
	for i, it := range items {
		if r := []rune(it.Name); len(r) > maxItemNameLength {
			it.Name = string(r[:maxItemNameLength])
		}
		out[i] = it
	}
	return out
}

// MapMidtransStatus maps transaction_status and fraud_status to a local
// status. Unknown statuses report false.
func MapMidtransStatus(transactionStatus, fraudStatus string) (models.PaymentStatus, bool) {
	switch strings.ToLower(transactionStatus) {
	case "settlement":
		return models.PaymentStatusSucceeded, true
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "", "accept":
			return models.PaymentStatusSucceeded, true
		case "challenge":
			return models.PaymentStatusPending, true
		case "deny":
			return models.PaymentStatusFailed, true
		}
		return "", false
	case "pending", "authorize":
		return models.PaymentStatusPending, true
	case "deny", "expire", "failure":
		return models.PaymentStatusFailed, true
	case "cancel":
		return models.PaymentStatusCancelled, true
	}
	return "", false
}
