package models

import "time"

const (
	EventOrderCreated         = "order_created"
	EventOrderItemsFailed     = "order_items_failed"
	EventOrderPaid            = "order_paid"
	EventPaymentStatusChanged = "payment_status_changed"
)

// OrderEvent is published to the orders topic.
type OrderEvent struct {
	EventType     string        `json:"event_type"`
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	CustomerEmail string        `json:"customer_email"`
	TotalAmount   int64         `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PromoCode     string        `json:"promo_code,omitempty"`
	Error         string        `json:"error,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// PaymentEvent is published to the payments topic on every state change.
type PaymentEvent struct {
	EventType      string          `json:"event_type"`
	TransactionID  string          `json:"transaction_id"`
	OrderID        string          `json:"order_id"`
	Provider       PaymentProvider `json:"provider"`
	From           PaymentStatus   `json:"from"`
	To             PaymentStatus   `json:"to"`
	ProviderStatus string          `json:"provider_status,omitempty"`
	Amount         int64           `json:"amount"`
	Timestamp      time.Time       `json:"timestamp"`
}
