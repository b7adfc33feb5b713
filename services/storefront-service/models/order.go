package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusCompleted OrderStatus = "completed"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	PaymentMethodMidtrans PaymentMethod = "midtrans"
	PaymentMethodCashify  PaymentMethod = "cashify"
	PaymentMethodCOD      PaymentMethod = "cod"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodMidtrans, PaymentMethodCashify, PaymentMethodCOD:
		return true
	}
	return false
}

// DefaultItemWeightGrams is used for shipping when an item carries no weight.
const DefaultItemWeightGrams = 100

var ErrInvalidTransition = errors.New("invalid order status transition")

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusCompleted},
}

// CanTransition reports whether an order may move from one status to another.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order is a placed checkout. Money fields are whole rupiah.
type Order struct {
	ID                  uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber         string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	UserID              *int64        `gorm:"index" json:"user_id,omitempty"`
	CustomerName        string        `gorm:"not null" json:"customer_name"`
	CustomerEmail       string        `gorm:"not null;index" json:"customer_email"`
	CustomerPhone       string        `json:"customer_phone"`
	CustomerAddress     string        `gorm:"type:text" json:"customer_address"`
	Subtotal            int64         `gorm:"not null" json:"subtotal"`
	ShippingCost        int64         `gorm:"not null;default:0" json:"shipping_cost"`
	ShippingService     string        `json:"shipping_service"`
	ShippingDestination string        `json:"shipping_destination"`
	PromoCode           string        `json:"promo_code,omitempty"`
	DiscountAmount      int64         `gorm:"not null;default:0" json:"discount_amount"`
	TotalAmount         int64         `gorm:"not null" json:"total_amount"`
	Status              OrderStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod       PaymentMethod `gorm:"type:varchar(20);not null;default:'midtrans'" json:"payment_method"`
	PaidAt              *time.Time    `json:"paid_at,omitempty"`
	CancelledAt         *time.Time    `json:"cancelled_at,omitempty"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
	CreatedAt           time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	Items               []OrderItem   `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem is a line of an order with the unit price captured at purchase time.
type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   int64     `gorm:"not null" json:"product_id"`
	ProductName string    `gorm:"not null" json:"product_name"`
	Quantity    int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price       int64     `gorm:"not null" json:"price"`
	Weight      int       `gorm:"not null;default:0" json:"weight"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// LineTotal is quantity times unit price.
func (i OrderItem) LineTotal() int64 {
	return int64(i.Quantity) * i.Price
}

// ShippingWeight is the item weight in grams for courier quotes.
func (i OrderItem) ShippingWeight() int {
	w := i.Weight
	if w <= 0 {
		w = DefaultItemWeightGrams
	}
	return w * i.Quantity
}

// Subtotal sums the line totals of items.
func Subtotal(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// TotalWeight is the parcel weight in grams, never below 1.
func TotalWeight(items []OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.ShippingWeight()
	}
	if total < 1 {
		total = 1
	}
	return total
}

// ComputeTotal returns subtotal + shipping - discount and rejects negative totals.
func ComputeTotal(subtotal, shipping, discount int64) (int64, error) {
	if subtotal < 0 || shipping < 0 || discount < 0 {
		return 0, fmt.Errorf("amounts must not be negative")
	}
	total := subtotal + shipping - discount
	if total < 0 {
		return 0, fmt.Errorf("discount %d exceeds order value %d", discount, subtotal+shipping)
	}
	return total, nil
}

// NewOrderNumber formats the human readable order number for t.
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%d", t.UnixMilli())
}

// OrderItemRequest is one cart line sent by the client.
type OrderItemRequest struct {
	ProductID   int64  `json:"product_id" binding:"required"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Price       int64  `json:"price" binding:"gte=0"`
	Weight      int    `json:"weight" binding:"gte=0"`
}

// CreateOrderRequest is the payload of POST /orders.
type CreateOrderRequest struct {
	CustomerName        string             `json:"customer_name"`
	CustomerEmail       string             `json:"customer_email"`
	CustomerPhone       string             `json:"customer_phone"`
	CustomerAddress     string             `json:"customer_address"`
	Items               []OrderItemRequest `json:"items" binding:"dive"`
	ShippingCost        int64              `json:"shipping_cost" binding:"gte=0"`
	ShippingService     string             `json:"shipping_service"`
	ShippingDestination string             `json:"shipping_destination"`
	PromoCode           string             `json:"promo_code"`
	DiscountAmount      int64              `json:"discount_amount" binding:"gte=0"`
	TotalAmount         int64              `json:"total_amount"`
	PaymentMethod       PaymentMethod      `json:"payment_method" binding:"omitempty,payment_method"`
}

// CreateOrderResult is what order creation reports back.
type CreateOrderResult struct {
	Order          *Order `json:"order"`
	ItemsPersisted bool   `json:"items_persisted"`
	Warning        string `json:"warning,omitempty"`
}
