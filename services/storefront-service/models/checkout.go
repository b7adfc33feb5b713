package models

// CheckoutRequest is the payload of POST /checkout. Prices, shipping and
// discount are computed on the server.
type CheckoutRequest struct {
	CustomerName    string             `json:"customer_name" binding:"required"`
	CustomerEmail   string             `json:"customer_email" binding:"required,email"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerAddress string             `json:"customer_address" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ProvinceID      int64              `json:"province_id" binding:"required,gt=0"`
	CityID          int64              `json:"city_id" binding:"required,gt=0"`
	DistrictID      int64              `json:"district_id" binding:"required,gt=0"`
	Courier         string             `json:"courier" binding:"required,courier"`
	Service         string             `json:"service" binding:"required"`
	PromoCode       string             `json:"promo_code"`
	PaymentMethod   PaymentMethod      `json:"payment_method" binding:"omitempty,payment_method"`
	EwalletType     string             `json:"ewalletType" binding:"omitempty,oneof=dana ovo shopeepay gopay qris"`
}

// RetryPaymentRequest is the payload of POST /checkout/:order_id/payment.
type RetryPaymentRequest struct {
	EwalletType    string `json:"ewalletType" binding:"omitempty,oneof=dana ovo shopeepay gopay qris"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CheckoutResponse reports every stage of a checkout. When the order was
// created but the payment could not be started, OrderCreated is true and
// PaymentError carries the reason; the order stays pending.
type CheckoutResponse struct {
	Order          *Order           `json:"order,omitempty"`
	OrderCreated   bool             `json:"order_created"`
	ItemsPersisted bool             `json:"items_persisted"`
	Warning        string           `json:"warning,omitempty"`
	Address        string           `json:"address,omitempty"`
	Shipping       *ShippingQuote   `json:"shipping,omitempty"`
	Promo          *AppliedPromo    `json:"promo,omitempty"`
	PromoMessage   string           `json:"promo_message,omitempty"`
	Payment        *PaymentResponse `json:"payment,omitempty"`
	PaymentError   string           `json:"payment_error,omitempty"`
	Retryable      bool             `json:"retryable,omitempty"`
	Outcome        Outcome          `json:"outcome"`
	ClearCart      bool             `json:"clear_cart"`
}
