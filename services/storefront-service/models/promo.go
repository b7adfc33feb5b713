package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DiscountType is how a promo reduces the subtotal.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Promo is a discount code. Codes are stored upper-case.
type Promo struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Description   string       `json:"description"`
	DiscountType  DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue float64      `gorm:"not null" json:"discount_value"`
	MaxDiscount   *int64       `json:"max_discount,omitempty"`
	MinPurchase   int64        `gorm:"not null;default:0" json:"min_purchase"`
	ValidFrom     time.Time    `gorm:"not null" json:"valid_from"`
	ValidUntil    time.Time    `gorm:"not null" json:"valid_until"`
	UsageLimit    *int         `json:"usage_limit,omitempty"`
	UsedCount     int          `gorm:"not null;default:0" json:"used_count"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// InWindow reports whether t falls inside [ValidFrom, ValidUntil].
func (p *Promo) InWindow(t time.Time) bool {
	return !t.Before(p.ValidFrom) && !t.After(p.ValidUntil)
}

// Exhausted reports whether the usage cap has been reached.
func (p *Promo) Exhausted() bool {
	return p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit
}

// DiscountFor computes the discount for subtotal without checking eligibility.
// Percentages round half away from zero; the result never exceeds subtotal.
func (p *Promo) DiscountFor(subtotal int64) int64 {
	var discount int64
	switch p.DiscountType {
	case DiscountTypePercentage:
		discount = int64(math.Round(float64(subtotal) * p.DiscountValue / 100))
		if p.MaxDiscount != nil && discount > *p.MaxDiscount {
			discount = *p.MaxDiscount
		}
	case DiscountTypeFixed:
		discount = int64(math.Round(p.DiscountValue))
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

// PromoRedemption records one counted use of a promo under a unique key.
type PromoRedemption struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PromoID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"promo_id"`
	RedemptionKey string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"redemption_key"`
	OrderID       *uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// ValidatePromoRequest is the payload of POST /promo/validate.
type ValidatePromoRequest struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
}

// AppliedPromo is a successfully validated promo.
type AppliedPromo struct {
	ID             uuid.UUID    `json:"id"`
	Code           string       `json:"code"`
	Description    string       `json:"description"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountValue  float64      `json:"discount_value"`
	DiscountAmount int64        `json:"discount_amount"`
}

// IncrementPromoRequest is the payload of POST /promo/increment.
type IncrementPromoRequest struct {
	PromoID string `json:"promo_id"`
	OrderID string `json:"order_id"`
}
