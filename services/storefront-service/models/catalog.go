package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Price is whole rupiah, weight is grams.
type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       int64     `gorm:"not null" json:"price"`
	InStock     int       `gorm:"not null;default:0" json:"in_stock"`
	Category    string    `gorm:"index" json:"category"`
	ImageURL    string    `json:"image_url"`
	Weight      int       `gorm:"not null;default:100" json:"weight"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ProductFilter narrows GET /products.
type ProductFilter struct {
	Category string
	Search   string
}

// Customer is a guest buyer keyed by e-mail.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CustomerRequest is the payload of POST /customers.
type CustomerRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
