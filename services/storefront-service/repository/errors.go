package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrItemsNotPersisted is returned by OrderRepository.Create when the order
	// header was written but its items were not.
	ErrItemsNotPersisted = errors.New("order items not persisted")
	// ErrPromoLimitReached is returned when a redemption would exceed usage_limit.
	ErrPromoLimitReached = errors.New("promo usage limit reached")
	// ErrDuplicateIdempotencyKey is returned when a payment transaction with the
	// same idempotency key already exists.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	// ErrDuplicateEmail is returned when a user with the same e-mail exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStaleStatus is returned by conditional status updates that lost a race.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}
