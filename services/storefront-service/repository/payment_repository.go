package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

var activePaymentStatuses = []models.PaymentStatus{
	models.PaymentStatusInitiated,
	models.PaymentStatusAwaitingProvider,
	models.PaymentStatusPending,
}

// PaymentRepository defines the interface for payment transaction data access
type PaymentRepository interface {
	Create(ctx context.Context, tx *models.PaymentTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.PaymentTransaction, error)
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID, provider models.PaymentProvider) (*models.PaymentTransaction, error)
	FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentTransaction, error)
	FindByProviderTransactionID(ctx context.Context, providerTxID string) (*models.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from models.PaymentStatus, updates map[string]interface{}) error
}

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Status == "" {
		tx.Status = models.PaymentStatusInitiated
	}
	err := r.db.WithContext(ctx).Create(tx).Error
	if isUniqueViolation(err) {
		return ErrDuplicateIdempotencyKey
	}
	return err
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.PaymentTransaction, error) {
	return r.findOne(ctx, "idempotency_key = ?", key)
}

func (r *GormPaymentRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentTransaction, error) {
	return r.findOne(ctx, "provider_order_id = ?", providerOrderID)
}

func (r *GormPaymentRepository) FindByProviderTransactionID(ctx context.Context, providerTxID string) (*models.PaymentTransaction, error) {
	return r.findOne(ctx, "provider_transaction_id = ?", providerTxID)
}

// FindActiveByOrder returns the newest non-terminal transaction of an order
// for a provider.
func (r *GormPaymentRepository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID, provider models.PaymentProvider) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND provider = ? AND status IN ?", orderID, provider, activePaymentStatuses).
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *GormPaymentRepository) FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateStatus applies updates only while the transaction is still in from.
// Losing the race returns ErrStaleStatus.
func (r *GormPaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from models.PaymentStatus, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *GormPaymentRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := r.db.WithContext(ctx).Where(query, arg).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}
