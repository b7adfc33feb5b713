package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

const orderNumberAttempts = 3

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByEmail(ctx context.Context, email string, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db, now: time.Now}
}

// Create assigns an order number, inserts the header and then all items in a
// single batch. A header conflict on order_number is retried with a fresh
// number. When the items insert fails the header stays and the returned error
// wraps ErrItemsNotPersisted.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentMethodMidtrans
	}

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = models.NewOrderNumber(r.now().Add(time.Duration(attempt) * time.Millisecond))
		err = r.db.WithContext(ctx).Omit("Items").Create(order).Error
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(&order.Items).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrItemsNotPersisted, err)
	}
	return nil
}

// FindByID retrieves an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber retrieves an order by its human readable number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByEmail retrieves orders placed with an e-mail address, newest first
func (r *GormOrderRepository) FindByEmail(ctx context.Context, email string, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_email = ?", email)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Items").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus moves an order from one status to another. The update only
// applies while the stored status still equals from.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	if !from.CanTransition(to) {
		return models.ErrInvalidTransition
	}

	updates := map[string]interface{}{"status": to}
	now := r.now()
	switch to {
	case models.OrderStatusPaid:
		updates["paid_at"] = now
	case models.OrderStatusCancelled:
		updates["cancelled_at"] = now
	case models.OrderStatusCompleted:
		updates["completed_at"] = now
	}

	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
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
