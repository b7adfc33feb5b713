package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

// PromoRepository defines the interface for promo data access.
type PromoRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Promo, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promo, error)
	Redeem(ctx context.Context, promoID uuid.UUID, redemptionKey string, orderID *uuid.UUID) (bool, error)
}

// GormPromoRepository implements PromoRepository using GORM.
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository creates a new GormPromoRepository.
func NewGormPromoRepository(db *gorm.DB) PromoRepository {
	return &GormPromoRepository{db: db}
}

// FindByCode retrieves an active promo by code (case-insensitive).
func (r *GormPromoRepository) FindByCode(ctx context.Context, code string) (*models.Promo, error) {
	var promo models.Promo
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ? AND is_active = ?", strings.ToUpper(strings.TrimSpace(code)), true).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// FindByID retrieves a promo by primary key.
func (r *GormPromoRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promo, error) {
	var promo models.Promo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&promo).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// Redeem counts one use of a promo under redemptionKey. It reports false with
// a nil error when the key was already counted. The redemption row and the
// used_count increment commit together; a full promo rolls both back with
// ErrPromoLimitReached.
func (r *GormPromoRepository) Redeem(ctx context.Context, promoID uuid.UUID, redemptionKey string, orderID *uuid.UUID) (bool, error) {
	counted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		redemption := models.PromoRedemption{
			ID:            uuid.New(),
			PromoID:       promoID,
			RedemptionKey: redemptionKey,
			OrderID:       orderID,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "redemption_key"}},
			DoNothing: true,
		}).Create(&redemption)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		upd := tx.Model(&models.Promo{}).
			Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", promoID).
			UpdateColumn("used_count", gorm.Expr("used_count + 1"))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return ErrPromoLimitReached
		}
		counted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return counted, nil
}
