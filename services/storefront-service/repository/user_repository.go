package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

// UserRepository handles users, their preferences and sessions.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	CreateWithPreferences(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	CreateSession(ctx context.Context, session *models.UserSession) error
	FindActiveSession(ctx context.Context, tokenHash string, userID int64, now time.Time) (*models.UserSession, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateWithPreferences inserts the user and its default preferences row in
// one transaction.
func (r *GormUserRepository) CreateWithPreferences(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return err
		}
		prefs := models.UserPreferences{UserID: user.ID, EmailNotifications: true}
		return tx.Create(&prefs).Error
	})
}

func (r *GormUserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).
		Error
}

func (r *GormUserRepository) CreateSession(ctx context.Context, session *models.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindActiveSession returns the unexpired session matching the token hash and
// user.
func (r *GormUserRepository) FindActiveSession(ctx context.Context, tokenHash string, userID int64, now time.Time) (*models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).
		Where("session_token = ? AND user_id = ? AND expires_at > ?", tokenHash, userID, now).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *GormUserRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).
		Where("session_token = ?", tokenHash).
		Delete(&models.UserSession{}).
		Error
}
