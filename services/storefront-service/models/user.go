package models

import "time"

const UserStatusActive = "active"

// User is a registered storefront account.
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"not null" json:"name"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Phone        *string    `json:"phone"`
	Address      *string    `gorm:"type:text" json:"address"`
	AvatarURL    *string    `json:"avatar_url"`
	Status       string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"-"`
}

// UserSession backs a bearer token. Only the SHA-256 of the token is stored.
type UserSession struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	SessionToken string    `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// UserPreferences holds per-user settings created at registration.
type UserPreferences struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	EmailNotifications bool      `gorm:"not null;default:true" json:"email_notifications"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SessionContext is the authenticated caller resolved for one request.
type SessionContext struct {
	UserID    int64
	Email     string
	TokenHash string
	ExpiresAt time.Time
}

// RegisterRequest is the payload of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
