package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tobaccostore/backend/services/common/auth"
	apperrors "github.com/tobaccostore/backend/services/common/errors"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

const (
	SessionContextKey    = "session"
	IdempotencyKeyHeader = "Idempotency-Key"

	maxIdempotencyKeyLength = 128
)

// SessionResolver turns a bearer token into the caller's session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.SessionContext, *services.ServiceError)
}

// RequireSession aborts with 401 unless the request carries a live session.
func RequireSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			_ = c.Error(apperrors.New(http.StatusUnauthorized, "Token tidak ditemukan", nil))
			c.Abort()
			return
		}
		session, serr := resolver.ResolveSession(c.Request.Context(), token)
		if serr != nil {
			_ = c.Error(apperrors.New(serr.StatusCode, serr.Message, nil))
			c.Abort()
			return
		}
		c.Set(SessionContextKey, session)
		c.Next()
	}
}

// OptionalSession attaches the session when a valid token is present and
// lets guests through otherwise.
func OptionalSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c); token != "" {
			if session, serr := resolver.ResolveSession(c.Request.Context(), token); serr == nil {
				c.Set(SessionContextKey, session)
			}
		}
		c.Next()
	}
}

// GetSession returns the session set by RequireSession or OptionalSession.
func GetSession(c *gin.Context) (*models.SessionContext, bool) {
	val, ok := c.Get(SessionContextKey)
	if !ok {
		return nil, false
	}
	session, ok := val.(*models.SessionContext)
	return session, ok && session != nil
}

// UserID is the signed-in user's id, or nil for guests.
func UserID(c *gin.Context) *int64 {
	session, ok := GetSession(c)
	if !ok {
		return nil
	}
	id := session.UserID
	return &id
}

func BearerToken(c *gin.Context) string {
	return auth.BearerToken(c.GetHeader("Authorization"))
}

// IdempotencyKey reads the Idempotency-Key header. Overlong keys are
// ignored.
func IdempotencyKey(c *gin.Context) string {
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		return ""
	}
	return key
}

// Timeout bounds the request context of every handler.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
