package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tobaccostore/backend/services/common/auth"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
)

const BcryptCost = 12

const (
	msgAuthMissingFields   = "Nama, email, dan password harus diisi"
	msgEmailTaken          = "Email sudah terdaftar"
	msgInvalidCredentials  = "Email atau password salah"
	msgAccountInactive     = "Akun tidak aktif"
	msgInvalidToken        = "Token tidak valid"
	msgInvalidSession      = "Session tidak valid"
	msgUserNotFound        = "User tidak ditemukan"
	MsgLogoutSucceeded     = "Logout berhasil"
	msgLoginMissingFields  = "Email dan password harus diisi"
	msgAuthInternalFailure = "Terjadi kesalahan server"
)

// AuthService registers users, checks credentials and manages sessions.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, *ServiceError)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *ServiceError)
	ResolveSession(ctx context.Context, token string) (*models.SessionContext, *ServiceError)
	Me(ctx context.Context, session *models.SessionContext) (*models.User, *ServiceError)
	Logout(ctx context.Context, token string) *ServiceError
}

type authServiceImpl struct {
	users     repository.UserRepository
	tokens    *auth.TokenManager
	passwords *PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		users:     users,
		tokens:    tokens,
		passwords: NewPasswordValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// HashToken is the value stored in user_sessions for a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func unauthorized(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusUnauthorized, Message: msg}
}

func (s *authServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, *ServiceError) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return nil, badRequest(msgAuthMissingFields)
	}
	if err := s.passwords.ValidatePassword(req.Password); err != nil {
		return nil, badRequest(err.Error())
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, badRequest(msgEmailTaken)
	} else if !repository.IsNotFound(err) {
		s.logger.Error("Failed to check email", zap.Error(err))
		return nil, internalError(msgAuthInternalFailure)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, internalError(msgAuthInternalFailure)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		Status:       models.UserStatusActive,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = &phone
	}
	if err := s.users.CreateWithPreferences(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, badRequest(msgEmailTaken)
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, internalError(msgAuthInternalFailure)
	}

	token, serr := s.issueSession(ctx, user)
	if serr != nil {
		return nil, serr
	}
	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return &models.AuthResponse{User: user, Token: token}, nil
}

func (s *authServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *ServiceError) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, badRequest(msgLoginMissingFields)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, unauthorized(msgInvalidCredentials)
		}
		s.logger.Error("Failed to load user", zap.Error(err))
		return nil, internalError(msgAuthInternalFailure)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, unauthorized(msgInvalidCredentials)
	}
	if user.Status != models.UserStatusActive {
		return nil, unauthorized(msgAccountInactive)
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	token, serr := s.issueSession(ctx, user)
	if serr != nil {
		return nil, serr
	}
	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return &models.AuthResponse{User: user, Token: token}, nil
}

func (s *authServiceImpl) issueSession(ctx context.Context, user *models.User) (string, *ServiceError) {
	token, exp, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.Error(err))
		return "", internalError(msgAuthInternalFailure)
	}
	session := &models.UserSession{
		UserID:       user.ID,
		SessionToken: HashToken(token),
		ExpiresAt:    exp,
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		s.logger.Error("Failed to create session", zap.Int64("user_id", user.ID), zap.Error(err))
		return "", internalError(msgAuthInternalFailure)
	}
	return token, nil
}

// ResolveSession verifies a bearer token and its session row.
func (s *authServiceImpl) ResolveSession(ctx context.Context, token string) (*models.SessionContext, *ServiceError) {
	if token == "" {
		return nil, unauthorized(msgInvalidToken)
	}
	claims, err := s.tokens.ParseAndValidateToken(token, auth.TokenTypeSession)
	if err != nil {
		return nil, unauthorized(msgInvalidToken)
	}

	hash := HashToken(token)
	session, err := s.users.FindActiveSession(ctx, hash, claims.UserID, s.now())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, unauthorized(msgInvalidSession)
		}
		s.logger.Error("Failed to load session", zap.Error(err))
		return nil, internalError(msgAuthInternalFailure)
	}

	return &models.SessionContext{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenHash: hash,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) Me(ctx context.Context, session *models.SessionContext) (*models.User, *ServiceError) {
	if session == nil {
		return nil, unauthorized(msgInvalidSession)
	}
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound(msgUserNotFound)
		}
		s.logger.Error("Failed to load user", zap.Int64("user_id", session.UserID), zap.Error(err))
		return nil, internalError(msgAuthInternalFailure)
	}
	return user, nil
}

// Logout deletes the session of token. A token without a session is not an
// error.
func (s *authServiceImpl) Logout(ctx context.Context, token string) *ServiceError {
	if token == "" {
		return unauthorized(msgInvalidToken)
	}
	if err := s.users.DeleteSession(ctx, HashToken(token)); err != nil {
		s.logger.Error("Failed to delete session", zap.Error(err))
		return internalError(msgAuthInternalFailure)
	}
	return nil
}
