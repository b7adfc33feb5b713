package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobaccostore/backend/services/storefront-service/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

type AuthController struct {
	authService services.AuthService
}

func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register handles POST /auth/register.
func (ac *AuthController) Register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, svcErr := ac.authService.Register(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// Login handles POST /auth/login.
func (ac *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, svcErr := ac.authService.Login(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Me handles GET /auth/me behind RequireSession.
func (ac *AuthController) Me(ctx *gin.Context) {
	session, ok := middleware.GetSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Session tidak valid"})
		return
	}

	user, svcErr := ac.authService.Me(ctx.Request.Context(), session)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout handles POST /auth/logout. The token does not have to be valid.
func (ac *AuthController) Logout(ctx *gin.Context) {
	token := middleware.BearerToken(ctx)
	if token == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Token tidak ditemukan"})
		return
	}

	if svcErr := ac.authService.Logout(ctx.Request.Context(), token); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Logout berhasil"})
}
