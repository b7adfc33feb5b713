package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobaccostore/backend/services/storefront-service/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

type PromoController struct {
	promoService services.PromoService
}

func NewPromoController(promoService services.PromoService) *PromoController {
	return &PromoController{promoService: promoService}
}

// Validate handles POST /promo/validate.
func (pc *PromoController) Validate(ctx *gin.Context) {
	var req models.ValidatePromoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	promo, svcErr := pc.promoService.Validate(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "promo": promo})
}

// Increment handles POST /promo/increment. An Idempotency-Key header makes
// repeated calls count once.
func (pc *PromoController) Increment(ctx *gin.Context) {
	var req models.IncrementPromoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	applied, svcErr := pc.promoService.Increment(ctx.Request.Context(), &req, middleware.IdempotencyKey(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	msg := "Promo usage incremented"
	if !applied {
		msg = "Promo usage already recorded"
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "incremented": applied, "message": msg})
}
