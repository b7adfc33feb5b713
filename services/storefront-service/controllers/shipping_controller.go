package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

type ShippingController struct {
	shippingService services.ShippingService
}

func NewShippingController(shippingService services.ShippingService) *ShippingController {
	return &ShippingController{shippingService: shippingService}
}

// Provinces handles GET /shipping/province.
func (sc *ShippingController) Provinces(ctx *gin.Context) {
	provinces, svcErr := sc.shippingService.Provinces(ctx.Request.Context())
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "provinces": provinces})
}

// Cities handles GET /shipping/city?province_id=.
func (sc *ShippingController) Cities(ctx *gin.Context) {
	cities, svcErr := sc.shippingService.Cities(ctx.Request.Context(), ctx.Query("province_id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "cities": cities})
}

// Districts handles GET /shipping/district/:city_id.
func (sc *ShippingController) Districts(ctx *gin.Context) {
	districts, svcErr := sc.shippingService.Districts(ctx.Request.Context(), ctx.Param("city_id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "districts": districts})
}

// Cost handles POST /shipping/cost. No available service is a 200 with an
// empty list and a message.
func (sc *ShippingController) Cost(ctx *gin.Context) {
	var req models.ShippingCostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	result, svcErr := sc.shippingService.Cost(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	body := gin.H{"success": true, "results": result.Results}
	if result.Message != "" {
		body["message"] = result.Message
	}
	ctx.JSON(http.StatusOK, body)
}
