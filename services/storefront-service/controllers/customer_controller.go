package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

type CustomerController struct {
	customerService services.CustomerService
}

func NewCustomerController(customerService services.CustomerService) *CustomerController {
	return &CustomerController{customerService: customerService}
}

// FindOrCreate handles POST /customers. It answers 201 when a customer was
// created and 200 when the e-mail was already known.
func (cc *CustomerController) FindOrCreate(ctx *gin.Context) {
	var req models.CustomerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	customer, created, svcErr := cc.customerService.FindOrCreate(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, gin.H{"customer": customer, "created": created})
}
