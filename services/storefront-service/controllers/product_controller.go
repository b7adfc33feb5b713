package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

type ProductController struct {
	productService services.ProductService
}

func NewProductController(productService services.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// ListProducts handles GET /products?category=&search=.
func (pc *ProductController) ListProducts(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	filter := models.ProductFilter{
		Category: strings.TrimSpace(ctx.Query("category")),
		Search:   strings.TrimSpace(ctx.Query("search")),
	}

	products, total, svcErr := pc.productService.ListProducts(ctx.Request.Context(), filter, page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"products": products,
		"meta":     pageMeta(page, limit, total),
	})
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(ctx *gin.Context) {
	product, svcErr := pc.productService.GetProduct(ctx.Request.Context(), ctx.Param("id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"product": product})
}
