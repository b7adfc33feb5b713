package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"

	"github.com/tobaccostore/backend/services/storefront-service/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// orderSummary is one row of the order history.
type orderSummary struct {
	ID              string               `json:"id"`
	OrderNumber     string               `json:"order_number"`
	Status          models.OrderStatus   `json:"status"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	TotalAmount     int64                `json:"total_amount"`
	ShippingService string               `json:"shipping_service"`
	ItemCount       int                  `json:"item_count"`
	Items           []models.OrderItem   `json:"items"`
	CreatedAt       time.Time            `json:"created_at"`
}

// CreateOrder handles POST /orders. Signed-in callers get the order linked
// to their account.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var req models.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	result, svcErr := oc.orderService.CreateOrder(ctx.Request.Context(), &req, middleware.UserID(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"order":           result.Order,
		"items_persisted": result.ItemsPersisted,
		"warning":         result.Warning,
	})
}

// ListOrders handles GET /orders?email=, newest first.
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	email := strings.TrimSpace(ctx.Query("email"))
	if email == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}
	page, limit := parsePaginationParams(ctx)

	orders, total, svcErr := oc.orderService.ListOrders(ctx.Request.Context(), email, page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	summaries := slice.Map(orders, func(_ int, o models.Order) orderSummary {
		items := o.Items
		if items == nil {
			items = []models.OrderItem{}
		}
		count := 0
		for _, it := range items {
			count += it.Quantity
		}
		return orderSummary{
			ID:              o.ID.String(),
			OrderNumber:     o.OrderNumber,
			Status:          o.Status,
			PaymentMethod:   o.PaymentMethod,
			TotalAmount:     o.TotalAmount,
			ShippingService: o.ShippingService,
			ItemCount:       count,
			Items:           items,
			CreatedAt:       o.CreatedAt,
		}
	})

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  summaries,
		"meta":    pageMeta(page, limit, total),
	})
}

// GetOrder handles GET /orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}
