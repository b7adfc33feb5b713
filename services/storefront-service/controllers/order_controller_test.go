package controllers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobaccostore/backend/services/storefront-service/controllers"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

func setupOrderRouter(svc services.OrderService) *gin.Engine {
	r := gin.New()
	oc := controllers.NewOrderController(svc)
	r.POST("/orders", oc.CreateOrder)
	r.POST("/mobile/orders", withSession(42), oc.CreateOrder)
	r.GET("/orders", oc.ListOrders)
	r.GET("/orders/:id", oc.GetOrder)
	return r
}

func sampleOrderRequest() models.CreateOrderRequest {
	return models.CreateOrderRequest{
		CustomerName:    "Budi",
		CustomerEmail:   "budi@example.com",
		CustomerAddress: "Jl. Darmo 1",
		Items:           []models.OrderItemRequest{{ProductID: 1, Quantity: 2, Price: 30000}},
		ShippingCost:    20000,
		TotalAmount:     80000,
		PaymentMethod:   models.PaymentMethodMidtrans,
	}
}

func TestOrderController_CreateOrder(t *testing.T) {
	var gotUser *int64
	svc := &stubOrders{
		createFn: func(_ context.Context, req *models.CreateOrderRequest, userID *int64) (*models.CreateOrderResult, *services.ServiceError) {
			gotUser = userID
			return &models.CreateOrderResult{
				Order:          &models.Order{ID: uuid.New(), OrderNumber: "ORD-1760000000000", TotalAmount: req.TotalAmount},
				ItemsPersisted: true,
			}, nil
		},
	}
	r := setupOrderRouter(svc)

	t.Run("guest", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/orders", sampleOrderRequest(), nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Nil(t, gotUser)
		resp := decode(w)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, true, resp["items_persisted"])
	})

	t.Run("signed in", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/mobile/orders", sampleOrderRequest(), nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, gotUser)
		assert.Equal(t, int64(42), *gotUser)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		req := sampleOrderRequest()
		req.PaymentMethod = "bitcoin"
		w := doJSON(r, http.MethodPost, "/orders", req, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request", decode(w)["error"])
	})
}

func TestOrderController_CreateOrder_ItemsNotPersisted(t *testing.T) {
	svc := &stubOrders{
		createFn: func(_ context.Context, req *models.CreateOrderRequest, userID *int64) (*models.CreateOrderResult, *services.ServiceError) {
			return &models.CreateOrderResult{
				Order:          &models.Order{ID: uuid.New()},
				ItemsPersisted: false,
				Warning:        "Order items could not be saved",
			}, nil
		},
	}
	w := doJSON(setupOrderRouter(svc), http.MethodPost, "/orders", sampleOrderRequest(), nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(w)
	assert.Equal(t, false, resp["items_persisted"])
	assert.Equal(t, "Order items could not be saved", resp["warning"])
}

func TestOrderController_CreateOrder_TotalMismatch(t *testing.T) {
	svc := &stubOrders{
		createFn: func(_ context.Context, req *models.CreateOrderRequest, userID *int64) (*models.CreateOrderResult, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: "Total amount mismatch"}
		},
	}
	w := doJSON(setupOrderRouter(svc), http.MethodPost, "/orders", sampleOrderRequest(), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Total amount mismatch", decode(w)["error"])
}

func TestOrderController_ListOrders(t *testing.T) {
	var gotEmail string
	svc := &stubOrders{
		listFn: func(_ context.Context, email string, page, limit int) ([]models.Order, int64, *services.ServiceError) {
			gotEmail = email
			return []models.Order{
				{
					ID:          uuid.New(),
					OrderNumber: "ORD-2",
					Status:      models.OrderStatusPaid,
					TotalAmount: 80000,
					CreatedAt:   time.Now(),
					Items: []models.OrderItem{
						{ProductID: 1, Quantity: 2, Price: 30000},
						{ProductID: 2, Quantity: 1, Price: 20000},
					},
				},
				{ID: uuid.New(), OrderNumber: "ORD-1", Status: models.OrderStatusPending},
			}, 2, nil
		},
	}
	r := setupOrderRouter(svc)

	w := doJSON(r, http.MethodGet, "/orders?email=budi@example.com", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "budi@example.com", gotEmail)

	orders := decode(w)["orders"].([]interface{})
	require.Len(t, orders, 2)
	first := orders[0].(map[string]interface{})
	assert.Equal(t, "ORD-2", first["order_number"])
	assert.Equal(t, float64(3), first["item_count"])
	assert.Len(t, first["items"], 2)
	second := orders[1].(map[string]interface{})
	assert.Equal(t, []interface{}{}, second["items"])

	w = doJSON(r, http.MethodGet, "/orders", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is required", decode(w)["error"])
}

func TestOrderController_GetOrder(t *testing.T) {
	id := uuid.New()
	svc := &stubOrders{
		getFn: func(_ context.Context, raw string) (*models.Order, *services.ServiceError) {
			if raw != id.String() {
				return nil, &services.ServiceError{StatusCode: http.StatusNotFound, Message: "Order not found"}
			}
			return &models.Order{ID: id}, nil
		},
	}
	r := setupOrderRouter(svc)

	w := doJSON(r, http.MethodGet, "/orders/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/orders/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
