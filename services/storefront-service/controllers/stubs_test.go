package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tobaccostore/backend/services/storefront-service/controllers"
	"github.com/tobaccostore/backend/services/storefront-service/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := controllers.RegisterValidators(); err != nil {
		panic(err)
	}
}

// --- Helpers ---

func doJSON(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

// withSession stands in for the session middleware.
func withSession(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.SessionContextKey, &models.SessionContext{UserID: userID, Email: "budi@example.com"})
		c.Next()
	}
}

// --- Service stubs ---

type stubAuth struct {
	registerFn func(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, *services.ServiceError)
	loginFn    func(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *services.ServiceError)
	meFn       func(ctx context.Context, s *models.SessionContext) (*models.User, *services.ServiceError)
	logoutFn   func(ctx context.Context, token string) *services.ServiceError
}

func (s *stubAuth) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, *services.ServiceError) {
	return s.registerFn(ctx, req)
}
func (s *stubAuth) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *services.ServiceError) {
	return s.loginFn(ctx, req)
}
func (s *stubAuth) ResolveSession(ctx context.Context, token string) (*models.SessionContext, *services.ServiceError) {
	return nil, &services.ServiceError{StatusCode: http.StatusUnauthorized, Message: "Session tidak valid"}
}
func (s *stubAuth) Me(ctx context.Context, session *models.SessionContext) (*models.User, *services.ServiceError) {
	return s.meFn(ctx, session)
}
func (s *stubAuth) Logout(ctx context.Context, token string) *services.ServiceError {
	return s.logoutFn(ctx, token)
}

type stubProducts struct {
	listFn func(ctx context.Context, f models.ProductFilter, page, limit int) ([]models.Product, int64, *services.ServiceError)
	getFn  func(ctx context.Context, id string) (*models.Product, *services.ServiceError)
}

func (s *stubProducts) ListProducts(ctx context.Context, f models.ProductFilter, page, limit int) ([]models.Product, int64, *services.ServiceError) {
	return s.listFn(ctx, f, page, limit)
}
func (s *stubProducts) GetProduct(ctx context.Context, id string) (*models.Product, *services.ServiceError) {
	return s.getFn(ctx, id)
}

type stubCustomers struct {
	fn func(ctx context.Context, req *models.CustomerRequest) (*models.Customer, bool, *services.ServiceError)
}

func (s *stubCustomers) FindOrCreate(ctx context.Context, req *models.CustomerRequest) (*models.Customer, bool, *services.ServiceError) {
	return s.fn(ctx, req)
}

type stubOrders struct {
	createFn func(ctx context.Context, req *models.CreateOrderRequest, userID *int64) (*models.CreateOrderResult, *services.ServiceError)
	listFn   func(ctx context.Context, email string, page, limit int) ([]models.Order, int64, *services.ServiceError)
	getFn    func(ctx context.Context, id string) (*models.Order, *services.ServiceError)
}

func (s *stubOrders) PriceItems(ctx context.Context, items []models.OrderItemRequest) ([]models.OrderItem, *services.ServiceError) {
	return nil, nil
}
func (s *stubOrders) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, userID *int64) (*models.CreateOrderResult, *services.ServiceError) {
	return s.createFn(ctx, req, userID)
}
func (s *stubOrders) ListOrders(ctx context.Context, email string, page, limit int) ([]models.Order, int64, *services.ServiceError) {
	return s.listFn(ctx, email, page, limit)
}
func (s *stubOrders) GetOrder(ctx context.Context, id string) (*models.Order, *services.ServiceError) {
	return s.getFn(ctx, id)
}
func (s *stubOrders) MarkPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, *services.ServiceError) {
	return nil, nil
}

type stubPromos struct {
	validateFn  func(ctx context.Context, req *models.ValidatePromoRequest) (*models.AppliedPromo, *services.ServiceError)
	incrementFn func(ctx context.Context, req *models.IncrementPromoRequest, key string) (bool, *services.ServiceError)
}

func (s *stubPromos) Validate(ctx context.Context, req *models.ValidatePromoRequest) (*models.AppliedPromo, *services.ServiceError) {
	return s.validateFn(ctx, req)
}
func (s *stubPromos) Increment(ctx context.Context, req *models.IncrementPromoRequest, key string) (bool, *services.ServiceError) {
	return s.incrementFn(ctx, req, key)
}
func (s *stubPromos) RedeemForOrder(ctx context.Context, order *models.Order) (bool, error) {
	return false, nil
}

type stubShipping struct {
	provincesFn func(ctx context.Context) ([]models.Province, *services.ServiceError)
	citiesFn    func(ctx context.Context, provinceID string) ([]models.City, *services.ServiceError)
	districtsFn func(ctx context.Context, cityID string) ([]models.District, *services.ServiceError)
	costFn      func(ctx context.Context, req *models.ShippingCostRequest) (*services.CostResult, *services.ServiceError)
}

func (s *stubShipping) Provinces(ctx context.Context) ([]models.Province, *services.ServiceError) {
	return s.provincesFn(ctx)
}
func (s *stubShipping) Cities(ctx context.Context, provinceID string) ([]models.City, *services.ServiceError) {
	return s.citiesFn(ctx, provinceID)
}
func (s *stubShipping) Districts(ctx context.Context, cityID string) ([]models.District, *services.ServiceError) {
	return s.districtsFn(ctx, cityID)
}
func (s *stubShipping) Cost(ctx context.Context, req *models.ShippingCostRequest) (*services.CostResult, *services.ServiceError) {
	return s.costFn(ctx, req)
}
func (s *stubShipping) Quote(ctx context.Context, destination int64, weight int, courier, service string) (*models.ShippingQuote, *services.ServiceError) {
	return nil, nil
}

type stubPayments struct {
	snapFn         func(ctx context.Context, req *models.SnapPaymentRequest, key string) (*models.PaymentResponse, *services.ServiceError)
	cashifyFn      func(ctx context.Context, req *models.CashifyPaymentRequest, key string) (*models.PaymentResponse, *services.ServiceError)
	statusFn       func(ctx context.Context, req *models.PaymentStatusRequest) (*models.PaymentResponse, *services.ServiceError)
	callbackFn     func(ctx context.Context, req *models.PaymentCallbackRequest) (*models.PaymentResponse, *services.ServiceError)
	notificationFn func(ctx context.Context, n *models.MidtransNotification) *services.ServiceError
	qrFn           func(ctx context.Context, id string) ([]byte, *services.ServiceError)
}

func (s *stubPayments) CreateSnap(ctx context.Context, req *models.SnapPaymentRequest, key string) (*models.PaymentResponse, *services.ServiceError) {
	return s.snapFn(ctx, req, key)
}
func (s *stubPayments) CreateCashify(ctx context.Context, req *models.CashifyPaymentRequest, key string) (*models.PaymentResponse, *services.ServiceError) {
	return s.cashifyFn(ctx, req, key)
}
func (s *stubPayments) CheckStatus(ctx context.Context, req *models.PaymentStatusRequest) (*models.PaymentResponse, *services.ServiceError) {
	return s.statusFn(ctx, req)
}
func (s *stubPayments) HandleCallback(ctx context.Context, req *models.PaymentCallbackRequest) (*models.PaymentResponse, *services.ServiceError) {
	return s.callbackFn(ctx, req)
}
func (s *stubPayments) HandleNotification(ctx context.Context, n *models.MidtransNotification) *services.ServiceError {
	return s.notificationFn(ctx, n)
}
func (s *stubPayments) QRImage(ctx context.Context, id string) ([]byte, *services.ServiceError) {
	return s.qrFn(ctx, id)
}
func (s *stubPayments) ApplyEvent(ctx context.Context, tx *models.PaymentTransaction, next models.PaymentStatus, providerStatus string) (*models.PaymentTransaction, error) {
	return tx, nil
}
func (s *stubPayments) MarkFailed(ctx context.Context, transactionID, reason string) error {
	return nil
}

type stubCheckout struct {
	checkoutFn func(ctx context.Context, req *models.CheckoutRequest, userID *int64) (*models.CheckoutResponse, *services.ServiceError)
	retryFn    func(ctx context.Context, orderID string, req *models.RetryPaymentRequest) (*models.CheckoutResponse, *services.ServiceError)
}

func (s *stubCheckout) Checkout(ctx context.Context, req *models.CheckoutRequest, userID *int64) (*models.CheckoutResponse, *services.ServiceError) {
	return s.checkoutFn(ctx, req, userID)
}
func (s *stubCheckout) RetryPayment(ctx context.Context, orderID string, req *models.RetryPaymentRequest) (*models.CheckoutResponse, *services.ServiceError) {
	return s.retryFn(ctx, orderID, req)
}
