package checkout

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

const (
	stepCreateOrder     = "create_order"
	stepInitiatePayment = "initiate_payment"
	stepVerifyPayment   = "verify_payment"
)

var (
	errNoQuotes       = errors.New("no shipping services for route")
	errMissingPayment = errors.New("payment gateway returned no payment artifact")
)

// Service runs a server-side checkout: address, quote and promo are resolved
// on the server, the order is created and the payment is started.
type Service interface {
	Checkout(ctx context.Context, req *models.CheckoutRequest, userID *int64) (*models.CheckoutResponse, *services.ServiceError)
	RetryPayment(ctx context.Context, orderID string, req *models.RetryPaymentRequest) (*models.CheckoutResponse, *services.ServiceError)
}

// Config wires a checkout Service. Origin is the warehouse district.
type Config struct {
	Orders   services.OrderService
	Promos   services.PromoService
	Payments services.PaymentService
	Regions  providers.RateProvider
	Origin   int64
	Metrics  *services.Metrics
	Logger   *zap.Logger
}

type serviceImpl struct {
	orders   services.OrderService
	promos   services.PromoService
	payments services.PaymentService
	regions  providers.RateProvider
	origin   int64
	saga     *Orchestrator
	metrics  *services.Metrics
	logger   *zap.Logger
}

func NewService(cfg Config) Service {
	return &serviceImpl{
		orders:   cfg.Orders,
		promos:   cfg.Promos,
		payments: cfg.Payments,
		regions:  cfg.Regions,
		origin:   cfg.Origin,
		saga:     NewOrchestrator(cfg.Logger),
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

func (s *serviceImpl) Checkout(ctx context.Context, req *models.CheckoutRequest, userID *int64) (*models.CheckoutResponse, *services.ServiceError) {
	if serr := validateRequest(req); serr != nil {
		return nil, serr
	}
	if s.regions == nil {
		return nil, &services.ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "API key not configured"}
	}
	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodMidtrans
	}

	items, serr := s.orders.PriceItems(ctx, req.Items)
	if serr != nil {
		return nil, serr
	}
	subtotal := models.Subtotal(items)
	weight := models.TotalWeight(items)

	session := NewAddressSession(s.regions)
	addr, err := s.resolveAddress(ctx, session, req)
	if err != nil {
		return nil, stageError(err, req.Service)
	}
	if err := session.SelectCourier(req.Courier); err != nil {
		return nil, &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid courier"}
	}

	// quote and promo do not depend on each other
	var (
		quote    *models.ShippingQuote
		promo    *models.AppliedPromo
		promoMsg string
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		quotes, err := session.Quotes(egCtx, s.origin, weight)
		if err != nil {
			return err
		}
		if len(quotes) == 0 {
			return errNoQuotes
		}
		quote, err = session.SelectService(req.Service)
		return err
	})
	if code := strings.TrimSpace(req.PromoCode); code != "" {
		eg.Go(func() error {
			applied, serr := s.promos.Validate(egCtx, &models.ValidatePromoRequest{Code: code, Subtotal: subtotal})
			if serr != nil {
				if serr.StatusCode >= http.StatusInternalServerError {
					return serr
				}
				// the checkout goes on without the discount
				promoMsg = serr.Message
				return nil
			}
			promo = applied
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, stageError(err, req.Service)
	}

	var discount int64
	promoCode := ""
	if promo != nil {
		discount = promo.DiscountAmount
		promoCode = promo.Code
	}
	total, err := models.ComputeTotal(subtotal, quote.Cost, discount)
	if err != nil {
		return nil, &services.ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: err.Error()}
	}

	orderReq := &models.CreateOrderRequest{
		CustomerName:        strings.TrimSpace(req.CustomerName),
		CustomerEmail:       strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:       req.CustomerPhone,
		CustomerAddress:     req.CustomerAddress,
		Items:               req.Items,
		ShippingCost:        quote.Cost,
		ShippingService:     strings.ToUpper(quote.Courier) + " " + quote.Service,
		ShippingDestination: addr.String(),
		PromoCode:           promoCode,
		DiscountAmount:      discount,
		TotalAmount:         total,
		PaymentMethod:       method,
	}

	resp := &models.CheckoutResponse{
		Address:      addr.String(),
		Shipping:     quote,
		Promo:        promo,
		PromoMessage: promoMsg,
	}

	var (
		created *models.CreateOrderResult
		payment *models.PaymentResponse
	)
	steps := []Step{{
		Name: stepCreateOrder,
		Execute: func(ctx context.Context) error {
			res, serr := s.orders.CreateOrder(ctx, orderReq, userID)
			if serr != nil {
				return serr
			}
			created = res
			return nil
		},
		// a created order is kept; it stays pending for a payment retry
	}}
	if method != models.PaymentMethodCOD {
		steps = append(steps,
			Step{
				Name: stepInitiatePayment,
				Execute: func(ctx context.Context) error {
					p, serr := s.initiate(ctx, created.Order, method, req.EwalletType, "checkout:"+created.Order.ID.String())
					if serr != nil {
						return serr
					}
					payment = p
					return nil
				},
				Compensate: func(ctx context.Context) error {
					return s.payments.MarkFailed(ctx, payment.TransactionID, errMissingPayment.Error())
				},
			},
			Step{
				Name: stepVerifyPayment,
				Execute: func(ctx context.Context) error {
					return verifyArtifact(method, payment)
				},
			},
		)
	}

	if err := s.saga.Run(ctx, steps...); err != nil {
		var stepErr *StepError
		if !errors.As(err, &stepErr) || stepErr.Step == stepCreateOrder {
			return nil, asServiceError(err)
		}
		// the order exists; report the payment failure alongside it
		serr := asServiceError(stepErr.Err)
		s.logger.Warn("Order created but payment not started",
			zap.String("order_id", created.Order.ID.String()),
			zap.String("step", stepErr.Step),
			zap.String("error", serr.Message),
		)
		fillOrder(resp, created)
		resp.PaymentError = serr.Message
		resp.Retryable = serr.Retryable || stepErr.Step == stepVerifyPayment
		resp.Outcome = models.OutcomeFailed
		resp.ClearCart = false
		s.metrics.Checkout(string(method), string(resp.Outcome))
		return resp, nil
	}

	fillOrder(resp, created)
	if method == models.PaymentMethodCOD {
		resp.Outcome = models.OutcomeSuccess
	} else {
		resp.Payment = payment
		resp.Outcome = payment.Outcome
	}
	resp.ClearCart = resp.Outcome.ClearsCart()

	s.metrics.Checkout(string(method), string(resp.Outcome))
	s.logger.Info("Checkout completed",
		zap.String("order_id", created.Order.ID.String()),
		zap.String("payment_method", string(method)),
		zap.String("outcome", string(resp.Outcome)),
		zap.Int64("total_amount", created.Order.TotalAmount),
	)
	return resp, nil
}

// RetryPayment starts a new payment for a pending order whose earlier
// attempt failed.
func (s *serviceImpl) RetryPayment(ctx context.Context, orderID string, req *models.RetryPaymentRequest) (*models.CheckoutResponse, *services.ServiceError) {
	order, serr := s.orders.GetOrder(ctx, orderID)
	if serr != nil {
		return nil, serr
	}
	if order.PaymentMethod == models.PaymentMethodCOD {
		return nil, &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Order is cash on delivery"}
	}

	key := req.IdempotencyKey
	if key == "" {
		key = "retry:" + shortuuid.New()
	}
	payment, serr := s.initiate(ctx, order, order.PaymentMethod, req.EwalletType, key)
	if serr != nil {
		return nil, serr
	}
	if err := verifyArtifact(order.PaymentMethod, payment); err != nil {
		if markErr := s.payments.MarkFailed(ctx, payment.TransactionID, err.Error()); markErr != nil {
			s.logger.Error("Failed to fail payment without artifact", zap.Error(markErr))
		}
		return nil, &services.ServiceError{StatusCode: http.StatusBadGateway, Message: "Payment gateway error", Retryable: true}
	}

	s.logger.Info("Payment retried",
		zap.String("order_id", orderID),
		zap.String("transaction_id", payment.TransactionID),
	)
	return &models.CheckoutResponse{
		Order:          order,
		OrderCreated:   true,
		ItemsPersisted: len(order.Items) > 0,
		Payment:        payment,
		Outcome:        payment.Outcome,
		ClearCart:      payment.ClearCart,
	}, nil
}

func (s *serviceImpl) initiate(ctx context.Context, order *models.Order, method models.PaymentMethod, ewallet, key string) (*models.PaymentResponse, *services.ServiceError) {
	switch method {
	case models.PaymentMethodCashify:
		return s.payments.CreateCashify(ctx, &models.CashifyPaymentRequest{OrderID: order.ID.String(), EwalletType: ewallet}, key)
	default:
		return s.payments.CreateSnap(ctx, &models.SnapPaymentRequest{OrderID: order.ID.String()}, key)
	}
}

func (s *serviceImpl) resolveAddress(ctx context.Context, session *AddressSession, req *models.CheckoutRequest) (Address, error) {
	if _, err := session.Provinces(ctx); err != nil {
		return Address{}, err
	}
	if _, err := session.SelectProvince(ctx, req.ProvinceID); err != nil {
		return Address{}, err
	}
	if _, err := session.SelectCity(ctx, req.CityID); err != nil {
		return Address{}, err
	}
	if err := session.SelectDistrict(req.DistrictID); err != nil {
		return Address{}, err
	}
	return session.Address()
}

func validateRequest(req *models.CheckoutRequest) *services.ServiceError {
	if strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.CustomerEmail) == "" ||
		strings.TrimSpace(req.CustomerAddress) == "" ||
		len(req.Items) == 0 {
		return &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Missing required fields: customer_name, customer_email, customer_address, items"}
	}
	if req.ProvinceID <= 0 || req.CityID <= 0 || req.DistrictID <= 0 {
		return &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Missing required fields: province_id, city_id, district_id"}
	}
	if strings.TrimSpace(req.Courier) == "" || strings.TrimSpace(req.Service) == "" {
		return &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Missing required fields: courier, service"}
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid payment_method"}
	}
	return nil
}

func verifyArtifact(method models.PaymentMethod, p *models.PaymentResponse) error {
	if p == nil || p.Outcome == models.OutcomeFailed {
		return errMissingPayment
	}
	switch method {
	case models.PaymentMethodCashify:
		if p.QRString == "" && p.RedirectURL == "" {
			return errMissingPayment
		}
	default:
		if p.Token == "" && p.RedirectURL == "" {
			return errMissingPayment
		}
	}
	return nil
}

func fillOrder(resp *models.CheckoutResponse, created *models.CreateOrderResult) {
	resp.Order = created.Order
	resp.OrderCreated = true
	resp.ItemsPersisted = created.ItemsPersisted
	resp.Warning = created.Warning
}

func asServiceError(err error) *services.ServiceError {
	var serr *services.ServiceError
	if errors.As(err, &serr) {
		return serr
	}
	return &services.ServiceError{StatusCode: http.StatusBadGateway, Message: "Payment gateway error", Retryable: true}
}

// stageError maps an address, quote or promo failure.
func stageError(err error, service string) *services.ServiceError {
	var serr *services.ServiceError
	if errors.As(err, &serr) {
		return serr
	}
	switch {
	case errors.Is(err, errNoQuotes):
		return &services.ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: services.MsgNoShippingServices}
	case errors.Is(err, ErrNoService):
		return &services.ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: "Layanan pengiriman tidak tersedia: " + service}
	case errors.Is(err, ErrUnknownRegion), errors.Is(err, ErrIncomplete):
		return &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Alamat tidak valid"}
	case errors.Is(err, ErrStaleSelection):
		return &services.ServiceError{StatusCode: http.StatusConflict, Message: "Alamat berubah, silakan coba lagi", Retryable: true}
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		var bizErr *providers.BusinessError
		if errors.As(fetchErr.Err, &bizErr) && bizErr.Message != "" {
			return &services.ServiceError{StatusCode: http.StatusBadRequest, Message: bizErr.Message}
		}
		return &services.ServiceError{StatusCode: http.StatusBadGateway, Message: "Failed to load " + fetchErr.Level, Retryable: fetchErr.Retryable()}
	}
	return &services.ServiceError{StatusCode: http.StatusInternalServerError, Message: "Checkout failed"}
}
