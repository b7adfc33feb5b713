package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	aws_pkg "github.com/tobaccostore/backend/pkg/aws"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
)

const msgItemsNotPersisted = "Order created but its items could not be saved"

// OrderService creates and reads orders.
type OrderService interface {
	PriceItems(ctx context.Context, items []models.OrderItemRequest) ([]models.OrderItem, *ServiceError)
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest, userID *int64) (*models.CreateOrderResult, *ServiceError)
	ListOrders(ctx context.Context, email string, page, limit int) ([]models.Order, int64, *ServiceError)
	GetOrder(ctx context.Context, id string) (*models.Order, *ServiceError)
	MarkPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError)
}

type orderServiceImpl struct {
	repo         repository.OrderRepository
	products     repository.ProductRepository
	promos       PromoService
	notifier     Notifier
	events       eventPublisher
	metrics      *Metrics
	strictTotals bool
	logger       *zap.Logger
}

// NewOrderService creates an OrderService. With strictTotals a client total
// that disagrees with the server computation is rejected; otherwise it is
// logged and replaced.
func NewOrderService(
	repo repository.OrderRepository,
	products repository.ProductRepository,
	promos PromoService,
	notifier Notifier,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	metrics *Metrics,
	strictTotals bool,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		repo:         repo,
		products:     products,
		promos:       promos,
		notifier:     notifier,
		events:       eventPublisher{snsClient: snsClient, snsTopicArn: snsTopicArn, logger: logger},
		metrics:      metrics,
		strictTotals: strictTotals,
		logger:       logger,
	}
}

// PriceItems snapshots unit price, name and weight from the catalog. Items
// whose product is not in the catalog keep the client values.
func (s *orderServiceImpl) PriceItems(ctx context.Context, reqItems []models.OrderItemRequest) ([]models.OrderItem, *ServiceError) {
	ids := make([]int64, 0, len(reqItems))
	for _, it := range reqItems {
		ids = append(ids, it.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load catalog prices", zap.Error(err))
		return nil, internalError("Failed to create order")
	}

	items := make([]models.OrderItem, 0, len(reqItems))
	for _, it := range reqItems {
		if it.Quantity <= 0 {
			return nil, badRequest("Item quantity must be greater than 0")
		}
		item := models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Weight:      it.Weight,
		}
		if p, ok := catalog[it.ProductID]; ok {
			item.Price = p.Price
			if item.ProductName == "" {
				item.ProductName = p.Name
			}
			if item.Weight <= 0 {
				item.Weight = p.Weight
			}
		} else {
			if it.Price < 0 {
				return nil, badRequest("Item price must not be negative")
			}
			s.logger.Warn("Product not in catalog, using client price",
				zap.Int64("product_id", it.ProductID),
				zap.Int64("price", it.Price),
			)
		}
		if item.ProductName == "" {
			item.ProductName = fmt.Sprintf("Produk #%d", it.ProductID)
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateOrder prices the cart on the server, re-validates the promo and
// persists the order.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, userID *int64) (*models.CreateOrderResult, *ServiceError) {
	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	if email == "" || len(req.Items) == 0 || req.TotalAmount <= 0 {
		return nil, badRequest("Missing required fields: customer_email, items, or total_amount")
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodMidtrans
	}
	if !method.Valid() {
		return nil, badRequest("Invalid payment_method")
	}

	items, serr := s.PriceItems(ctx, req.Items)
	if serr != nil {
		return nil, serr
	}
	subtotal := models.Subtotal(items)

	var discount int64
	promoCode := strings.ToUpper(strings.TrimSpace(req.PromoCode))
	if promoCode != "" {
		applied, serr := s.promos.Validate(ctx, &models.ValidatePromoRequest{Code: promoCode, Subtotal: subtotal})
		if serr != nil {
			return nil, serr
		}
		discount = applied.DiscountAmount
		promoCode = applied.Code
	}
	if req.DiscountAmount != discount {
		s.logger.Warn("Client discount differs from server discount",
			zap.Int64("client", req.DiscountAmount),
			zap.Int64("server", discount),
			zap.String("promo_code", promoCode),
		)
	}

	if req.ShippingCost > 0 {
		s.logger.Info("Using client-declared shipping cost",
			zap.Int64("shipping_cost", req.ShippingCost),
			zap.String("shipping_service", req.ShippingService),
		)
	}

	total, err := models.ComputeTotal(subtotal, req.ShippingCost, discount)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	if req.TotalAmount != total {
		if s.strictTotals {
			return nil, &ServiceError{
				StatusCode: http.StatusUnprocessableEntity,
				Message:    fmt.Sprintf("Total tidak sesuai, seharusnya Rp %s", FormatRupiah(total)),
			}
		}
		s.logger.Warn("Overriding client total",
			zap.Int64("client_total", req.TotalAmount),
			zap.Int64("server_total", total),
		)
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = "Guest"
	}
	order := &models.Order{
		UserID:              userID,
		CustomerName:        name,
		CustomerEmail:       email,
		CustomerPhone:       req.CustomerPhone,
		CustomerAddress:     req.CustomerAddress,
		Subtotal:            subtotal,
		ShippingCost:        req.ShippingCost,
		ShippingService:     req.ShippingService,
		ShippingDestination: req.ShippingDestination,
		PromoCode:           promoCode,
		DiscountAmount:      discount,
		TotalAmount:         total,
		Status:              models.OrderStatusPending,
		PaymentMethod:       method,
		Items:               items,
	}

	return s.persist(ctx, order)
}

func (s *orderServiceImpl) persist(ctx context.Context, order *models.Order) (*models.CreateOrderResult, *ServiceError) {
	result := &models.CreateOrderResult{Order: order, ItemsPersisted: true}

	if err := s.repo.Create(ctx, order); err != nil {
		if !errors.Is(err, repository.ErrItemsNotPersisted) {
			s.logger.Error("Failed to create order", zap.Error(err))
			return nil, internalError("Failed to create order")
		}
		s.logger.Error("Order items not persisted",
			zap.String("order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber),
			zap.Int("items", len(order.Items)),
			zap.Error(err),
		)
		result.ItemsPersisted = false
		result.Warning = msgItemsNotPersisted
		s.events.publishEvent(ctx, models.EventOrderItemsFailed, s.orderEvent(models.EventOrderItemsFailed, order, err.Error()))
	}

	s.metrics.OrderCreated(string(order.PaymentMethod), result.ItemsPersisted)
	s.events.publishEvent(ctx, models.EventOrderCreated, s.orderEvent(models.EventOrderCreated, order, ""))
	s.notifyAsync(order, false)

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_amount", order.TotalAmount),
		zap.String("payment_method", string(order.PaymentMethod)),
	)
	return result, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, email string, page, limit int) ([]models.Order, int64, *ServiceError) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, 0, badRequest("Email parameter required")
	}
	orders, total, err := s.repo.FindByEmail(ctx, email, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.Error(err))
		return nil, 0, internalError("Failed to fetch orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, id string) (*models.Order, *ServiceError) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, badRequest("Invalid order id")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Order not found")
		}
		s.logger.Error("Failed to fetch order", zap.String("order_id", id), zap.Error(err))
		return nil, internalError("Failed to fetch order")
	}
	return order, nil
}

// MarkPaid moves a pending order to paid and announces it. Calling it for an
// order that is already paid is a no-op.
func (s *orderServiceImpl) MarkPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError) {
	err := s.repo.UpdateStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusPaid)
	order, findErr := s.repo.FindByID(ctx, orderID)
	if findErr != nil {
		s.logger.Error("Failed to reload order", zap.String("order_id", orderID.String()), zap.Error(findErr))
		return nil, internalError("Failed to update order")
	}

	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) && order.Status == models.OrderStatusPaid {
			return order, nil
		}
		s.logger.Error("Failed to mark order paid",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(order.Status)),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Order cannot be marked as paid"}
	}

	event := s.orderEvent(models.EventOrderPaid, order, "")
	// the worker redeems queued events; otherwise redeem here. The order:{id}
	// redemption key keeps a later redelivery from counting twice.
	queued := s.events.enabled() && s.events.publishEvent(ctx, models.EventOrderPaid, event) == nil
	if !queued {
		if _, err := s.promos.RedeemForOrder(ctx, order); err != nil {
			s.logger.Error("Inline promo redemption failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}
	s.notifyAsync(order, true)

	s.logger.Info("Order paid", zap.String("order_id", order.ID.String()), zap.String("order_number", order.OrderNumber))
	return order, nil
}

func (s *orderServiceImpl) orderEvent(eventType string, o *models.Order, errMsg string) models.OrderEvent {
	return models.OrderEvent{
		EventType:     eventType,
		OrderID:       o.ID.String(),
		OrderNumber:   o.OrderNumber,
		CustomerEmail: o.CustomerEmail,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		PromoCode:     o.PromoCode,
		Error:         errMsg,
		Timestamp:     time.Now(),
	}
}

func (s *orderServiceImpl) notifyAsync(order *models.Order, receipt bool) {
	if s.notifier == nil {
		return
	}
	send := s.notifier.OrderConfirmation
	if receipt {
		send = s.notifier.PaymentReceipt
	}
	snapshot := *order
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx, &snapshot); err != nil {
			s.logger.Warn("Failed to send order e-mail", zap.String("order_id", snapshot.ID.String()), zap.Error(err))
		}
	}()
}
