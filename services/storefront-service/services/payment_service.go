package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	aws_pkg "github.com/tobaccostore/backend/pkg/aws"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
)

var ErrPaymentTransition = errors.New("invalid payment status transition")

const qrURLExpiry = time.Hour

// PaymentService initiates provider payments and folds every status report
// into the transaction state machine.
type PaymentService interface {
	CreateSnap(ctx context.Context, req *models.SnapPaymentRequest, idempotencyKey string) (*models.PaymentResponse, *ServiceError)
	CreateCashify(ctx context.Context, req *models.CashifyPaymentRequest, idempotencyKey string) (*models.PaymentResponse, *ServiceError)
	CheckStatus(ctx context.Context, req *models.PaymentStatusRequest) (*models.PaymentResponse, *ServiceError)
	HandleCallback(ctx context.Context, req *models.PaymentCallbackRequest) (*models.PaymentResponse, *ServiceError)
	HandleNotification(ctx context.Context, n *models.MidtransNotification) *ServiceError
	QRImage(ctx context.Context, transactionID string) ([]byte, *ServiceError)
	ApplyEvent(ctx context.Context, tx *models.PaymentTransaction, next models.PaymentStatus, providerStatus string) (*models.PaymentTransaction, error)
	MarkFailed(ctx context.Context, transactionID string, reason string) error
}

// PaymentServiceConfig wires the payment service. Snap, QR and Objects may
// be nil when the corresponding provider or bucket is not configured.
type PaymentServiceConfig struct {
	Repo        repository.PaymentRepository
	OrderRepo   repository.OrderRepository
	Orders      OrderService
	Snap        providers.SnapGateway
	QR          providers.QRGateway
	Idempotency *repository.IdempotencyStore
	Objects     aws_pkg.ObjectStore
	SNS         aws_pkg.SNSPublisher
	TopicArn    string
	Metrics     *Metrics
	Logger      *zap.Logger

	RetryInitial time.Duration
	RetryMax     time.Duration
	RetryTimes   int32
}

type paymentServiceImpl struct {
	repo      repository.PaymentRepository
	orderRepo repository.OrderRepository
	orders    OrderService
	snap      providers.SnapGateway
	qr        providers.QRGateway
	idem      *repository.IdempotencyStore
	objects   aws_pkg.ObjectStore
	events    eventPublisher
	metrics   *Metrics
	logger    *zap.Logger

	retryInitial time.Duration
	retryMax     time.Duration
	retryTimes   int32
}

func NewPaymentService(cfg PaymentServiceConfig) PaymentService {
	s := &paymentServiceImpl{
		repo:         cfg.Repo,
		orderRepo:    cfg.OrderRepo,
		orders:       cfg.Orders,
		snap:         cfg.Snap,
		qr:           cfg.QR,
		idem:         cfg.Idempotency,
		objects:      cfg.Objects,
		events:       eventPublisher{snsClient: cfg.SNS, snsTopicArn: cfg.TopicArn, logger: cfg.Logger},
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		retryInitial: cfg.RetryInitial,
		retryMax:     cfg.RetryMax,
		retryTimes:   cfg.RetryTimes,
	}
	if s.retryInitial <= 0 {
		s.retryInitial = 200 * time.Millisecond
	}
	if s.retryMax <= 0 {
		s.retryMax = 2 * time.Second
	}
	if s.retryTimes <= 0 {
		s.retryTimes = 3
	}
	return s
}

// ---- initiation ----

func (s *paymentServiceImpl) CreateSnap(ctx context.Context, req *models.SnapPaymentRequest, idempotencyKey string) (*models.PaymentResponse, *ServiceError) {
	if s.snap == nil {
		return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Midtrans not configured"}
	}
	if idempotencyKey == "" {
		idempotencyKey = req.IdempotencyKey
	}

	return s.initiate(ctx, models.ProviderMidtrans, req.OrderID, req.Amount, idempotencyKey,
		func(order *models.Order, tx *models.PaymentTransaction) (map[string]interface{}, error) {
			customer := models.PaymentCustomer{
				Name:    order.CustomerName,
				Email:   order.CustomerEmail,
				Phone:   order.CustomerPhone,
				Address: order.CustomerAddress,
			}
			if req.Customer != nil {
				customer = mergeCustomer(customer, *req.Customer)
			}

			result, err := s.snap.CreateSnapTransaction(ctx, providers.SnapRequest{
				OrderRef: order.OrderNumber,
				Amount:   order.TotalAmount,
				Customer: customer,
				Items:    snapItems(order),
			})
			if err != nil {
				return nil, err
			}
			tx.Token = result.Token
			tx.RedirectURL = result.RedirectURL
			tx.ProviderOrderID = result.ProviderOrderID
			return map[string]interface{}{
				"token":             result.Token,
				"redirect_url":      result.RedirectURL,
				"provider_order_id": result.ProviderOrderID,
			}, nil
		})
}

func (s *paymentServiceImpl) CreateCashify(ctx context.Context, req *models.CashifyPaymentRequest, idempotencyKey string) (*models.PaymentResponse, *ServiceError) {
	if s.qr == nil {
		return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Cashify not configured"}
	}
	if idempotencyKey == "" {
		idempotencyKey = req.IdempotencyKey
	}
	ewallet := req.EwalletType
	if ewallet == "" {
		ewallet = "qris"
	}

	resp, serr := s.initiate(ctx, models.ProviderCashify, req.OrderID, req.Amount, idempotencyKey,
		func(order *models.Order, tx *models.PaymentTransaction) (map[string]interface{}, error) {
			result, err := s.qr.CreateQR(ctx, providers.QRRequest{
				OrderID:     order.OrderNumber,
				Amount:      order.TotalAmount,
				EwalletType: ewallet,
			})
			if err != nil {
				return nil, err
			}
			tx.ProviderTransactionID = result.TransactionID
			tx.QRString = result.QRString
			tx.RedirectURL = result.RedirectURL
			tx.EwalletType = ewallet
			updates := map[string]interface{}{
				"provider_transaction_id": result.TransactionID,
				"qr_string":               result.QRString,
				"redirect_url":            result.RedirectURL,
				"ewallet_type":            ewallet,
			}
			if result.TotalAmount > 0 {
				// includes the provider's unique code
				tx.Amount = result.TotalAmount
				updates["amount"] = result.TotalAmount
			}
			return updates, nil
		})
	if serr != nil {
		return nil, serr
	}
	if resp.QRString != "" {
		resp.QRImageURL = s.qrImageURL(ctx, resp)
	}
	return resp, nil
}

type initiateFunc func(order *models.Order, tx *models.PaymentTransaction) (map[string]interface{}, error)

// initiate runs the shared initiation flow: replay by idempotency key, load
// the order, record the transaction, call the provider once.
func (s *paymentServiceImpl) initiate(
	ctx context.Context,
	provider models.PaymentProvider,
	rawOrderID string,
	clientAmount int64,
	idempotencyKey string,
	call initiateFunc,
) (*models.PaymentResponse, *ServiceError) {
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return nil, badRequest("Invalid order_id")
	}

	if existing, serr := s.replay(ctx, orderID, provider, idempotencyKey); serr != nil {
		return nil, serr
	} else if existing != nil {
		return existing, nil
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Order not found")
		}
		s.logger.Error("Failed to load order for payment", zap.String("order_id", rawOrderID), zap.Error(err))
		return nil, internalError("Failed to create payment")
	}
	if order.PaymentMethod == models.PaymentMethodCOD {
		return nil, badRequest("Order is cash on delivery")
	}
	if order.Status != models.OrderStatusPending {
		return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Order is not awaiting payment"}
	}
	if clientAmount != 0 && clientAmount != order.TotalAmount {
		s.logger.Warn("Ignoring client amount",
			zap.String("order_id", rawOrderID),
			zap.Int64("client_amount", clientAmount),
			zap.Int64("order_total", order.TotalAmount),
		)
	}

	key := idempotencyKey
	if key == "" {
		key = "auto:" + shortuuid.New()
	}
	tx := &models.PaymentTransaction{
		OrderID:        order.ID,
		Provider:       provider,
		IdempotencyKey: key,
		Amount:         order.TotalAmount,
		Status:         models.PaymentStatusInitiated,
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
			// a concurrent request with the same key won
			if prior, findErr := s.repo.FindByIdempotencyKey(ctx, key); findErr == nil {
				if serr := checkKeyOwner(prior, orderID, provider); serr != nil {
					return nil, serr
				}
				return s.toResponse(prior, "Payment already initiated"), nil
			}
		}
		s.logger.Error("Failed to create payment transaction", zap.String("order_id", rawOrderID), zap.Error(err))
		return nil, internalError("Failed to create payment")
	}
	if err := s.idem.Set(ctx, key, tx.ID.String()); err != nil {
		s.logger.Warn("Failed to cache idempotency key", zap.String("key", key), zap.Error(err))
	}

	updates, callErr := call(order, tx)
	if callErr != nil {
		reason := callErr.Error()
		if _, err := s.transition(ctx, tx, models.PaymentStatusFailed, "", map[string]interface{}{"failure_reason": reason}); err != nil {
			s.logger.Error("Failed to record payment failure", zap.String("transaction_id", tx.ID.String()), zap.Error(err))
		}
		s.logger.Error("Payment initiation failed",
			zap.String("order_id", rawOrderID),
			zap.String("provider", string(provider)),
			zap.Error(callErr),
		)
		return nil, gatewayError(callErr)
	}

	updated, err := s.transition(ctx, tx, models.PaymentStatusAwaitingProvider, "", updates)
	if err != nil {
		s.logger.Error("Failed to record payment artifact", zap.String("transaction_id", tx.ID.String()), zap.Error(err))
		return nil, internalError("Failed to create payment")
	}

	s.logger.Info("Payment initiated",
		zap.String("transaction_id", updated.ID.String()),
		zap.String("order_id", rawOrderID),
		zap.String("provider", string(provider)),
		zap.Int64("amount", updated.Amount),
	)
	return s.toResponse(updated, ""), nil
}

// replay returns the stored transaction for a repeated idempotency key or,
// without a key, the order's open transaction for the provider. A key that
// belongs to another order or provider is a 409.
func (s *paymentServiceImpl) replay(ctx context.Context, orderID uuid.UUID, provider models.PaymentProvider, key string) (*models.PaymentResponse, *ServiceError) {
	if key == "" {
		tx, err := s.repo.FindActiveByOrder(ctx, orderID, provider)
		if err != nil {
			return nil, nil
		}
		return s.toResponse(tx, "Payment already initiated"), nil
	}

	if cached, err := s.idem.Get(ctx, key); err != nil {
		s.logger.Warn("Idempotency cache unavailable", zap.Error(err))
	} else if cached != "" {
		if id, err := uuid.Parse(cached); err == nil {
			if tx, err := s.repo.FindByID(ctx, id); err == nil {
				if serr := checkKeyOwner(tx, orderID, provider); serr != nil {
					return nil, serr
				}
				return s.toResponse(tx, "Payment already initiated"), nil
			}
		}
	}

	tx, err := s.repo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, nil
	}
	if serr := checkKeyOwner(tx, orderID, provider); serr != nil {
		return nil, serr
	}
	if err := s.idem.Set(ctx, key, tx.ID.String()); err != nil {
		s.logger.Warn("Failed to cache idempotency key", zap.String("key", key), zap.Error(err))
	}
	return s.toResponse(tx, "Payment already initiated"), nil
}

func checkKeyOwner(tx *models.PaymentTransaction, orderID uuid.UUID, provider models.PaymentProvider) *ServiceError {
	if tx.OrderID != orderID || tx.Provider != provider {
		return &ServiceError{StatusCode: http.StatusConflict, Message: "Idempotency key already used for another payment"}
	}
	return nil
}

// ---- status ----

// CheckStatus reads the provider status of a transaction, by Cashify
// transaction id or by order id, and applies it.
func (s *paymentServiceImpl) CheckStatus(ctx context.Context, req *models.PaymentStatusRequest) (*models.PaymentResponse, *ServiceError) {
	var (
		tx  *models.PaymentTransaction
		err error
	)
	switch {
	case req.TransactionID != "":
		tx, err = s.repo.FindByProviderTransactionID(ctx, req.TransactionID)
	case req.OrderID != "":
		orderID, parseErr := uuid.Parse(req.OrderID)
		if parseErr != nil {
			return nil, badRequest("Invalid order_id")
		}
		tx, err = s.repo.FindLatestByOrderID(ctx, orderID)
	default:
		return nil, badRequest("Missing transactionId")
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Transaction not found")
		}
		s.logger.Error("Failed to load transaction", zap.Error(err))
		return nil, internalError("Failed to check payment status")
	}

	return s.refresh(ctx, tx)
}

// refresh reads the provider status of an open transaction and applies it.
func (s *paymentServiceImpl) refresh(ctx context.Context, tx *models.PaymentTransaction) (*models.PaymentResponse, *ServiceError) {
	if tx.Status.IsTerminal() || tx.Status == models.PaymentStatusInitiated {
		return s.toResponse(tx, ""), nil
	}

	next, providerStatus, err := s.readProviderStatus(ctx, tx)
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		var bizErr *providers.BusinessError
		if errors.As(err, &bizErr) && bizErr.Code == http.StatusNotFound {
			// the payer has not picked a method yet
			return s.toResponse(tx, ""), nil
		}
		s.logger.Warn("Payment status read failed", zap.String("transaction_id", tx.ID.String()), zap.Error(err))
		return nil, upstreamError(err, "Failed to check payment status")
	}
	if next == "" {
		return s.toResponse(tx, ""), nil
	}

	updated, err := s.ApplyEvent(ctx, tx, next, providerStatus)
	if err != nil {
		s.logger.Warn("Status not applied",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("next", string(next)),
			zap.Error(err),
		)
		return s.toResponse(tx, ""), nil
	}
	return s.toResponse(updated, ""), nil
}

// readProviderStatus returns the mapped status, or "" when the provider
// answered with a status this service does not know.
func (s *paymentServiceImpl) readProviderStatus(ctx context.Context, tx *models.PaymentTransaction) (models.PaymentStatus, string, error) {
	switch tx.Provider {
	case models.ProviderCashify:
		if s.qr == nil {
			return "", "", &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Cashify not configured"}
		}
		var st *providers.QRStatus
		err := s.withRetry(ctx, func() error {
			var err error
			st, err = s.qr.CheckStatus(ctx, tx.ProviderTransactionID)
			return err
		})
		if err != nil {
			return "", "", err
		}
		return st.Status, st.RawStatus, nil

	case models.ProviderMidtrans:
		if s.snap == nil {
			return "", "", &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Midtrans not configured"}
		}
		var st *providers.MidtransStatus
		err := s.withRetry(ctx, func() error {
			var err error
			st, err = s.snap.GetStatus(ctx, tx.ProviderOrderID)
			return err
		})
		if err != nil {
			return "", "", err
		}
		next, ok := providers.MapMidtransStatus(st.TransactionStatus, st.FraudStatus)
		if !ok {
			s.logger.Warn("Unknown Midtrans status",
				zap.String("transaction_status", st.TransactionStatus),
				zap.String("provider_order_id", tx.ProviderOrderID),
			)
			return "", st.TransactionStatus, nil
		}
		return next, st.TransactionStatus, nil
	}
	return "", "", fmt.Errorf("unknown provider %q", tx.Provider)
}

// HandleCallback accepts what the Snap UI reports. The report is only a hint:
// success, pending and error are all confirmed with the status API.
func (s *paymentServiceImpl) HandleCallback(ctx context.Context, req *models.PaymentCallbackRequest) (*models.PaymentResponse, *ServiceError) {
	tx, serr := s.findMidtransTransaction(ctx, req.OrderID)
	if serr != nil {
		return nil, serr
	}

	switch req.Event {
	case "close":
		// the payer closed the popup; the transaction stays open
		return s.toResponse(tx, "Pembayaran belum selesai"), nil
	case "error":
		s.logger.Info("Snap reported an error, confirming with provider",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("status_code", req.StatusCode),
		)
	}
	return s.refresh(ctx, tx)
}

// HandleNotification verifies and applies a Midtrans HTTP notification.
func (s *paymentServiceImpl) HandleNotification(ctx context.Context, n *models.MidtransNotification) *ServiceError {
	if s.snap == nil {
		return &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Midtrans not configured"}
	}
	if !s.snap.VerifySignature(*n) {
		s.logger.Warn("Midtrans notification signature mismatch", zap.String("order_id", n.OrderID))
		return &ServiceError{StatusCode: http.StatusUnauthorized, Message: "Invalid signature"}
	}

	next, ok := providers.MapMidtransStatus(n.TransactionStatus, n.FraudStatus)
	if !ok {
		s.logger.Warn("Ignoring unknown Midtrans status",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_status", n.TransactionStatus),
		)
		return nil
	}

	tx, err := s.repo.FindByProviderOrderID(ctx, n.OrderID)
	if err != nil {
		if repository.IsNotFound(err) {
			s.logger.Warn("Notification for unknown transaction", zap.String("order_id", n.OrderID))
			return nil
		}
		s.logger.Error("Failed to load transaction", zap.String("order_id", n.OrderID), zap.Error(err))
		return internalError("Failed to process notification")
	}

	if _, err := s.ApplyEvent(ctx, tx, next, n.TransactionStatus); err != nil {
		s.logger.Warn("Notification not applied",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_status", n.TransactionStatus),
			zap.Error(err),
		)
	}
	return nil
}

func (s *paymentServiceImpl) findMidtransTransaction(ctx context.Context, ref string) (*models.PaymentTransaction, *ServiceError) {
	var (
		tx  *models.PaymentTransaction
		err error
	)
	if orderID, parseErr := uuid.Parse(ref); parseErr == nil {
		tx, err = s.repo.FindActiveByOrder(ctx, orderID, models.ProviderMidtrans)
		if repository.IsNotFound(err) {
			tx, err = s.repo.FindLatestByOrderID(ctx, orderID)
		}
	} else {
		tx, err = s.repo.FindByProviderOrderID(ctx, ref)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Transaction not found")
		}
		s.logger.Error("Failed to load transaction", zap.String("ref", ref), zap.Error(err))
		return nil, internalError("Failed to process callback")
	}
	return tx, nil
}

// ---- state machine ----

// ApplyEvent is the single sink for status reports. Events for terminal
// transactions and repeats of the current status are no-ops.
func (s *paymentServiceImpl) ApplyEvent(ctx context.Context, tx *models.PaymentTransaction, next models.PaymentStatus, providerStatus string) (*models.PaymentTransaction, error) {
	if tx.Status.IsTerminal() {
		s.logger.Info("Ignoring event for terminal transaction",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("status", string(tx.Status)),
			zap.String("event", string(next)),
		)
		return tx, nil
	}
	if tx.Status == next {
		return tx, nil
	}

	var extra map[string]interface{}
	if next == models.PaymentStatusFailed && providerStatus != "" {
		extra = map[string]interface{}{"failure_reason": providerStatus}
	}
	return s.transition(ctx, tx, next, providerStatus, extra)
}

func (s *paymentServiceImpl) transition(
	ctx context.Context,
	tx *models.PaymentTransaction,
	next models.PaymentStatus,
	providerStatus string,
	extra map[string]interface{},
) (*models.PaymentTransaction, error) {
	from := tx.Status
	if !from.CanTransition(next) {
		return tx, fmt.Errorf("%w: %s -> %s", ErrPaymentTransition, from, next)
	}

	updates := map[string]interface{}{"status": next}
	for k, v := range extra {
		updates[k] = v
	}
	if providerStatus != "" {
		updates["provider_status"] = providerStatus
	}
	now := time.Now()
	if next == models.PaymentStatusSucceeded {
		updates["settled_at"] = &now
	}

	if err := s.repo.UpdateStatus(ctx, tx.ID, from, updates); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			s.logger.Info("Duplicate payment event",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("from", string(from)),
				zap.String("to", string(next)),
			)
			return s.repo.FindByID(ctx, tx.ID)
		}
		return tx, err
	}

	updated := *tx
	updated.Status = next
	if providerStatus != "" {
		updated.ProviderStatus = providerStatus
	}
	if next == models.PaymentStatusSucceeded {
		updated.SettledAt = &now
	}
	if reason, ok := extra["failure_reason"].(string); ok {
		updated.FailureReason = reason
	}
	if amount, ok := extra["amount"].(int64); ok {
		updated.Amount = amount
	}

	s.metrics.PaymentTransition(string(tx.Provider), string(next))
	s.events.publishEvent(ctx, models.EventPaymentStatusChanged, models.PaymentEvent{
		EventType:      models.EventPaymentStatusChanged,
		TransactionID:  tx.ID.String(),
		OrderID:        tx.OrderID.String(),
		Provider:       tx.Provider,
		From:           from,
		To:             next,
		ProviderStatus: providerStatus,
		Amount:         updated.Amount,
		Timestamp:      now,
	})

	if next == models.PaymentStatusSucceeded && s.orders != nil {
		if _, serr := s.orders.MarkPaid(ctx, tx.OrderID); serr != nil {
			s.logger.Error("Payment succeeded but order not marked paid",
				zap.String("order_id", tx.OrderID.String()),
				zap.String("error", serr.Message),
			)
		}
	}
	return &updated, nil
}

// MarkFailed fails an open transaction; used to compensate a checkout.
// transactionID is the local id or, for Cashify, the provider's id.
func (s *paymentServiceImpl) MarkFailed(ctx context.Context, transactionID string, reason string) error {
	var (
		tx  *models.PaymentTransaction
		err error
	)
	if id, parseErr := uuid.Parse(transactionID); parseErr == nil {
		tx, err = s.repo.FindByID(ctx, id)
	} else {
		tx, err = s.repo.FindByProviderTransactionID(ctx, transactionID)
	}
	if err != nil {
		return err
	}
	if tx.Status.IsTerminal() {
		return nil
	}
	_, err = s.transition(ctx, tx, models.PaymentStatusFailed, "", map[string]interface{}{"failure_reason": reason})
	return err
}

// ---- QR ----

// QRImage renders the stored QR string of a Cashify transaction as PNG.
func (s *paymentServiceImpl) QRImage(ctx context.Context, transactionID string) ([]byte, *ServiceError) {
	tx, err := s.repo.FindByProviderTransactionID(ctx, transactionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Transaction not found")
		}
		return nil, internalError("Failed to load transaction")
	}
	if tx.QRString == "" {
		return nil, notFound("QR not available")
	}
	png, err := qrcode.Encode(tx.QRString, qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("Failed to render QR", zap.String("transaction_id", transactionID), zap.Error(err))
		return nil, internalError("Failed to render QR")
	}
	return png, nil
}

// qrImageURL archives the QR PNG and returns a presigned link, falling back
// to the local render route.
func (s *paymentServiceImpl) qrImageURL(ctx context.Context, resp *models.PaymentResponse) string {
	local := "/payment/cashify/" + resp.TransactionID + "/qr.png"
	if s.objects == nil {
		return local
	}
	png, err := qrcode.Encode(resp.QRString, qrcode.Medium, 256)
	if err != nil {
		return local
	}
	key := "qr/" + resp.TransactionID + ".png"
	if err := s.objects.PutObject(ctx, key, "image/png", png); err != nil {
		s.logger.Warn("Failed to archive QR", zap.String("key", key), zap.Error(err))
		return local
	}
	url, err := s.objects.PresignGet(ctx, key, qrURLExpiry)
	if err != nil {
		s.logger.Warn("Failed to presign QR", zap.String("key", key), zap.Error(err))
		return local
	}
	return url
}

// ---- helpers ----

// withRetry retries idempotent provider reads with exponential backoff.
// Business rejections are returned at once.
func (s *paymentServiceImpl) withRetry(ctx context.Context, op func() error) error {
	strategy, err := retry.NewExponentialBackoffRetryStrategy(s.retryInitial, s.retryMax, s.retryTimes)
	if err != nil {
		return op()
	}
	for {
		err := op()
		if err == nil {
			return nil
		}
		var bizErr *providers.BusinessError
		if errors.As(err, &bizErr) {
			return err
		}
		next, ok := strategy.Next()
		if !ok {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
		}
	}
}

func (s *paymentServiceImpl) toResponse(tx *models.PaymentTransaction, message string) *models.PaymentResponse {
	outcome := models.OutcomeFor(tx.Status)
	resp := &models.PaymentResponse{
		TransactionID:   tx.ID.String(),
		OrderID:         tx.OrderID.String(),
		ProviderOrderID: tx.ProviderOrderID,
		Status:          tx.Status,
		Outcome:         outcome,
		ClearCart:       outcome.ClearsCart(),
		Amount:          tx.Amount,
		Token:           tx.Token,
		RedirectURL:     tx.RedirectURL,
		QRString:        tx.QRString,
		Message:         message,
	}
	if tx.Provider == models.ProviderCashify && tx.ProviderTransactionID != "" {
		resp.TransactionID = tx.ProviderTransactionID
	}
	if resp.Message == "" && tx.Status == models.PaymentStatusFailed {
		resp.Message = tx.FailureReason
	}
	return resp
}

// gatewayError maps an initiation failure. Non-2xx answers keep their HTTP
// status in the message.
func gatewayError(err error) *ServiceError {
	var transportErr *providers.TransportError
	if errors.As(err, &transportErr) {
		msg := "Payment gateway error: unreachable"
		if transportErr.StatusCode > 0 {
			msg = fmt.Sprintf("Payment gateway error: %d", transportErr.StatusCode)
		}
		return &ServiceError{StatusCode: http.StatusBadGateway, Message: msg, Retryable: true}
	}
	return upstreamError(err, "Payment gateway error")
}

func snapItems(order *models.Order) []providers.SnapItem {
	items := make([]providers.SnapItem, 0, len(order.Items)+2)
	for _, it := range order.Items {
		items = append(items, providers.SnapItem{
			ID:       fmt.Sprintf("%d", it.ProductID),
			Price:    it.Price,
			Quantity: it.Quantity,
			Name:     it.ProductName,
		})
	}
	if len(items) == 0 {
		// header without lines: one line carrying the order value
		return []providers.SnapItem{{ID: order.OrderNumber, Price: order.TotalAmount, Quantity: 1, Name: "Pesanan " + order.OrderNumber}}
	}
	if order.ShippingCost > 0 {
		items = append(items, providers.SnapItem{ID: "SHIPPING", Price: order.ShippingCost, Quantity: 1, Name: "Ongkos Kirim"})
	}
	if order.DiscountAmount > 0 {
		items = append(items, providers.SnapItem{ID: "DISCOUNT", Price: -order.DiscountAmount, Quantity: 1, Name: "Diskon"})
	}
	return items
}

func mergeCustomer(base, override models.PaymentCustomer) models.PaymentCustomer {
	if strings.TrimSpace(override.Name) != "" {
		base.Name = override.Name
	}
	if override.Email != "" {
		base.Email = override.Email
	}
	if override.Phone != "" {
		base.Phone = override.Phone
	}
	if override.Address != "" {
		base.Address = override.Address
	}
	return base
}
