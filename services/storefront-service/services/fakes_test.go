package services_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
)

// ---- SNS ----

type mockSNSPublisher struct {
	mu        sync.Mutex
	published []string
	failWith  error
}

func (m *mockSNSPublisher) Publish(ctx context.Context, topicArn string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.published = append(m.published, string(message))
	return nil
}

func (m *mockSNSPublisher) count(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.published {
		if strings.Contains(msg, `"event_type":"`+eventType+`"`) {
			n++
		}
	}
	return n
}

// ---- orders ----

type fakeOrderRepo struct {
	mu         sync.Mutex
	orders     map[uuid.UUID]*models.Order
	failItems  bool
	failCreate error
	seq        int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.seq++
	order.ID = uuid.New()
	order.OrderNumber = models.NewOrderNumber(time.UnixMilli(1760000000000 + r.seq))
	order.CreatedAt = time.Now()
	stored := *order
	if r.failItems {
		stored.Items = nil
		r.orders[order.ID] = &stored
		return fmt.Errorf("%w: connection reset", repository.ErrItemsNotPersisted)
	}
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders[order.ID] = &stored
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) FindByEmail(ctx context.Context, email string, page, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.CustomerEmail == email {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !from.CanTransition(to) {
		return models.ErrInvalidTransition
	}
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return repository.ErrStaleStatus
	}
	o.Status = to
	return nil
}

func (r *fakeOrderRepo) put(o *models.Order) *models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		r.seq++
		o.OrderNumber = models.NewOrderNumber(time.UnixMilli(1760000000000 + r.seq))
	}
	cp := *o
	r.orders[o.ID] = &cp
	return o
}

// ---- products ----

type fakeProductRepo struct {
	products map[int64]models.Product
}

func (r *fakeProductRepo) List(ctx context.Context, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error) {
	var out []models.Product
	for _, p := range r.products {
		if filter.Category == "" || p.Category == filter.Category {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	out := map[int64]models.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// ---- promos ----

type fakePromoRepo struct {
	mu          sync.Mutex
	promos      map[string]*models.Promo
	redemptions map[string]uuid.UUID
}

func newFakePromoRepo(promos ...*models.Promo) *fakePromoRepo {
	r := &fakePromoRepo{promos: map[string]*models.Promo{}, redemptions: map[string]uuid.UUID{}}
	for _, p := range promos {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.promos[strings.ToUpper(p.Code)] = p
	}
	return r
}

func (r *fakePromoRepo) FindByCode(ctx context.Context, code string) (*models.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[strings.ToUpper(code)]
	if !ok || !p.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePromoRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.promos {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePromoRepo) Redeem(ctx context.Context, promoID uuid.UUID, key string, orderID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.redemptions[key]; seen {
		return false, nil
	}
	for _, p := range r.promos {
		if p.ID != promoID {
			continue
		}
		if p.Exhausted() {
			return false, repository.ErrPromoLimitReached
		}
		p.UsedCount++
		r.redemptions[key] = promoID
		return true, nil
	}
	return false, gorm.ErrRecordNotFound
}

func (r *fakePromoRepo) usedCount(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.promos[code].UsedCount
}

// ---- payments ----

type fakePaymentRepo struct {
	mu  sync.Mutex
	txs map[uuid.UUID]*models.PaymentTransaction
	seq int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{txs: map[uuid.UUID]*models.PaymentTransaction{}}
}

func (r *fakePaymentRepo) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.IdempotencyKey == tx.IdempotencyKey {
			return repository.ErrDuplicateIdempotencyKey
		}
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	r.seq++
	tx.CreatedAt = time.Unix(int64(r.seq), 0)
	cp := *tx
	r.txs[tx.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) find(match func(*models.PaymentTransaction) bool) (*models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.PaymentTransaction
	for _, tx := range r.txs {
		if match(tx) && (best == nil || tx.CreatedAt.After(best.CreatedAt)) {
			best = tx
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	return r.find(func(tx *models.PaymentTransaction) bool { return tx.ID == id })
}

func (r *fakePaymentRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.PaymentTransaction, error) {
	return r.find(func(tx *models.PaymentTransaction) bool { return tx.IdempotencyKey == key })
}

func (r *fakePaymentRepo) FindActiveByOrder(ctx context.Context, orderID uuid.UUID, provider models.PaymentProvider) (*models.PaymentTransaction, error) {
	return r.find(func(tx *models.PaymentTransaction) bool {
		return tx.OrderID == orderID && tx.Provider == provider && !tx.Status.IsTerminal()
	})
}

func (r *fakePaymentRepo) FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error) {
	return r.find(func(tx *models.PaymentTransaction) bool { return tx.OrderID == orderID })
}

func (r *fakePaymentRepo) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentTransaction, error) {
	return r.find(func(tx *models.PaymentTransaction) bool { return tx.ProviderOrderID == providerOrderID })
}

func (r *fakePaymentRepo) FindByProviderTransactionID(ctx context.Context, providerTxID string) (*models.PaymentTransaction, error) {
	return r.find(func(tx *models.PaymentTransaction) bool { return tx.ProviderTransactionID == providerTxID })
}

func (r *fakePaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from models.PaymentStatus, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok || tx.Status != from {
		return repository.ErrStaleStatus
	}
	for k, v := range updates {
		switch k {
		case "status":
			tx.Status = v.(models.PaymentStatus)
		case "provider_status":
			tx.ProviderStatus = v.(string)
		case "failure_reason":
			tx.FailureReason = v.(string)
		case "token":
			tx.Token = v.(string)
		case "redirect_url":
			tx.RedirectURL = v.(string)
		case "provider_order_id":
			tx.ProviderOrderID = v.(string)
		case "provider_transaction_id":
			tx.ProviderTransactionID = v.(string)
		case "qr_string":
			tx.QRString = v.(string)
		case "ewallet_type":
			tx.EwalletType = v.(string)
		case "amount":
			tx.Amount = v.(int64)
		case "settled_at":
			tx.SettledAt = v.(*time.Time)
		}
	}
	return nil
}

func (r *fakePaymentRepo) all() []models.PaymentTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.PaymentTransaction, 0, len(r.txs))
	for _, tx := range r.txs {
		out = append(out, *tx)
	}
	return out
}

// ---- gateways ----

type fakeSnap struct {
	mu         sync.Mutex
	calls      int
	createErr  error
	status     *providers.MidtransStatus
	statusErrs []error
	statusHits int
	validSig   bool
	lastReq    providers.SnapRequest
}

func (f *fakeSnap) CreateSnapTransaction(ctx context.Context, req providers.SnapRequest) (*providers.SnapResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &providers.SnapResult{
		Token:           fmt.Sprintf("snap-token-%d", f.calls),
		RedirectURL:     "https://app.sandbox.midtrans.com/snap/v2/vtweb/token",
		ProviderOrderID: "TBS-" + req.OrderRef + "-1",
	}, nil
}

func (f *fakeSnap) GetStatus(ctx context.Context, providerOrderID string) (*providers.MidtransStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusHits++
	if len(f.statusErrs) > 0 {
		err := f.statusErrs[0]
		f.statusErrs = f.statusErrs[1:]
		return nil, err
	}
	return f.status, nil
}

func (f *fakeSnap) VerifySignature(n models.MidtransNotification) bool {
	return f.validSig
}

type fakeQR struct {
	mu        sync.Mutex
	calls     int
	createErr error
	status    string
}

func (f *fakeQR) CreateQR(ctx context.Context, req providers.QRRequest) (*providers.QRResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &providers.QRResult{
		TransactionID: fmt.Sprintf("CFY-%d", f.calls),
		QRString:      "00020101021226670016COM.NOBUBANK.WWW",
		TotalAmount:   req.Amount + 123,
	}, nil
}

func (f *fakeQR) CheckStatus(ctx context.Context, transactionID string) (*providers.QRStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &providers.QRStatus{
		TransactionID: transactionID,
		RawStatus:     f.status,
		Status:        providers.MapCashifyStatus(f.status),
	}, nil
}

// ---- notifier ----

type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []string
	receipts  []string
}

func (n *fakeNotifier) OrderConfirmation(ctx context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, order.OrderNumber)
	return nil
}

func (n *fakeNotifier) PaymentReceipt(ctx context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, order.OrderNumber)
	return nil
}

func (n *fakeNotifier) receiptCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.receipts)
}

func (n *fakeNotifier) confirmedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.confirmed)
}

// ---- users ----

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CreateWithPreferences(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) CreateSession(ctx context.Context, session *models.UserSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockUserRepository) FindActiveSession(ctx context.Context, tokenHash string, userID int64, now time.Time) (*models.UserSession, error) {
	args := m.Called(ctx, tokenHash, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSession), args.Error(1)
}

func (m *MockUserRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

// ---- rates ----

type fakeRates struct {
	quotes  []models.ShippingQuote
	err     error
	lastReq struct {
		origin, destination int64
		weight              int
		courier             string
	}
}

func (f *fakeRates) Provinces(ctx context.Context) ([]models.Province, error) {
	return []models.Province{{ID: 11, Name: "Jawa Timur"}}, f.err
}

func (f *fakeRates) Cities(ctx context.Context, provinceID int64) ([]models.City, error) {
	return []models.City{{ID: 444, Name: "Surabaya"}}, f.err
}

func (f *fakeRates) Districts(ctx context.Context, cityID int64) ([]models.District, error) {
	return []models.District{{ID: 1391, Name: "Gubeng"}}, f.err
}

func (f *fakeRates) Cost(ctx context.Context, origin, destination int64, weight int, courier string) ([]models.ShippingQuote, error) {
	f.lastReq.origin, f.lastReq.destination, f.lastReq.weight, f.lastReq.courier = origin, destination, weight, courier
	return f.quotes, f.err
}
