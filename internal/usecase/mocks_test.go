package usecase

import (
	"context"
	"time"

	"app/internal/domain/model"
	"app/internal/payment"
	"app/internal/queue"

	"github.com/stretchr/testify/mock"
)

// =====================
// cache.Store mock
// =====================

type StoreMock struct{ mock.Mock }

func (m *StoreMock) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *StoreMock) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *StoreMock) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *StoreMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// =====================
// Repository mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Create(ctx context.Context, user model.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) ListByIDs(ctx context.Context, productIDs []int64) ([]model.Product, error) {
	args := m.Called(ctx, productIDs)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	args := m.Called(ctx, userID)
	ls, _ := args.Get(0).([]model.CartLine)
	return ls, args.Error(1)
}

func (m *CartRepoMock) ListSelectedByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	args := m.Called(ctx, userID)
	ls, _ := args.Get(0).([]model.CartLine)
	return ls, args.Error(1)
}

func (m *CartRepoMock) FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartLine, error) {
	args := m.Called(ctx, userID, productID)
	l, _ := args.Get(0).(model.CartLine)
	return l, args.Error(1)
}

func (m *CartRepoMock) Upsert(ctx context.Context, userID int64, productID int64, quantity int64) error {
	args := m.Called(ctx, userID, productID, quantity)
	return args.Error(0)
}

func (m *CartRepoMock) UpdateQuantity(ctx context.Context, userID int64, productID int64, quantity int64) error {
	args := m.Called(ctx, userID, productID, quantity)
	return args.Error(0)
}

func (m *CartRepoMock) SetSelected(ctx context.Context, userID int64, productID int64, selected bool) error {
	args := m.Called(ctx, userID, productID, selected)
	return args.Error(0)
}

func (m *CartRepoMock) DeleteLine(ctx context.Context, userID int64, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *CartRepoMock) DeleteSelectedByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *CartRepoMock) DeleteByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByReference(ctx context.Context, reference string) (model.Order, bool, error) {
	args := m.Called(ctx, reference)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) FindLatestPendingByUserID(ctx context.Context, userID int64) (model.Order, bool, error) {
	args := m.Called(ctx, userID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, tracking *model.TrackingStatus) error {
	args := m.Called(ctx, orderID, status, tracking)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateTracking(ctx context.Context, orderID int64, tracking model.TrackingStatus) error {
	args := m.Called(ctx, orderID, tracking)
	return args.Error(0)
}

func (m *OrderRepoMock) Delete(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	is, _ := args.Get(0).([]model.OrderItem)
	return is, args.Error(1)
}

type PsvStageRepoMock struct{ mock.Mock }

func (m *PsvStageRepoMock) FindByID(ctx context.Context, stageID int64) (model.PsvStage, error) {
	args := m.Called(ctx, stageID)
	s, _ := args.Get(0).(model.PsvStage)
	return s, args.Error(1)
}

func (m *PsvStageRepoMock) List(ctx context.Context) ([]model.PsvStage, error) {
	args := m.Called(ctx)
	ss, _ := args.Get(0).([]model.PsvStage)
	return ss, args.Error(1)
}

type TransactionRepoMock struct{ mock.Mock }

func (m *TransactionRepoMock) Create(ctx context.Context, tx model.Transaction) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TransactionRepoMock) ListAll(ctx context.Context, page int, limit int) ([]model.Transaction, int64, error) {
	args := m.Called(ctx, page, limit)
	ts, _ := args.Get(0).([]model.Transaction)
	return ts, args.Get(1).(int64), args.Error(2)
}

// =====================
// Dispatcher / Poller / Email mocks
// =====================

type DispatcherMock struct{ mock.Mock }

func (m *DispatcherMock) Dispatch(ctx context.Context, job queue.PaymentJobPayload, wait time.Duration) (PaymentInitResult, error) {
	args := m.Called(ctx, job, wait)
	r, _ := args.Get(0).(PaymentInitResult)
	return r, args.Error(1)
}

type PollerMock struct{ mock.Mock }

func (m *PollerMock) Poll(ctx context.Context, reference string) (payment.PollOutcome, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(payment.PollOutcome), args.Error(1)
}

type EmailEnqueuerMock struct{ mock.Mock }

func (m *EmailEnqueuerMock) EnqueueEmail(ctx context.Context, job queue.EmailJobPayload) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
