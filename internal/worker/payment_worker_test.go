package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"app/internal/payment"
	"app/internal/queue"
	"app/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Initialize(ctx context.Context, req payment.InitializeRequest) (payment.InitializeResponse, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(payment.InitializeResponse)
	return r, args.Error(1)
}

func (m *GatewayMock) Verify(ctx context.Context, reference string) (payment.VerifyResponse, error) {
	args := m.Called(ctx, reference)
	r, _ := args.Get(0).(payment.VerifyResponse)
	return r, args.Error(1)
}

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

func paymentJob(t *testing.T, p queue.PaymentJobPayload) queue.Job {
	t.Helper()
	raw, err := json.Marshal(p)
	assert.NoError(t, err)
	return queue.Job{ID: "job-1", Type: queue.JobTypePayment, Data: raw}
}

func TestPaymentWorker_ConvertsToMinorUnitsAndRoundTripsKey(t *testing.T) {
	gw := &GatewayMock{}
	store := &StoreMock{}
	w := NewPaymentWorker(gw, usecase.NewIdempotencyGuard(store), zerolog.Nop())

	gw.On("Initialize", mock.Anything, mock.MatchedBy(func(req payment.InitializeRequest) bool {
		return req.Amount == 110000 && // 1100 KES → 110000 cents
			req.Currency == "KES" &&
			len(req.Channels) == 2 &&
			req.Metadata["order_data_key"] == "order_data:k" &&
			req.Metadata["user_id"] == "1"
	})).Return(payment.InitializeResponse{
		AuthorizationURL: "https://checkout.example/x",
		Reference:        "ref-1",
	}, nil)

	job := paymentJob(t, queue.PaymentJobPayload{
		UserID:         1,
		Email:          "a@b.co",
		Amount:         1100,
		IdempotencyKey: "fp-1",
		OrderDataKey:   "order_data:k",
	})

	res, err := w.Handle(context.Background(), job)

	assert.NoError(t, err)
	out, ok := res.(usecase.PaymentInitResult)
	assert.True(t, ok)
	assert.Equal(t, "ref-1", out.Reference)
	assert.Equal(t, "https://checkout.example/x", out.AuthorizationURL)
	//成功時はロックを保持したまま（webhook/検証パスが解放する）
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPaymentWorker_ReleasesLockOnGatewayError(t *testing.T) {
	gw := &GatewayMock{}
	store := &StoreMock{}
	w := NewPaymentWorker(gw, usecase.NewIdempotencyGuard(store), zerolog.Nop())

	gw.On("Initialize", mock.Anything, mock.Anything).Return(payment.InitializeResponse{}, errors.New("gateway 500"))
	store.On("Delete", mock.Anything, "payment_lock:fp-1").Return(nil)

	job := paymentJob(t, queue.PaymentJobPayload{
		UserID:         1,
		Email:          "a@b.co",
		Amount:         500,
		IdempotencyKey: "fp-1",
	})

	_, err := w.Handle(context.Background(), job)

	assert.Error(t, err)
	store.AssertCalled(t, "Delete", mock.Anything, "payment_lock:fp-1")
}

func TestPaymentWorker_RejectsMalformedJob(t *testing.T) {
	gw := &GatewayMock{}
	store := &StoreMock{}
	w := NewPaymentWorker(gw, usecase.NewIdempotencyGuard(store), zerolog.Nop())

	_, err := w.Handle(context.Background(), queue.Job{
		ID:   "job-1",
		Type: queue.JobTypePayment,
		Data: json.RawMessage(`{"user_id":0}`),
	})

	assert.Error(t, err)
	gw.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
}
