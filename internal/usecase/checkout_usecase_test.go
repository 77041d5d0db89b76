package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"app/internal/domain/model"
	"app/internal/queue"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type checkoutFixture struct {
	carts      *CartRepoMock
	products   *ProductRepoMock
	stages     *PsvStageRepoMock
	users      *UserRepoMock
	store      *StoreMock
	dispatcher *DispatcherMock
	uc         *CheckoutUsecase
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		carts:      &CartRepoMock{},
		products:   &ProductRepoMock{},
		stages:     &PsvStageRepoMock{},
		users:      &UserRepoMock{},
		store:      &StoreMock{},
		dispatcher: &DispatcherMock{},
	}
	f.uc = NewCheckoutUsecase(
		f.carts, f.products, f.stages, f.users,
		NewIdempotencyGuard(f.store),
		NewOrderStagingStore(f.store),
		f.dispatcher,
		zerolog.Nop(),
	)
	return f
}

func TestCheckout_PSVRequiresStageID(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{
		DeliveryType: "PSV",
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Contains(t, he.Message, "stageId is required")

	//検証で弾いたらキャッシュにもキューにも触らない
	f.store.AssertNotCalled(t, "SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_OutsideNairobiRequiresCounty(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{
		DeliveryType: "Outside Nairobi",
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Contains(t, he.Message, "county is required")
}

func TestCheckout_InvalidDeliveryType(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{
		DeliveryType: "Drone",
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "invalid delivery type", he.Message)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()

	f.carts.On("ListSelectedByUserID", mock.Anything, int64(1)).Return([]model.CartLine{}, nil)

	_, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{
		DeliveryType: "Self Pickup",
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "cart is empty", he.Message)
}

func TestCheckout_Success_TotalsAndDispatch(t *testing.T) {
	f := newCheckoutFixture()

	lines := []model.CartLine{
		{UserID: 1, ProductID: 10, Quantity: 2, SelectedForCheckout: true},
	}
	f.carts.On("ListSelectedByUserID", mock.Anything, int64(1)).Return(lines, nil)
	f.products.On("ListByIDs", mock.Anything, []int64{10}).Return([]model.Product{
		{ID: 10, Name: "Item", Price: 500},
	}, nil)
	f.stages.On("FindByID", mock.Anything, int64(3)).Return(model.PsvStage{
		ID: 3, Name: "Ngara", DeliveryFee: 100,
	}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(model.User{ID: 1, Email: "a@b.co"}, nil)

	//ロック取得OK
	f.store.On("SetNX", mock.Anything, mock.Anything, "Processing", lockTTL).Return(true, nil)
	//staging保存OK
	f.store.On("Set", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > len("order_data:")
	}), mock.Anything, stagingTTL).Return(nil)

	f.dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(job queue.PaymentJobPayload) bool {
		//2×500 + 配送料100
		return job.Amount == 1100 && job.Email == "a@b.co" && job.OrderDataKey != ""
	}), checkoutWaitTimeout).Return(PaymentInitResult{
		AuthorizationURL: "https://checkout.example/abc",
		Reference:        "ref-1",
	}, nil)

	stageID := int64(3)
	out, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{
		DeliveryType: "PSV",
		StageID:      &stageID,
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, int64(1100), out.TotalPrice)
	assert.Equal(t, int64(100), out.DeliveryFee)
	assert.Equal(t, "https://checkout.example/abc", out.URL)
	assert.Equal(t, "ref-1", out.ReferenceID)
	assert.NotEmpty(t, out.OrderDataKey)
	f.dispatcher.AssertExpectations(t)
}

func TestCheckout_SelfPickupHasNoFee(t *testing.T) {
	f := newCheckoutFixture()

	lines := []model.CartLine{{UserID: 1, ProductID: 10, Quantity: 2}}
	f.carts.On("ListSelectedByUserID", mock.Anything, int64(1)).Return(lines, nil)
	f.products.On("ListByIDs", mock.Anything, []int64{10}).Return([]model.Product{{ID: 10, Price: 500}}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(model.User{ID: 1, Email: "a@b.co"}, nil)
	f.store.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(PaymentInitResult{
		AuthorizationURL: "https://checkout.example/abc",
		Reference:        "ref-1",
	}, nil)

	out, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{DeliveryType: "Self Pickup"})

	assert.NoError(t, err)
	assert.Equal(t, int64(1000), out.TotalPrice)
	assert.Equal(t, int64(0), out.DeliveryFee)
	f.stages.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCheckout_DuplicateLockRejected(t *testing.T) {
	f := newCheckoutFixture()

	lines := []model.CartLine{{UserID: 1, ProductID: 10, Quantity: 1}}
	f.carts.On("ListSelectedByUserID", mock.Anything, int64(1)).Return(lines, nil)
	f.products.On("ListByIDs", mock.Anything, []int64{10}).Return([]model.Product{{ID: 10, Price: 500}}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(model.User{ID: 1, Email: "a@b.co"}, nil)

	//既にロックが居る
	f.store.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	_, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{DeliveryType: "Self Pickup"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "duplicate payment detected! transaction already processed", he.Message)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_LockUnavailableIsHardFailure(t *testing.T) {
	f := newCheckoutFixture()

	lines := []model.CartLine{{UserID: 1, ProductID: 10, Quantity: 1}}
	f.carts.On("ListSelectedByUserID", mock.Anything, int64(1)).Return(lines, nil)
	f.products.On("ListByIDs", mock.Anything, []int64{10}).Return([]model.Product{{ID: 10, Price: 500}}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(model.User{ID: 1, Email: "a@b.co"}, nil)

	f.store.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))

	_, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{DeliveryType: "Self Pickup"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_DispatchTimeoutReleasesLock(t *testing.T) {
	f := newCheckoutFixture()

	lines := []model.CartLine{{UserID: 1, ProductID: 10, Quantity: 1}}
	f.carts.On("ListSelectedByUserID", mock.Anything, int64(1)).Return(lines, nil)
	f.products.On("ListByIDs", mock.Anything, []int64{10}).Return([]model.Product{{ID: 10, Price: 500}}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(model.User{ID: 1, Email: "a@b.co"}, nil)

	f.store.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("Delete", mock.Anything, mock.Anything).Return(nil)

	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(PaymentInitResult{}, ErrDispatchTimeout)

	_, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{DeliveryType: "Self Pickup"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusGatewayTimeout, he.Status)

	//ロックは解放されてリトライ可能になる
	fp := OrderFingerprint(1, 500, lines)
	f.store.AssertCalled(t, "Delete", mock.Anything, "payment_lock:"+fp)
}

func TestCheckout_StagingFailureReleasesLock(t *testing.T) {
	f := newCheckoutFixture()

	lines := []model.CartLine{{UserID: 1, ProductID: 10, Quantity: 1}}
	f.carts.On("ListSelectedByUserID", mock.Anything, int64(1)).Return(lines, nil)
	f.products.On("ListByIDs", mock.Anything, []int64{10}).Return([]model.Product{{ID: 10, Price: 500}}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(model.User{ID: 1, Email: "a@b.co"}, nil)

	f.store.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	f.store.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := f.uc.Checkout(context.Background(), 1, CheckoutInput{DeliveryType: "Self Pickup"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	f.store.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderFingerprint_StableAcrossLineOrder(t *testing.T) {
	a := []model.CartLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}
	b := []model.CartLine{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	}
	assert.Equal(t, OrderFingerprint(7, 900, a), OrderFingerprint(7, 900, b))
}

func TestOrderFingerprint_DiffersByContent(t *testing.T) {
	a := []model.CartLine{{ProductID: 1, Quantity: 2}}
	b := []model.CartLine{{ProductID: 1, Quantity: 3}}
	assert.NotEqual(t, OrderFingerprint(7, 900, a), OrderFingerprint(7, 900, b))
	assert.NotEqual(t, OrderFingerprint(7, 900, a), OrderFingerprint(8, 900, a))
}
