package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/payment"
	"app/internal/queue"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

const initializeWaitTimeout = 3 * time.Second

// ポーリング検証の契約。テストで遅延なしに差し替える。
type StatusPoller interface {
	Poll(ctx context.Context, reference string) (payment.PollOutcome, error)
}

// /payment配下のビジネスロジック。初期化（ロック→ジョブ→待ち）と、
// クライアント起点のポーリング検証（staged order消費→実体化）。
type PaymentUsecase struct {
	users        repo.UserRepository
	guard        *IdempotencyGuard
	staging      *OrderStagingStore
	dispatcher   PaymentDispatcher
	poller       StatusPoller
	materializer *OrderMaterializer
	emails       EmailEnqueuer
	log          zerolog.Logger
}

func NewPaymentUsecase(
	users repo.UserRepository,
	guard *IdempotencyGuard,
	staging *OrderStagingStore,
	dispatcher PaymentDispatcher,
	poller StatusPoller,
	materializer *OrderMaterializer,
	emails EmailEnqueuer,
	log zerolog.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		users:        users,
		guard:        guard,
		staging:      staging,
		dispatcher:   dispatcher,
		poller:       poller,
		materializer: materializer,
		emails:       emails,
		log:          log,
	}
}

type InitializePaymentOutput struct {
	Status      string `json:"status"`
	URL         string `json:"url"`
	ReferenceID string `json:"reference_id"`
}

// 金額ベースの初期化。2段階フロー（/orderでstage済み）のクライアント用。
func (u *PaymentUsecase) Initialize(ctx context.Context, userID int64, amount int64) (InitializePaymentOutput, error) {
	if userID <= 0 {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if amount <= 0 {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid amount")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	fingerprint := PaymentFingerprint(userID, amount)
	acquired, err := u.guard.Acquire(ctx, fingerprint)
	if err != nil {
		u.log.Error().Err(err).Int64("user_id", userID).Msg("idempotency lock unavailable")
		return InitializePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "payment processing error")
	}
	if !acquired {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "duplicate payment detected! transaction already processed")
	}

	result, err := u.dispatcher.Dispatch(ctx, queue.PaymentJobPayload{
		UserID:         userID,
		Email:          user.Email,
		Amount:         amount,
		IdempotencyKey: fingerprint,
	}, initializeWaitTimeout)
	if errors.Is(err, ErrDispatchTimeout) {
		_ = u.guard.Release(ctx, fingerprint)
		return InitializePaymentOutput{}, NewHTTPError(http.StatusGatewayTimeout, "payment processing timed out, please retry")
	}
	if err != nil {
		_ = u.guard.Release(ctx, fingerprint)
		u.log.Error().Err(err).Int64("user_id", userID).Msg("payment initialization failed")
		return InitializePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "payment processing error")
	}

	return InitializePaymentOutput{
		Status:      "success",
		URL:         result.AuthorizationURL,
		ReferenceID: result.Reference,
	}, nil
}

type VerifyPaymentOutput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

// クライアント起点の検証パス。staged orderを読み、ゲートウェイへ
// ポーリングし、成功なら注文をちょうど一度だけ実体化する。
func (u *PaymentUsecase) Verify(ctx context.Context, userID int64, referenceID string, orderDataKey string) (VerifyPaymentOutput, error) {
	if userID <= 0 {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if referenceID == "" || orderDataKey == "" {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "referenceId and orderDataKey are required")
	}

	pending, err := u.staging.Get(ctx, orderDataKey)
	if errors.Is(err, ErrStagedOrderMissing) {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "order data expired or missing")
	}
	if err != nil {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "cache error")
	}
	if pending.UserID != userID {
		//他人のstaging keyは存在しない扱い
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "order data expired or missing")
	}

	outcome, err := u.poller.Poll(ctx, referenceID)
	if err != nil && ctx.Err() != nil {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusGatewayTimeout, "payment verification timed out")
	}

	switch outcome {
	case payment.PollSuccess:
		order, already, err := u.materializer.Materialize(ctx, referenceID, pending)
		if err != nil {
			u.log.Error().Err(err).Str("reference", referenceID).Msg("order materialization failed")
			return VerifyPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "order creation failed")
		}
		//消費済みのstaged copyは消す（冪等なので既存注文でも消してよい）
		if dErr := u.staging.Delete(ctx, orderDataKey); dErr != nil {
			u.log.Error().Err(dErr).Str("key", orderDataKey).Msg("staged order delete failed")
		}
		if !already {
			u.sendConfirmation(ctx, order)
		}
		return VerifyPaymentOutput{
			Status:  "success",
			Message: "Payment verified and order created",
			OrderID: order.ID,
		}, nil

	case payment.PollFailed:
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "payment verification failed")

	default:
		//予算内に終端へ到達しなかった。webhookでの収束に任せる。
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusGatewayTimeout, "payment verification timed out")
	}
}

func (u *PaymentUsecase) sendConfirmation(ctx context.Context, order model.Order) {
	user, err := u.users.FindByID(ctx, order.UserID)
	if err != nil {
		u.log.Error().Err(err).Int64("user_id", order.UserID).Msg("confirmation email skipped")
		return
	}
	body := fmt.Sprintf(
		"<p>Your order #%d has been confirmed.</p><p>Total: KES %d (delivery fee KES %d)</p>",
		order.ID, order.TotalPrice, order.DeliveryFee,
	)
	if err := u.emails.EnqueueEmail(ctx, queue.EmailJobPayload{
		To:       user.Email,
		Subject:  "Order confirmation",
		HTMLBody: body,
	}); err != nil {
		u.log.Error().Err(err).Int64("order_id", order.ID).Msg("confirmation email enqueue failed")
	}
}
