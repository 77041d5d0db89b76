package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

const (
	EventChargeSuccess  = "charge.success"
	EventChargeFailed   = "charge.failed"
	EventChargeCanceled = "charge.canceled"
)

// ゲートウェイから届くwebhookペイロード。署名検証はhandlerで済んでいる。
type WebhookEvent struct {
	Event string           `json:"event"`
	Data  WebhookEventData `json:"data"`
}

type WebhookEventData struct {
	Reference string `json:"reference"`
	//ゲートウェイは最小単位で送ってくる
	Amount   int64             `json:"amount"`
	Status   string            `json:"status"`
	Customer WebhookCustomer   `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

type WebhookCustomer struct {
	Email string `json:"email"`
}

// webhook経路の確定処理。ゲートウェイが真実のソースなので、
// ポーリングパスと競合しても実体化はMaterialize側の
// reference重複チェックで一度に収まる。
type WebhookUsecase struct {
	users        repo.UserRepository
	orders       repo.OrderRepository
	carts        repo.CartRepository
	transactions repo.TransactionRepository
	staging      *OrderStagingStore
	guard        *IdempotencyGuard
	materializer *OrderMaterializer
	log          zerolog.Logger
}

func NewWebhookUsecase(
	users repo.UserRepository,
	orders repo.OrderRepository,
	carts repo.CartRepository,
	transactions repo.TransactionRepository,
	staging *OrderStagingStore,
	guard *IdempotencyGuard,
	materializer *OrderMaterializer,
	log zerolog.Logger,
) *WebhookUsecase {
	return &WebhookUsecase{
		users:        users,
		orders:       orders,
		carts:        carts,
		transactions: transactions,
		staging:      staging,
		guard:        guard,
		materializer: materializer,
		log:          log,
	}
}

func (u *WebhookUsecase) Handle(ctx context.Context, ev WebhookEvent) error {
	switch ev.Event {
	case EventChargeSuccess:
		return u.handleChargeSuccess(ctx, ev)
	case EventChargeFailed, EventChargeCanceled:
		return u.handleChargeFailure(ctx, ev)
	default:
		return NewHTTPError(http.StatusBadRequest, "unhandled event type")
	}
}

func (u *WebhookUsecase) handleChargeSuccess(ctx context.Context, ev WebhookEvent) error {
	user, err := u.users.FindByEmail(ctx, ev.Data.Customer.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "user not found for webhook event")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.recordTransaction(ctx, user.ID, ev); err != nil {
		return err
	}

	//workerがmetadataに載せたstaging keyを使って実体化する
	if key := ev.Data.Metadata["order_data_key"]; key != "" {
		pending, err := u.staging.Get(ctx, key)
		if err == nil {
			_, already, mErr := u.materializer.Materialize(ctx, ev.Data.Reference, pending)
			if mErr != nil {
				u.log.Error().Err(mErr).Str("reference", ev.Data.Reference).Msg("webhook materialization failed")
				return NewHTTPError(http.StatusInternalServerError, "order creation failed")
			}
			_ = u.staging.Delete(ctx, key)
			_ = u.guard.Release(ctx, pending.IdempotencyKey)
			if already {
				u.log.Info().Str("reference", ev.Data.Reference).Msg("webhook found order already materialized")
			}
			return nil
		}
		if !errors.Is(err, ErrStagedOrderMissing) {
			return NewHTTPError(http.StatusInternalServerError, "cache error")
		}
		//staged copyはポーリングパスが先に消費した可能性がある
	}

	//staging無しの旧フロー互換: 直近のpending注文を成功へ倒す
	order, found, err := u.orders.FindLatestPendingByUserID(ctx, user.ID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if found {
		tracking := model.TrackingPending
		if err := u.orders.UpdateOrderStatus(ctx, order.ID, model.OrderStatusSuccess, &tracking); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := u.carts.DeleteSelectedByUserID(ctx, user.ID); err != nil {
			u.log.Error().Err(err).Int64("user_id", user.ID).Msg("cart cleanup failed after webhook")
		}
		return nil
	}

	//実体化済み（ポーリングパスが先行）ならここに来るのが正常
	u.log.Info().Str("reference", ev.Data.Reference).Msg("webhook had nothing to materialize")
	return nil
}

func (u *WebhookUsecase) handleChargeFailure(ctx context.Context, ev WebhookEvent) error {
	user, err := u.users.FindByEmail(ctx, ev.Data.Customer.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "user not found for webhook event")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.recordTransaction(ctx, user.ID, ev); err != nil {
		return err
	}

	//staged copyとロックを片付けてリトライ可能にする
	if key := ev.Data.Metadata["order_data_key"]; key != "" {
		if pending, gErr := u.staging.Get(ctx, key); gErr == nil {
			_ = u.staging.Delete(ctx, key)
			_ = u.guard.Release(ctx, pending.IdempotencyKey)
		}
	}

	//旧フローで作られていたpending注文は取り消す
	order, found, err := u.orders.FindLatestPendingByUserID(ctx, user.ID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if found {
		if err := u.orders.Delete(ctx, order.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		u.log.Info().Int64("order_id", order.ID).Str("event", ev.Event).Msg("pending order cancelled")
	}

	return nil
}

func (u *WebhookUsecase) recordTransaction(ctx context.Context, userID int64, ev WebhookEvent) error {
	//最小単位から主単位へ戻して記録する
	_, err := u.transactions.Create(ctx, model.Transaction{
		UserID:    userID,
		Reference: ev.Data.Reference,
		Event:     ev.Event,
		Status:    ev.Data.Status,
		Amount:    ev.Data.Amount / 100,
		Email:     ev.Data.Customer.Email,
	})
	if err != nil {
		u.log.Error().Err(err).Str("reference", ev.Data.Reference).Msg("transaction record failed")
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
