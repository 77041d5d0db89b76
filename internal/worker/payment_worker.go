package worker

import (
	"context"
	"fmt"
	"strconv"

	"app/internal/payment"
	"app/internal/queue"
	"app/internal/usecase"

	"github.com/rs/zerolog"
)

// 支払いジョブの消費側。ゲートウェイに課金初期化を投げ、
// redirect URLとreferenceをジョブ結果として返す。
// 失敗時はfingerprintのロックを消してユーザーがリトライできるようにする。
type PaymentWorker struct {
	gw    payment.Gateway
	guard *usecase.IdempotencyGuard
	log   zerolog.Logger
}

func NewPaymentWorker(gw payment.Gateway, guard *usecase.IdempotencyGuard, log zerolog.Logger) *PaymentWorker {
	return &PaymentWorker{gw: gw, guard: guard, log: log}
}

func (w *PaymentWorker) Handle(ctx context.Context, job queue.Job) (interface{}, error) {
	p, err := queue.DecodePayment(job.Data)
	if err != nil {
		return nil, err
	}

	//主単位→最小単位（KESはセント）
	amountMinor := p.Amount * 100

	metadata := map[string]string{
		"user_id":    strconv.FormatInt(p.UserID, 10),
		"user_email": p.Email,
	}
	if p.OrderDataKey != "" {
		//webhookがstaged orderを見つけられるようにkeyを往復させる
		metadata["order_data_key"] = p.OrderDataKey
	}

	res, err := w.gw.Initialize(ctx, payment.InitializeRequest{
		Email:    p.Email,
		Amount:   amountMinor,
		Currency: "KES",
		Channels: []string{"card", "mobile_money"},
		Metadata: metadata,
	})
	if err != nil {
		//ロックを解放しないとTTLが切れるまでユーザーが締め出される
		if rErr := w.guard.Release(ctx, p.IdempotencyKey); rErr != nil {
			w.log.Error().Err(rErr).Str("job_id", job.ID).Msg("lock release failed after gateway error")
		}
		return nil, fmt.Errorf("gateway initialize: %w", err)
	}

	w.log.Info().
		Str("job_id", job.ID).
		Int64("user_id", p.UserID).
		Str("reference", res.Reference).
		Msg("payment initialized")

	return usecase.PaymentInitResult{
		AuthorizationURL: res.AuthorizationURL,
		Reference:        res.Reference,
	}, nil
}
