package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/queue"
)

// workerが返すゲートウェイ初期化の結果
type PaymentInitResult struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// 支払いジョブをキューへ積み、worker完了まで待つ契約。
// usecaseのテストではmockに差し替える。
type PaymentDispatcher interface {
	Dispatch(ctx context.Context, job queue.PaymentJobPayload, wait time.Duration) (PaymentInitResult, error)
}

// worker待ちがタイムアウトした。ジョブは取り消されないので、
// 課金が後から成立する可能性がある（webhookで収束する）。
var ErrDispatchTimeout = errors.New("payment dispatch timed out")

type QueuePaymentDispatcher struct {
	q *queue.Queue
}

var _ PaymentDispatcher = (*QueuePaymentDispatcher)(nil)

func NewQueuePaymentDispatcher(q *queue.Queue) *QueuePaymentDispatcher {
	return &QueuePaymentDispatcher{q: q}
}

func (d *QueuePaymentDispatcher) Dispatch(ctx context.Context, job queue.PaymentJobPayload, wait time.Duration) (PaymentInitResult, error) {
	handle, err := d.q.Enqueue(ctx, job, queue.WithPriority())
	if err != nil {
		return PaymentInitResult{}, err
	}

	res, err := handle.WaitUntilFinished(ctx, wait)
	if errors.Is(err, queue.ErrWaitTimeout) {
		return PaymentInitResult{}, ErrDispatchTimeout
	}
	if err != nil {
		return PaymentInitResult{}, err
	}

	var out PaymentInitResult
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return PaymentInitResult{}, fmt.Errorf("dispatch: decode worker result: %w", err)
	}
	if out.AuthorizationURL == "" || out.Reference == "" {
		return PaymentInitResult{}, errors.New("dispatch: worker result missing url or reference")
	}
	return out, nil
}

// 確認メールなど、結果を待たないジョブの投入口
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, job queue.EmailJobPayload) error
}

type QueueEmailEnqueuer struct {
	q *queue.Queue
}

var _ EmailEnqueuer = (*QueueEmailEnqueuer)(nil)

func NewQueueEmailEnqueuer(q *queue.Queue) *QueueEmailEnqueuer {
	return &QueueEmailEnqueuer{q: q}
}

func (e *QueueEmailEnqueuer) EnqueueEmail(ctx context.Context, job queue.EmailJobPayload) error {
	_, err := e.q.Enqueue(ctx, job)
	return err
}
