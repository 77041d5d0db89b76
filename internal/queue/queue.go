package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// WaitUntilFinishedが時間内に結果を得られなかった。
	// ジョブ自体はサーバー側で動き続けている可能性がある。
	ErrWaitTimeout = errors.New("queue: wait timed out")

	// workerがジョブを失敗として完了した
	ErrJobFailed = errors.New("queue: job failed")
)

// Redis Streamsの上に載せたジョブキュー。
// 優先ジョブ用とデフォルト用の2本のstreamを持ち、consumer groupで
// at-least-once配送する。結果はジョブごとのリストキーで返す。
type Queue struct {
	rdb  *redis.Client
	name string
	log  zerolog.Logger
}

func New(rdb *redis.Client, name string, log zerolog.Logger) *Queue {
	return &Queue{
		rdb:  rdb,
		name: name,
		log:  log.With().Str("queue", name).Logger(),
	}
}

func (q *Queue) Name() string { return q.name }

func (q *Queue) streamKey() string     { return "queue:" + q.name }
func (q *Queue) highStreamKey() string { return "queue:" + q.name + ":high" }

func (q *Queue) resultKey(jobID string) string {
	return "queue:" + q.name + ":result:" + jobID
}

type enqueueOptions struct {
	priority bool
}

type EnqueueOption func(*enqueueOptions)

func WithPriority() EnqueueOption {
	return func(o *enqueueOptions) { o.priority = true }
}

// EnqueueはペイロードをValidateしてからstreamへ積み、JobHandleを返す。
func (q *Queue) Enqueue(ctx context.Context, p Payload, opts ...EnqueueOption) (*JobHandle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var o enqueueOptions
	for _, opt := range opts {
		opt(&o)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal payload: %w", err)
	}

	jobID := uuid.NewString()
	stream := q.streamKey()
	if o.priority {
		stream = q.highStreamKey()
	}

	err = q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"job_id":      jobID,
			"type":        p.JobType(),
			"data":        string(data),
			"enqueued_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("queue: enqueue: %w", err)
	}

	q.log.Debug().Str("job_id", jobID).Str("type", p.JobType()).Bool("priority", o.priority).Msg("job enqueued")

	return &JobHandle{q: q, ID: jobID}, nil
}

// 投入済みジョブへの参照。結果待ちに使う。
type JobHandle struct {
	q  *Queue
	ID string
}

// workerが返すジョブ結果。
type Result struct {
	OK   bool            `json:"ok"`
	Data json.RawMessage `json:"data,omitempty"`
	Err  string          `json:"err,omitempty"`
}

// WaitUntilFinishedはworkerの完了を待つ。タイムアウトでErrWaitTimeout、
// ジョブ失敗でErrJobFailedを返す。タイムアウト後もジョブは取り消されない。
func (h *JobHandle) WaitUntilFinished(ctx context.Context, timeout time.Duration) (Result, error) {
	vals, err := h.q.rdb.BLPop(ctx, timeout, h.q.resultKey(h.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return Result{}, ErrWaitTimeout
	}
	if err != nil {
		return Result{}, fmt.Errorf("queue: wait: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("queue: unexpected blpop reply length %d", len(vals))
	}

	var res Result
	if err := json.Unmarshal([]byte(vals[1]), &res); err != nil {
		return Result{}, fmt.Errorf("queue: decode result: %w", err)
	}
	if !res.OK {
		return res, fmt.Errorf("%w: %s", ErrJobFailed, res.Err)
	}
	return res, nil
}

// worker側から結果を書く。待っている呼び出しが居なくても短時間で消える。
func (q *Queue) publishResult(ctx context.Context, jobID string, res Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	key := q.resultKey(jobID)
	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.Expire(ctx, key, time.Minute)
	_, err = pipe.Exec(ctx)
	return err
}
