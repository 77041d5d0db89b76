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

// dequeue済みジョブ。DataはDecodePayment/DecodeEmailで型に戻す。
type Job struct {
	ID   string
	Type string
	Data json.RawMessage
}

type HandlerFunc func(ctx context.Context, job Job) (interface{}, error)

const (
	consumerGroup = "workers"
	claimMinIdle  = 30 * time.Second
	readBlock     = 5 * time.Second
)

// Queueの消費側。優先streamを先に読む。
// consumer groupのpendingをXAutoClaimで引き取るので、
// 落ちたworkerのジョブは別consumerに再配送される。
type Worker struct {
	q           *Queue
	consumer    string
	handlers    map[string]HandlerFunc
	concurrency int
	log         zerolog.Logger
}

func NewWorker(q *Queue, concurrency int, log zerolog.Logger) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		q:           q,
		consumer:    "worker-" + uuid.NewString(),
		handlers:    make(map[string]HandlerFunc),
		concurrency: concurrency,
		log:         log.With().Str("queue", q.name).Logger(),
	}
}

func (w *Worker) Register(jobType string, fn HandlerFunc) {
	w.handlers[jobType] = fn
}

// Runはctxがキャンセルされるまで消費し続ける。
func (w *Worker) Run(ctx context.Context) error {
	streams := []string{w.q.highStreamKey(), w.q.streamKey()}

	for _, s := range streams {
		err := w.q.rdb.XGroupCreateMkStream(ctx, s, consumerGroup, "0").Err()
		if err != nil && !isBusyGroup(err) {
			return fmt.Errorf("queue: create group on %s: %w", s, err)
		}
	}

	errCh := make(chan error, w.concurrency)
	for i := 0; i < w.concurrency; i++ {
		go func() {
			errCh <- w.consumeLoop(ctx, streams)
		}()
	}

	var firstErr error
	for i := 0; i < w.concurrency; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *Worker) consumeLoop(ctx context.Context, streams []string) error {
	readArgs := make([]string, 0, len(streams)*2)
	readArgs = append(readArgs, streams...)
	for range streams {
		readArgs = append(readArgs, ">")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		// 放置されたpendingを先に引き取る
		for _, s := range streams {
			w.claimStalled(ctx, s)
		}

		res, err := w.q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: w.consumer,
			Streams:  readArgs,
			Count:    1,
			Block:    readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Error().Err(err).Msg("read group failed")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				w.process(ctx, stream.Stream, msg)
			}
		}
	}
}

func (w *Worker) claimStalled(ctx context.Context, stream string) {
	msgs, _, err := w.q.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    consumerGroup,
		Consumer: w.consumer,
		MinIdle:  claimMinIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil || len(msgs) == 0 {
		return
	}
	for _, msg := range msgs {
		w.log.Warn().Str("msg_id", msg.ID).Str("stream", stream).Msg("reclaimed stalled job")
		w.process(ctx, stream, msg)
	}
}

func (w *Worker) process(ctx context.Context, stream string, msg redis.XMessage) {
	job, err := jobFromMessage(msg)
	if err != nil {
		//スキーマ違反は再配送しても直らないのでackして捨てる
		w.log.Error().Err(err).Str("msg_id", msg.ID).Msg("malformed job dropped")
		w.ack(ctx, stream, msg.ID)
		return
	}

	log := w.log.With().Str("job_id", job.ID).Str("type", job.Type).Logger()

	handler, ok := w.handlers[job.Type]
	if !ok {
		log.Error().Msg("no handler registered for job type")
		w.ack(ctx, stream, msg.ID)
		_ = w.q.publishResult(ctx, job.ID, Result{OK: false, Err: "unhandled job type: " + job.Type})
		return
	}

	out, err := handler(ctx, job)
	if err != nil {
		log.Error().Err(err).Msg("job failed")
		_ = w.q.publishResult(ctx, job.ID, Result{OK: false, Err: err.Error()})
		w.ack(ctx, stream, msg.ID)
		return
	}

	var data json.RawMessage
	if out != nil {
		raw, mErr := json.Marshal(out)
		if mErr != nil {
			log.Error().Err(mErr).Msg("job result marshal failed")
			_ = w.q.publishResult(ctx, job.ID, Result{OK: false, Err: mErr.Error()})
			w.ack(ctx, stream, msg.ID)
			return
		}
		data = raw
	}

	_ = w.q.publishResult(ctx, job.ID, Result{OK: true, Data: data})
	w.ack(ctx, stream, msg.ID)
	log.Debug().Msg("job completed")
}

func (w *Worker) ack(ctx context.Context, stream string, msgID string) {
	pipe := w.q.rdb.TxPipeline()
	pipe.XAck(ctx, stream, consumerGroup, msgID)
	pipe.XDel(ctx, stream, msgID)
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Str("msg_id", msgID).Msg("ack failed")
	}
}

func jobFromMessage(msg redis.XMessage) (Job, error) {
	jobID, _ := msg.Values["job_id"].(string)
	jobType, _ := msg.Values["type"].(string)
	data, _ := msg.Values["data"].(string)

	if jobID == "" || jobType == "" || data == "" {
		return Job{}, errors.New("queue: message missing job_id/type/data")
	}
	return Job{ID: jobID, Type: jobType, Data: json.RawMessage(data)}, nil
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}
