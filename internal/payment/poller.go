package payment

import (
	"context"
	"time"
)

type PollOutcome string

const (
	PollSuccess PollOutcome = "success"
	PollFailed  PollOutcome = "failed"
	PollTimeout PollOutcome = "timeout"
)

// 検証エンドポイントをバックオフ付きで叩く状態機械。
// pending → success | failed | timeout のみ。
// 遅延はテストで差し替えられるようにSleepを注入できる。
type Poller struct {
	gw Gateway

	InitialDelay time.Duration
	BaseDelay    time.Duration
	DelayStep    time.Duration
	MaxDelay     time.Duration
	MaxRetries   int

	//nilならcontext対応のtime.Sleep相当
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewPoller(gw Gateway) *Poller {
	return &Poller{
		gw:           gw,
		InitialDelay: 10 * time.Second,
		BaseDelay:    3 * time.Second,
		DelayStep:    2 * time.Second,
		MaxDelay:     15 * time.Second,
		MaxRetries:   10,
	}
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// 決済完了までの反映ラグがあるので初回チェック前に必ず待つ。
func (p *Poller) Poll(ctx context.Context, reference string) (PollOutcome, error) {
	if err := p.sleep(ctx, p.InitialDelay); err != nil {
		return PollTimeout, err
	}

	for retries := 0; retries < p.MaxRetries; retries++ {
		res, err := p.gw.Verify(ctx, reference)
		if err != nil {
			//一時的な失敗として扱い、次の試行へ
			if sErr := p.sleep(ctx, p.BaseDelay); sErr != nil {
				return PollTimeout, sErr
			}
			continue
		}

		switch res.Status {
		case StatusSuccess:
			return PollSuccess, nil
		case StatusFailed, StatusAbandoned, StatusReversed:
			return PollFailed, nil
		}

		// 3s, 5s, 7s... と伸ばして上限で頭打ち
		delay := p.BaseDelay + time.Duration(retries)*p.DelayStep
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
		if err := p.sleep(ctx, delay); err != nil {
			return PollTimeout, err
		}
	}

	return PollTimeout, nil
}
