package usecase

import (
	"context"
	"time"

	"app/internal/infra/cache"
)

const (
	lockValueProcessing = "Processing"
	lockTTL             = 5 * time.Minute
)

// fingerprintをキーにした短命ロック。TTL内は同じfingerprintの
// 決済初期化を1件しか通さない。
type IdempotencyGuard struct {
	store cache.Store
	ttl   time.Duration
}

func NewIdempotencyGuard(store cache.Store) *IdempotencyGuard {
	return &IdempotencyGuard{store: store, ttl: lockTTL}
}

// Acquireは新規に取得できたらtrue。既にロックが居ればfalse。
// キャッシュ障害はerrorで返す。呼び出し側はこれをチェックアウトの
// ハード失敗として扱うこと（黙って進むと二重課金になる）。
func (g *IdempotencyGuard) Acquire(ctx context.Context, fingerprint string) (bool, error) {
	return g.store.SetNX(ctx, lockKey(fingerprint), lockValueProcessing, g.ttl)
}

func (g *IdempotencyGuard) Release(ctx context.Context, fingerprint string) error {
	return g.store.Delete(ctx, lockKey(fingerprint))
}

func lockKey(fingerprint string) string {
	return "payment_lock:" + fingerprint
}
