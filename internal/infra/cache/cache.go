package cache

import (
	"context"
	"errors"
	"time"
)

// キーが存在しない
var ErrCacheMiss = errors.New("cache miss")

// 値はstringのみ。シリアライズは呼び出し側が行う。
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	//ロック取得用。キーが無いときだけ書き込み、取得できたらtrue。
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}
