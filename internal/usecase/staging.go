package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/domain/model"
	"app/internal/infra/cache"

	"github.com/google/uuid"
)

const stagingTTL = time.Hour

// staged dataが期限切れか、既に消費済み
var ErrStagedOrderMissing = errors.New("order data expired or missing")

// 支払い確定前の注文をRedisに一時保存する置き場。
// キーは生成し、TTL内に検証パスが一度だけ消費する。
type OrderStagingStore struct {
	store cache.Store
	ttl   time.Duration
}

func NewOrderStagingStore(store cache.Store) *OrderStagingStore {
	return &OrderStagingStore{store: store, ttl: stagingTTL}
}

// Saveは新しいstaging keyを払い出して保存する。
func (s *OrderStagingStore) Save(ctx context.Context, po model.PendingOrder) (string, error) {
	raw, err := json.Marshal(po)
	if err != nil {
		return "", fmt.Errorf("staging: marshal: %w", err)
	}

	key := "order_data:" + uuid.NewString()
	if err := s.store.Set(ctx, key, string(raw), s.ttl); err != nil {
		return "", fmt.Errorf("staging: save: %w", err)
	}
	return key, nil
}

func (s *OrderStagingStore) Get(ctx context.Context, key string) (model.PendingOrder, error) {
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return model.PendingOrder{}, ErrStagedOrderMissing
	}
	if err != nil {
		return model.PendingOrder{}, fmt.Errorf("staging: get: %w", err)
	}

	var po model.PendingOrder
	if err := json.Unmarshal([]byte(raw), &po); err != nil {
		return model.PendingOrder{}, fmt.Errorf("staging: decode: %w", err)
	}
	return po, nil
}

func (s *OrderStagingStore) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}
