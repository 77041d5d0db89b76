package repository

import (
	"context"

	"app/internal/domain/model"
)

type ProductRepository interface {
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	//チェックアウトの価格解決用。見つからないIDは結果に含まれない。
	ListByIDs(ctx context.Context, productIDs []int64) ([]model.Product, error)
}
