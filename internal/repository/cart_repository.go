package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)
	ListSelectedByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartLine, error)
	//同一商品は数量加算
	Upsert(ctx context.Context, userID int64, productID int64, quantity int64) error
	UpdateQuantity(ctx context.Context, userID int64, productID int64, quantity int64) error
	SetSelected(ctx context.Context, userID int64, productID int64, selected bool) error
	DeleteLine(ctx context.Context, userID int64, productID int64) error
	//注文確定時にselected_for_checkout=trueの行をまとめて消す
	DeleteSelectedByUserID(ctx context.Context, userID int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
}
