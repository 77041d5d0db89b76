package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//検証パスとwebhookが同じreferenceで二重登録しないための検索
	FindByReference(ctx context.Context, reference string) (model.Order, bool, error)
	FindLatestPendingByUserID(ctx context.Context, userID int64) (model.Order, bool, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, tracking *model.TrackingStatus) error
	UpdateTracking(ctx context.Context, orderID int64, tracking model.TrackingStatus) error
	//明細の書き込みに失敗したときの補償削除
	Delete(ctx context.Context, orderID int64) error
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
