package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 管理者向け: 追跡ステータスの遷移とトランザクション一覧
type AdminOrderUsecase struct {
	orders       repo.OrderRepository
	transactions repo.TransactionRepository
}

func NewAdminOrderUsecase(orders repo.OrderRepository, transactions repo.TransactionRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{orders: orders, transactions: transactions}
}

// 許可される遷移だけを通す
var allowedTransitions = map[model.TrackingStatus][]model.TrackingStatus{
	model.TrackingPending:    {model.TrackingDispatched, model.TrackingCancelled},
	model.TrackingDispatched: {model.TrackingDelivered, model.TrackingCancelled},
}

func validTransition(from model.TrackingStatus, to model.TrackingStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// UpdateTrackingは支払い済み注文の追跡ステータスを進める。
// order_status=successになっていない注文には触れない。
func (u *AdminOrderUsecase) UpdateTracking(ctx context.Context, orderID int64, next model.TrackingStatus) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	switch next {
	case model.TrackingDispatched, model.TrackingDelivered, model.TrackingCancelled:
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid tracking status")
	}

	order, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if order.OrderStatus != model.OrderStatusSuccess || order.TrackingStatus == nil {
		return NewHTTPError(http.StatusBadRequest, "order is not paid")
	}
	if !validTransition(*order.TrackingStatus, next) {
		return NewHTTPError(http.StatusBadRequest, "invalid tracking transition")
	}

	if err := u.orders.UpdateTracking(ctx, orderID, next); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type TransactionListOutput struct {
	Items []model.Transaction `json:"items"`
	Total int64               `json:"total"`
}

func (u *AdminOrderUsecase) ListTransactions(ctx context.Context, page int, limit int) (TransactionListOutput, error) {
	items, total, err := u.transactions.ListAll(ctx, page, limit)
	if err != nil {
		return TransactionListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return TransactionListOutput{Items: items, Total: total}, nil
}
