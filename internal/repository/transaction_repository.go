package repository

import (
	"context"

	"app/internal/domain/model"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx model.Transaction) (int64, error)
	ListAll(ctx context.Context, page int, limit int) ([]model.Transaction, int64, error)
}
