package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type TransactionGormRepository struct {
	db *gorm.DB
}

func NewTransactionGormRepository(db *gorm.DB) *TransactionGormRepository {
	return &TransactionGormRepository{db: db}
}

func (r *TransactionGormRepository) Create(ctx context.Context, tx model.Transaction) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&tx).Error; err != nil {
		return 0, err
	}
	return tx.ID, nil
}

func (r *TransactionGormRepository) ListAll(ctx context.Context, page int, limit int) ([]model.Transaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Transaction{}).Count(&total).Error; err != nil {
		return []model.Transaction{}, 0, err
	}

	var items []model.Transaction
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Transaction{}, 0, err
	}

	return items, total, nil
}
