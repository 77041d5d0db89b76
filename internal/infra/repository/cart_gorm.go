package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	var lines []model.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&lines).Error
	if err != nil {
		return []model.CartLine{}, err
	}
	return lines, nil
}

func (r *CartGormRepository) ListSelectedByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	var lines []model.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND selected_for_checkout = ?", userID, true).
		Order("id asc").
		Find(&lines).Error
	if err != nil {
		return []model.CartLine{}, err
	}
	return lines, nil
}

func (r *CartGormRepository) FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartLine, error) {
	var line model.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartLine{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

func (r *CartGormRepository) Upsert(ctx context.Context, userID int64, productID int64, quantity int64) error {
	line := model.CartLine{
		UserID:              userID,
		ProductID:           productID,
		Quantity:            quantity,
		SelectedForCheckout: true,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("cart_lines.quantity + ?", quantity),
			}),
		}).
		Create(&line).Error
}

func (r *CartGormRepository) UpdateQuantity(ctx context.Context, userID int64, productID int64, quantity int64) error {
	res := r.db.WithContext(ctx).Model(&model.CartLine{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) SetSelected(ctx context.Context, userID int64, productID int64, selected bool) error {
	res := r.db.WithContext(ctx).Model(&model.CartLine{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("selected_for_checkout", selected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) DeleteLine(ctx context.Context, userID int64, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) DeleteSelectedByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND selected_for_checkout = ?", userID, true).
		Delete(&model.CartLine{}).Error
}

func (r *CartGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartLine{}).Error
}
