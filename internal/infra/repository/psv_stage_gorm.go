package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type PsvStageGormRepository struct {
	db *gorm.DB
}

func NewPsvStageGormRepository(db *gorm.DB) *PsvStageGormRepository {
	return &PsvStageGormRepository{db: db}
}

func (r *PsvStageGormRepository) FindByID(ctx context.Context, stageID int64) (model.PsvStage, error) {
	var s model.PsvStage
	err := r.db.WithContext(ctx).Where("id = ?", stageID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PsvStage{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PsvStage{}, err
	}
	return s, nil
}

func (r *PsvStageGormRepository) List(ctx context.Context) ([]model.PsvStage, error) {
	var items []model.PsvStage
	err := r.db.WithContext(ctx).Order("name asc").Find(&items).Error
	if err != nil {
		return []model.PsvStage{}, err
	}
	return items, nil
}
