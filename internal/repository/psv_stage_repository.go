package repository

import (
	"context"

	"app/internal/domain/model"
)

type PsvStageRepository interface {
	FindByID(ctx context.Context, stageID int64) (model.PsvStage, error)
	List(ctx context.Context) ([]model.PsvStage, error)
}
