package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// PSVステージ（配送料）の参照系
type StageUsecase struct {
	stages repo.PsvStageRepository
}

func NewStageUsecase(stages repo.PsvStageRepository) *StageUsecase {
	return &StageUsecase{stages: stages}
}

func (u *StageUsecase) List(ctx context.Context) ([]model.PsvStage, error) {
	items, err := u.stages.List(ctx)
	if err != nil {
		return []model.PsvStage{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *StageUsecase) Get(ctx context.Context, stageID int64) (model.PsvStage, error) {
	if stageID <= 0 {
		return model.PsvStage{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	s, err := u.stages.FindByID(ctx, stageID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.PsvStage{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.PsvStage{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}
