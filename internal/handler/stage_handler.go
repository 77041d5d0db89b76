package handler

import (
	"net/http"
	"strconv"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type StageHandler struct {
	stages *usecase.StageUsecase
}

func NewStageHandler(stages *usecase.StageUsecase) *StageHandler {
	return &StageHandler{stages: stages}
}

func (h *StageHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/stages")
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *StageHandler) list(c echo.Context) error {
	stages, err := h.stages.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stages)
}

func (h *StageHandler) get(c echo.Context) error {
	stageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Error: "invalid stage id"})
	}

	stage, err := h.stages.Get(c.Request().Context(), stageID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stage)
}
