package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	admin *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(admin *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{admin: admin}
}

type UpdateTrackingRequest struct {
	TrackingStatus string `json:"trackingStatus"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin", middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	g.PATCH("/orders/:id/tracking", h.updateTracking)
	g.GET("/transactions", h.listTransactions)
}

func (h *AdminOrderHandler) updateTracking(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Error: "invalid order id"})
	}

	var req UpdateTrackingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Error: "invalid body"})
	}

	if err := h.admin.UpdateTracking(c.Request().Context(), orderID, model.TrackingStatus(req.TrackingStatus)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Status: "success", Message: "tracking updated"})
}

func (h *AdminOrderHandler) listTransactions(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	out, err := h.admin.ListTransactions(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
