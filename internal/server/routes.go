package server

import (
	"net/http"

	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
	Stage   *handler.StageHandler
	Admin   *handler.AdminOrderHandler
}

func (s *Server) RegisterRoutes(h Handlers) {
	e := s.echo

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, s.cfg)
	h.Order.RegisterRoutes(e, s.cfg)
	h.Payment.RegisterRoutes(e, s.cfg)
	h.Stage.RegisterRoutes(e)
	h.Admin.RegisterRoutes(e, s.cfg)
}
