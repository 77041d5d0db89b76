package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/payment"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type PaymentHandler struct {
	payments      *usecase.PaymentUsecase
	webhooks      *usecase.WebhookUsecase
	webhookSecret string
	log           zerolog.Logger
}

func NewPaymentHandler(
	payments *usecase.PaymentUsecase,
	webhooks *usecase.WebhookUsecase,
	webhookSecret string,
	log zerolog.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		payments:      payments,
		webhooks:      webhooks,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

type InitializePaymentRequest struct {
	Amount int64 `json:"amount"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payment")

	authed := g.Group("", middleware.AuthJWT(cfg))
	authed.POST("/initialize", h.initialize)
	authed.GET("/verify/:referenceId", h.verify)

	//webhookはセッション認証なし。署名で守る。
	g.POST("/webhook", h.webhook)
}

func (h *PaymentHandler) initialize(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Status: "error", Error: "unauthorized"})
	}

	var req InitializePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Error: "invalid body"})
	}

	out, err := h.payments.Initialize(c.Request().Context(), userID, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) verify(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Status: "error", Error: "unauthorized"})
	}

	referenceID := c.Param("referenceId")
	orderDataKey := c.QueryParam("orderDataKey")

	out, err := h.payments.Verify(c.Request().Context(), userID, referenceID, orderDataKey)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Error: "invalid body"})
	}

	//署名が合わないボディは一切処理しない
	signature := c.Request().Header.Get("x-paystack-signature")
	if !payment.VerifySignature(h.webhookSecret, body, signature) {
		h.log.Warn().Str("remote", c.RealIP()).Msg("webhook signature mismatch")
		return c.JSON(http.StatusPaymentRequired, ErrorResponse{Status: "error", Error: "invalid signature"})
	}

	var ev usecase.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Error: "invalid payload"})
	}

	if err := h.webhooks.Handle(c.Request().Context(), ev); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Status: "success", Message: "event processed"})
}
