package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "sk_test_secret"

func signBody(body string) string {
	mac := hmac.New(sha512.New, []byte(testWebhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookRequest(body string, signature string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("x-paystack-signature", signature)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newWebhookHandler() *PaymentHandler {
	//署名ではねるパスはusecaseに到達しない
	return NewPaymentHandler(nil, &usecase.WebhookUsecase{}, testWebhookSecret, zerolog.Nop())
}

func TestWebhook_MissingSignature(t *testing.T) {
	h := newWebhookHandler()
	c, rec := newWebhookRequest(`{"event":"charge.success"}`, "")

	err := h.webhook(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	h := newWebhookHandler()
	c, rec := newWebhookRequest(`{"event":"charge.success"}`, "deadbeef")

	err := h.webhook(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestWebhook_SignatureOverRawBody(t *testing.T) {
	h := newWebhookHandler()

	//署名は別のボディに対するもの
	sig := signBody(`{"event":"charge.success","data":{"amount":100}}`)
	c, rec := newWebhookRequest(`{"event":"charge.success","data":{"amount":999}}`, sig)

	err := h.webhook(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestWebhook_UnhandledEventType(t *testing.T) {
	h := newWebhookHandler()

	body := `{"event":"transfer.success","data":{}}`
	c, rec := newWebhookRequest(body, signBody(body))

	err := h.webhook(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_MalformedPayload(t *testing.T) {
	h := newWebhookHandler()

	body := `not json`
	c, rec := newWebhookRequest(body, signBody(body))

	err := h.webhook(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
