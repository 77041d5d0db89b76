package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// PaystackのHTTPクライアント。タイムアウトは5秒固定。
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

var _ Gateway = (*Client)(nil)

func NewClient(baseURL string, secret string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type initializeEnvelope struct {
	Status  bool               `json:"status"`
	Message string             `json:"message"`
	Data    InitializeResponse `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return InitializeResponse{}, fmt.Errorf("paystack: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return InitializeResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	var env initializeEnvelope
	if err := c.do(httpReq, &env); err != nil {
		return InitializeResponse{}, err
	}
	if !env.Status {
		return InitializeResponse{}, fmt.Errorf("paystack: initialize rejected: %s", env.Message)
	}
	if env.Data.AuthorizationURL == "" || env.Data.Reference == "" {
		return InitializeResponse{}, fmt.Errorf("paystack: initialize response missing url or reference")
	}
	return env.Data, nil
}

type verifyEnvelope struct {
	Status  bool           `json:"status"`
	Message string         `json:"message"`
	Data    VerifyResponse `json:"data"`
}

func (c *Client) Verify(ctx context.Context, reference string) (VerifyResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return VerifyResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)

	var env verifyEnvelope
	if err := c.do(httpReq, &env); err != nil {
		return VerifyResponse{}, err
	}
	if !env.Status {
		return VerifyResponse{}, fmt.Errorf("paystack: verify rejected: %s", env.Message)
	}
	if env.Data.Status == "" {
		env.Data.Status = StatusPending
	}
	return env.Data, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paystack: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("paystack: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paystack: http %d: %s", resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("paystack: decode response: %w", err)
	}
	return nil
}
