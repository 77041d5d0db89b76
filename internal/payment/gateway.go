package payment

import "context"

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusSuccess   TransactionStatus = "success"
	StatusFailed    TransactionStatus = "failed"
	StatusAbandoned TransactionStatus = "abandoned"
	StatusReversed  TransactionStatus = "reversed"
)

// 非リトライの終端状態か
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusAbandoned, StatusReversed:
		return true
	}
	return false
}

type InitializeRequest struct {
	Email string `json:"email"`
	//最小単位（KESならセント）
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Channels []string          `json:"channels"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type VerifyResponse struct {
	Status TransactionStatus `json:"status"`
	Amount int64             `json:"amount"`
}

// 決済ゲートウェイの契約。実装はClient、テストはmock。
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error)
	Verify(ctx context.Context, reference string) (VerifyResponse, error)
}
