package queue

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	JobTypePayment = "process-payment"
	JobTypeEmail   = "send-email"
)

// ジョブの中身はジョブ種別ごとに固定スキーマで持つ。
// enqueue時とdequeue時の両方でValidateを通す。
type Payload interface {
	JobType() string
	Validate() error
}

// 支払い初期化ジョブ。amountは主単位（ゲートウェイ送信時にworkerが最小単位へ変換）。
type PaymentJobPayload struct {
	UserID         int64  `json:"user_id"`
	Email          string `json:"email"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
	OrderDataKey   string `json:"order_data_key,omitempty"`
}

func (p PaymentJobPayload) JobType() string { return JobTypePayment }

func (p PaymentJobPayload) Validate() error {
	if p.UserID <= 0 {
		return errors.New("payment job: invalid user_id")
	}
	if p.Email == "" {
		return errors.New("payment job: email is required")
	}
	if p.Amount <= 0 {
		return errors.New("payment job: amount must be positive")
	}
	if p.IdempotencyKey == "" {
		return errors.New("payment job: idempotency_key is required")
	}
	return nil
}

type EmailJobPayload struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

func (p EmailJobPayload) JobType() string { return JobTypeEmail }

func (p EmailJobPayload) Validate() error {
	if p.To == "" {
		return errors.New("email job: to is required")
	}
	if p.Subject == "" {
		return errors.New("email job: subject is required")
	}
	return nil
}

// dequeue側のデコード補助。スキーマ違反はここで弾く。
func DecodePayment(data json.RawMessage) (PaymentJobPayload, error) {
	var p PaymentJobPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return PaymentJobPayload{}, fmt.Errorf("payment job: decode: %w", err)
	}
	if err := p.Validate(); err != nil {
		return PaymentJobPayload{}, err
	}
	return p, nil
}

func DecodeEmail(data json.RawMessage) (EmailJobPayload, error) {
	var p EmailJobPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return EmailJobPayload{}, fmt.Errorf("email job: decode: %w", err)
	}
	if err := p.Validate(); err != nil {
		return EmailJobPayload{}, err
	}
	return p, nil
}
