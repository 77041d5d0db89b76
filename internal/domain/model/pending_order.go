package model

// PendingOrderはRedisにJSONで一時保存する確定前の注文。
// gormには載せない。TTL切れで自動消滅し、検証パスが一度だけ消費する。
type PendingOrder struct {
	UserID           int64              `json:"user_id"`
	Items            []PendingOrderItem `json:"order_items"`
	DeliveryType     DeliveryType       `json:"delivery_type"`
	TotalPrice       int64              `json:"total_price"`
	DeliveryFee      int64              `json:"delivery_fee"`
	StageID          *int64             `json:"stage_id,omitempty"`
	StageName        string             `json:"stage_name,omitempty"`
	County           string             `json:"county,omitempty"`
	StoreAddress     string             `json:"store_address,omitempty"`
	DeliveryLocation string             `json:"delivery_location,omitempty"`
	IdempotencyKey   string             `json:"idempotency_key"`
}

type PendingOrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}
