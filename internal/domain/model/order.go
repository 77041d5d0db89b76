package model

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusSuccess OrderStatus = "success"
)

type TrackingStatus string

const (
	TrackingPending    TrackingStatus = "Pending"
	TrackingDispatched TrackingStatus = "Dispatched"
	TrackingDelivered  TrackingStatus = "Delivered"
	TrackingCancelled  TrackingStatus = "Cancelled"
)

type DeliveryType string

const (
	DeliveryPSV            DeliveryType = "PSV"
	DeliveryOutsideNairobi DeliveryType = "Outside Nairobi"
	DeliveryExpress        DeliveryType = "Express Delivery"
	DeliverySelfPickup     DeliveryType = "Self Pickup"
)

// 支払い確定後にのみ作成される。確定前はRedis上のPendingOrderだけ。
// tracking_statusはorder_status=successになってから設定する。
type Order struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              int64           `gorm:"not null;index" json:"user_id"`
	TotalPrice          int64           `gorm:"not null" json:"total_price"`
	NumberOfItemsBought int64           `gorm:"not null" json:"number_of_items_bought"`
	DeliveryType        DeliveryType    `gorm:"type:varchar(30);not null" json:"delivery_type"`
	DeliveryStageID     *int64          `gorm:"index" json:"delivery_stage_id,omitempty"`
	DeliveryLocation    string          `gorm:"type:varchar(255)" json:"delivery_location"`
	StoreAddress        string          `gorm:"type:varchar(255)" json:"store_address,omitempty"`
	County              string          `gorm:"type:varchar(100)" json:"county,omitempty"`
	DeliveryFee         int64           `gorm:"not null" json:"delivery_fee"`
	OrderStatus         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"order_status"`
	TrackingStatus      *TrackingStatus `gorm:"type:varchar(20)" json:"tracking_status"`
	PaymentReference    string          `gorm:"type:varchar(100);uniqueIndex" json:"-"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
