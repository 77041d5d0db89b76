package model

import "time"

// PSV配送の降車ステージ。配送料はステージごとに決まる。
type PsvStage struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	DeliveryFee int64     `gorm:"not null" json:"delivery_fee"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
