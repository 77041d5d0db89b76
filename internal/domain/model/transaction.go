package model

import "time"

// ゲートウェイのwebhookイベントを記録した行。
// referenceで重複イベントを検知する。
type Transaction struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Reference string    `gorm:"type:varchar(100);not null;index" json:"reference"`
	Event     string    `gorm:"type:varchar(50);not null" json:"event"`
	Status    string    `gorm:"type:varchar(30);not null" json:"status"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
