package model

import "time"

// ユーザー所有のカート明細。
// quantityは必ず1以上。0になる操作は行を削除する。
// selected_for_checkout=trueの行だけがチェックアウト対象になり、
// 注文確定時にまとめて削除される。
type CartLine struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              int64     `gorm:"not null;index:idx_cart_user_product,unique" json:"user_id"`
	ProductID           int64     `gorm:"not null;index:idx_cart_user_product,unique" json:"product_id"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	SelectedForCheckout bool      `gorm:"not null;default:true" json:"selected_for_checkout"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
