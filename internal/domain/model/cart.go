package model

import "time"

// 1ユーザー1カート。チェックアウトしてもカート自体は残り、明細だけ消える
type Cart struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:uq_carts_user" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// カートの明細。価格は持たず、読むときに商品から引く。
type CartItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64 `gorm:"not null;uniqueIndex:uq_cart_items_cart_product,priority:1" json:"cart_id"`
	ProductID int64 `gorm:"not null;uniqueIndex:uq_cart_items_cart_product,priority:2" json:"product_id"`
	Quantity  int64 `gorm:"not null" json:"quantity"`
	//チェックアウト対象か
	Selected  bool      `gorm:"not null;default:false" json:"selected"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
