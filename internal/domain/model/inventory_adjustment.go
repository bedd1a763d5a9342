package model

import "time"

type AdjustmentSource string

const (
	// 出品者の手動更新
	AdjustmentSourceManual AdjustmentSource = "MANUAL"
	// 注文キャンセルによる在庫戻し
	AdjustmentSourceOrderCancel AdjustmentSource = "ORDER_CANCEL"
)

// 在庫の増減履歴。delta は符号付き、stock_after は反映後の在庫
type InventoryAdjustment struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64            `gorm:"not null;index:idx_inventory_adjustments_product,priority:1" json:"product_id"`
	ActorUserID int64            `gorm:"not null;index" json:"actor_user_id"`
	Source      AdjustmentSource `gorm:"type:varchar(20);not null;default:MANUAL" json:"source"`
	Delta       int64            `gorm:"not null" json:"delta"`
	StockAfter  int64            `gorm:"not null" json:"stock_after"`
	Reason      string           `gorm:"type:varchar(255);not null" json:"reason"`
	OrderID     *int64           `gorm:"index" json:"order_id,omitempty"`
	CreatedAt   time.Time        `gorm:"not null;autoCreateTime;index:idx_inventory_adjustments_product,priority:2" json:"created_at"`
}
