package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 価格変更の履歴。追記のみ。
type PriceChangeRecord struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64           `gorm:"not null;index:idx_price_history_product_date,priority:1" json:"product_id"`
	OldPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"old_price"`
	NewPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"new_price"`
	ChangeDate time.Time       `gorm:"not null;index:idx_price_history_product_date,priority:2" json:"change_date"`
}
