package model

import "time"

// 全体デフォルトの営業時間は seller_id = 0
const GlobalStoreHoursSellerID int64 = 0

// 曜日ごとの営業時間。day_of_week は 0=日曜。
type StoreHours struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	SellerID  int64  `gorm:"not null;uniqueIndex:uq_store_hours_seller_day,priority:1" json:"seller_id"`
	DayOfWeek int    `gorm:"not null;uniqueIndex:uq_store_hours_seller_day,priority:2" json:"day_of_week"`
	IsOpen    bool   `gorm:"not null;default:false" json:"is_open"`
	OpenTime  string `gorm:"type:varchar(8);not null" json:"open_time"`
	CloseTime string `gorm:"type:varchar(8);not null" json:"close_time"`

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"-"`
}
