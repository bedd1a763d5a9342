package model

import "time"

// 出品者の店舗情報。支払いQRと店舗位置はチェックアウトで使う。
type SellerProfile struct {
	UserID    int64    `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	StoreName string   `gorm:"type:varchar(255);not null" json:"store_name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	//支払いQRコード画像のパス
	PaymentQRPath string    `gorm:"type:varchar(500)" json:"payment_qr_path"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 位置が両方そろっているときだけtrue
func (p SellerProfile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
