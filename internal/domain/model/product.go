package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Freshness string

const (
	FreshnessFresh   Freshness = "Fresh"
	FreshnessChilled Freshness = "Chilled"
	FreshnessFrozen  Freshness = "Frozen"
)

type Product struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID int64  `gorm:"not null;index" json:"seller_id"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Category string `gorm:"type:varchar(100);not null;index" json:"category"`
	//kg / piece / bundle など
	Unit  string          `gorm:"type:varchar(50);not null" json:"unit"`
	Price decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	//価格変更時に直前の価格を入れる
	PreviousPrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"previous_price,omitempty"`
	Stock         int64            `gorm:"not null" json:"stock"`
	Freshness     Freshness        `gorm:"type:varchar(20);not null;default:'Fresh'" json:"freshness"`
	ImagePath     string           `gorm:"type:varchar(500)" json:"image_path"`
	CreatedAt     time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}
