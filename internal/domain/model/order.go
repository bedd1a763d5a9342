package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

type PaymentMode string

const (
	PaymentModeQR PaymentMode = "QR"
)

// 1注文 = 1出品者
type Order struct {
	ID       int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID  int64       `gorm:"not null;index" json:"buyer_id"`
	SellerID int64       `gorm:"not null;index" json:"seller_id"`
	Status   OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	CustomerName    string `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerAddress string `gorm:"type:text;not null" json:"customer_address"`
	CustomerContact string `gorm:"type:varchar(50);not null" json:"customer_contact"`

	DeliveryLatitude  float64  `gorm:"not null" json:"delivery_latitude"`
	DeliveryLongitude float64  `gorm:"not null" json:"delivery_longitude"`
	DistanceKm        *float64 `json:"distance_km,omitempty"`

	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	PaymentMode    PaymentMode     `gorm:"type:varchar(20);not null" json:"payment_mode"`
	ProofOfPayment string          `gorm:"type:varchar(500);not null" json:"proof_of_payment"`
	//ヘッダー未指定なら NULL
	IdempotencyKey *string `gorm:"type:varchar(255);uniqueIndex" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
