package model

import "time"

type NotificationKind string

const (
	NotificationNewOrder    NotificationKind = "NEW_ORDER"
	NotificationOrderStatus NotificationKind = "ORDER_STATUS"
)

type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64            `gorm:"not null;index" json:"user_id"`
	Kind      NotificationKind `gorm:"type:varchar(30);not null" json:"kind"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Body      string           `gorm:"type:text;not null" json:"body"`
	OrderID   *int64           `gorm:"index" json:"order_id,omitempty"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
