package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventPlaced        OrderEventType = "order.placed"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
)

// Kafkaに流す注文イベント
type OrderEvent struct {
	Type       OrderEventType  `json:"type"`
	OrderID    int64           `json:"order_id"`
	BuyerID    int64           `json:"buyer_id"`
	SellerID   int64           `json:"seller_id"`
	Status     OrderStatus     `json:"status"`
	PrevStatus OrderStatus     `json:"prev_status,omitempty"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}
