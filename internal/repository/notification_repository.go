package repository

import (
	"context"
	"time"

	"merkado/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) error
	ListByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error)
	// 本人の通知だけ既読にできる
	MarkRead(ctx context.Context, notificationID, userID int64, at time.Time) error
}
