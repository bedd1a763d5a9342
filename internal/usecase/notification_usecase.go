package usecase

import (
	"context"
	"errors"
	"net/http"

	"merkado/internal/domain/model"
	repo "merkado/internal/repository"
)

type NotificationUsecase struct {
	notifications repo.NotificationRepository
	clock         Clock
}

func NewNotificationUsecase(notifications repo.NotificationRepository, clock Clock) *NotificationUsecase {
	return &NotificationUsecase{notifications: notifications, clock: clock}
}

func (u *NotificationUsecase) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if limit < 0 || limit > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	list, err := u.notifications.ListByUserID(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if notificationID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.notifications.MarkRead(ctx, notificationID, userID, u.clock.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
