package repository

import (
	"context"
	"time"

	"merkado/internal/domain/model"
)

// 見つからなければ ErrNotFound、メール重複は ErrDuplicate
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
	// 発行済みトークンを全部無効にする。上げた後のバージョンを返す
	IncrementTokenVersion(ctx context.Context, userID int64) (int, error)
}
