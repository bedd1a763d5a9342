package repository

import (
	"context"

	"merkado/internal/domain/model"
)

// 保存済み配送先。ユーザーごとにデフォルトは高々1件
type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)
	// デフォルトが先頭、あとは古い順
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	Update(ctx context.Context, address model.Address) error
	// デフォルトを消したら一番古い住所が繰り上がる
	Delete(ctx context.Context, addressID int64) error
	IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error)
	SetDefault(ctx context.Context, userID, addressID int64) error
}
