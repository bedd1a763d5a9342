package repository

import (
	"context"

	"merkado/internal/domain/model"
)

type CartRepository interface {
	// 無ければ作る。同時に呼ばれても1件
	EnsureForUser(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品は数量を加算
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	// チェックアウトで選択分だけ消す
	DeleteByIDs(ctx context.Context, cartID int64, cartItemIDs []int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)

	SetSelected(ctx context.Context, cartID int64, cartItemIDs []int64, selected bool) error
	ClearSelection(ctx context.Context, cartID int64) error
}
