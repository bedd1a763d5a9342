package repository

import (
	"context"

	"merkado/internal/domain/model"
)

// 在庫は products.stock を条件付きUPDATEで動かす。ロックは取らない
type InventoryRepository interface {
	// stock >= qty のときだけ減らす。足りなければ false
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 論理削除済みでも戻す。反映後の在庫を返す
	IncreaseStock(ctx context.Context, productID int64, qty int64) (int64, error)

	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
