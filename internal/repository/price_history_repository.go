package repository

import (
	"context"

	"merkado/internal/domain/model"
)

// 価格変更履歴。追記と新しい順の読み出しだけ。
type PriceHistoryRepository interface {
	Append(ctx context.Context, rec model.PriceChangeRecord) error
	// limit <= 0 なら全件
	ListByProductID(ctx context.Context, productID int64, limit int) ([]model.PriceChangeRecord, error)
}
