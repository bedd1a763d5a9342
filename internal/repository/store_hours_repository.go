package repository

import (
	"context"

	"merkado/internal/domain/model"
)

type StoreHoursRepository interface {
	// 曜日順。未設定なら空
	ListBySellerID(ctx context.Context, sellerID int64) ([]model.StoreHours, error)
	// 7曜日分をまとめて置き換える
	ReplaceForSeller(ctx context.Context, sellerID int64, hours []model.StoreHours) error
}
