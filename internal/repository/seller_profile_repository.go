package repository

import (
	"context"

	"merkado/internal/domain/model"
)

type SellerProfileRepository interface {
	FindByUserID(ctx context.Context, userID int64) (model.SellerProfile, error)
	Upsert(ctx context.Context, p model.SellerProfile) (model.SellerProfile, error)
}
