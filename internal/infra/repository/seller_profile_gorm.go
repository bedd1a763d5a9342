package repository

import (
	"context"

	"merkado/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SellerProfileGormRepository struct {
	db *gorm.DB
}

func NewSellerProfileGormRepository(db *gorm.DB) *SellerProfileGormRepository {
	return &SellerProfileGormRepository{db: db}
}

func (r *SellerProfileGormRepository) FindByUserID(ctx context.Context, userID int64) (model.SellerProfile, error) {
	var p model.SellerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return model.SellerProfile{}, mapErr(err)
	}
	return p, nil
}

// user_id が同じなら上書き
func (r *SellerProfileGormRepository) Upsert(ctx context.Context, p model.SellerProfile) (model.SellerProfile, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"store_name", "latitude", "longitude", "payment_qr_path", "updated_at"}),
		}).
		Create(&p).Error
	if err != nil {
		return model.SellerProfile{}, mapErr(err)
	}
	return r.FindByUserID(ctx, p.UserID)
}
