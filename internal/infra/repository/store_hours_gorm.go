package repository

import (
	"context"

	"merkado/internal/domain/model"

	"gorm.io/gorm"
)

type StoreHoursGormRepository struct {
	db *gorm.DB
}

func NewStoreHoursGormRepository(db *gorm.DB) *StoreHoursGormRepository {
	return &StoreHoursGormRepository{db: db}
}

func (r *StoreHoursGormRepository) ListBySellerID(ctx context.Context, sellerID int64) ([]model.StoreHours, error) {
	var rows []model.StoreHours
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("day_of_week asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// 削除→作成を1トランザクションで
func (r *StoreHoursGormRepository) ReplaceForSeller(ctx context.Context, sellerID int64, hours []model.StoreHours) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("seller_id = ?", sellerID).Delete(&model.StoreHours{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		rows := make([]model.StoreHours, len(hours))
		for i, h := range hours {
			h.ID = 0
			h.SellerID = sellerID
			rows[i] = h
		}
		return mapErr(tx.Create(&rows).Error)
	})
}
