package repository

import (
	"context"

	"merkado/internal/domain/model"

	"gorm.io/gorm"
)

type PriceHistoryGormRepository struct {
	db *gorm.DB
}

func NewPriceHistoryGormRepository(db *gorm.DB) *PriceHistoryGormRepository {
	return &PriceHistoryGormRepository{db: db}
}

func (r *PriceHistoryGormRepository) Append(ctx context.Context, rec model.PriceChangeRecord) error {
	return r.db.WithContext(ctx).Create(&rec).Error
}

// 新しい順
func (r *PriceHistoryGormRepository) ListByProductID(ctx context.Context, productID int64, limit int) ([]model.PriceChangeRecord, error) {
	q := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("change_date desc").
		Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []model.PriceChangeRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
