package repository

import (
	"context"

	"merkado/internal/domain/model"
	repo "merkado/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ? AND deleted_at IS NULL
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RETURNING stock で反映後の値を取る
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) (int64, error) {
	var p model.Product
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&p).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "stock"}}}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, repo.ErrNotFound
	}
	return p.Stock, nil
}

func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if adj.Source == "" {
		adj.Source = model.AdjustmentSourceManual
	}
	return r.db.WithContext(ctx).Create(&adj).Error
}
