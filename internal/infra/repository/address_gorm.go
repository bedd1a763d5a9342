package repository

import (
	"context"

	"merkado/internal/domain/model"
	repo "merkado/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type addressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.Address{}, mapErr(err)
	}
	return address, nil
}

func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var list []model.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("id").
		Find(&list).Error
	return list, err
}

func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).First(&a, addressID).Error; err != nil {
		return model.Address{}, mapErr(err)
	}
	return a, nil
}

// 位置と連絡先だけ更新。is_default はSetDefaultでしか動かさない
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	res := r.db.WithContext(ctx).
		Model(&model.Address{ID: address.ID}).
		Select("name", "address", "contact", "latitude", "longitude", "updated_at").
		Updates(address)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *addressGormRepository) Delete(ctx context.Context, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deleted model.Address
		res := tx.Clauses(clause.Returning{}).Where("id = ?", addressID).Delete(&deleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		if !deleted.IsDefault {
			return nil
		}

		var next model.Address
		err := tx.Where("user_id = ?", deleted.UserID).Order("id").Limit(1).Find(&next).Error
		if err != nil || next.ID == 0 {
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
}

func (r *addressGormRepository) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		Count(&n).Error
	return n == 1, err
}

// UPDATE addresses SET is_default = (id = ?) WHERE user_id = ? の1文で切り替える
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	owned, err := r.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return repo.ErrNotFound
	}

	return r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("user_id = ?", userID).
		Update("is_default", gorm.Expr("id = ?", addressID)).Error
}
