package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"merkado/internal/domain/model"
	repo "merkado/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	before, err := jsonbValue(log.BeforeJSON)
	if err != nil {
		return fmt.Errorf("audit before_json: %w", err)
	}
	after, err := jsonbValue(log.AfterJSON)
	if err != nil {
		return fmt.Errorf("audit after_json: %w", err)
	}
	log.BeforeJSON, log.AfterJSON = before, after
	return r.db.WithContext(ctx).Create(&log).Error
}

// 空は {} 、壊れたJSONはDBに投げる前に弾く
func jsonbValue(s string) (string, error) {
	if s == "" {
		return "{}", nil
	}
	if !json.Valid([]byte(s)) {
		return "", fmt.Errorf("invalid json: %q", s)
	}
	return s, nil
}
