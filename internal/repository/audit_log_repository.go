package repository

import (
	"context"

	"merkado/internal/domain/model"
)

// 監査ログは追記のみ
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
}
