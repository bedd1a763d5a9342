package usecase

import (
	"context"

	"merkado/internal/domain/model"
	"merkado/internal/infra/logger"

	"go.uber.org/zap"
)

// 注文イベントの送信先
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error
}

// 送信失敗はログだけ。リクエストは失敗させない
func publishOrderEvent(ctx context.Context, pub OrderEventPublisher, log *zap.Logger, ev model.OrderEvent) {
	if pub == nil {
		return
	}
	if err := pub.PublishOrderEvent(ctx, ev); err != nil {
		logger.Warn(ctx, log, "publish order event failed",
			zap.String("type", string(ev.Type)),
			zap.Int64("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}
