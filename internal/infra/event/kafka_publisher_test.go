package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"merkado/internal/domain/model"
	"merkado/internal/infra/event"
	"merkado/internal/infra/logger"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func placedEvent() model.OrderEvent {
	return model.OrderEvent{
		Type:       model.OrderEventPlaced,
		OrderID:    42,
		BuyerID:    7,
		SellerID:   3,
		Status:     model.OrderStatusPending,
		Total:      decimal.RequireFromString("540.50"),
		OccurredAt: time.Date(2025, 3, 3, 2, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_SendsJSONKeyedByOrderID(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "orders" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "42" {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) < 2 || string(msg.Headers[1].Value) != "req-1" {
			return errors.New("request_id header missing")
		}

		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var got map[string]any
		if err := json.Unmarshal(raw, &got); err != nil {
			return err
		}
		if got["type"] != "order.placed" || got["status"] != "PENDING" {
			return errors.New("unexpected body " + string(raw))
		}
		return nil
	})

	p := event.NewKafkaPublisherWithProducer(sp, "orders", zap.NewNop())
	ctx := logger.WithRequestID(context.Background(), "req-1")

	require.NoError(t, p.PublishOrderEvent(ctx, placedEvent()))
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 5; i++ {
		sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	p := event.NewKafkaPublisherWithProducer(sp, "orders", zap.NewNop())
	for i := 0; i < 5; i++ {
		err := p.PublishOrderEvent(context.Background(), placedEvent())
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	}

	// 開いている間はproducerを呼ばない
	err := p.PublishOrderEvent(context.Background(), placedEvent())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	require.NoError(t, p.Close())
}

func TestLogPublisher_NeverFails(t *testing.T) {
	p := event.NewLogPublisher(zap.NewNop())
	assert.NoError(t, p.PublishOrderEvent(context.Background(), placedEvent()))
}
