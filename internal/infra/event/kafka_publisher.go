// Package event は注文イベントをKafkaへ流す。
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"merkado/internal/domain/model"
	"merkado/internal/infra/logger"

	"github.com/IBM/sarama"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       *gobreaker.CircuitBreaker
	log      *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(p, topic, log), nil
}

// テストではsaramaのmockを渡す
func NewKafkaPublisherWithProducer(p sarama.SyncProducer, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: p,
		topic:    topic,
		cb:       newBreaker("kafka-"+topic, log),
		log:      log,
	}
}

// 同じ注文のイベントは同じパーティションに載るよう注文IDをキーにする
func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(ev.OrderID, 10)),
		Value: sarama.StringEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(ev.Type)},
		},
	}
	if id := logger.RequestID(ctx); id != "" {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte("request_id"), Value: []byte(id)})
	}

	offset, err := executeWithBreaker(p.cb, func() (int64, error) {
		_, offset, err := p.producer.SendMessage(msg)
		return offset, err
	})
	if err != nil {
		return fmt.Errorf("send order event: %w", err)
	}

	logger.Info(ctx, p.log, "order event published",
		zap.String("type", string(ev.Type)),
		zap.Int64("order_id", ev.OrderID),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// ブローカー未設定のときの送信先。ログだけ残す
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	logger.Info(ctx, p.log, "order event",
		zap.String("type", string(ev.Type)),
		zap.Int64("order_id", ev.OrderID),
		zap.String("status", string(ev.Status)),
	)
	return nil
}
