package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/account-service/internal/application/service"
	"github.com/khoahotran/account-service/internal/config"
	"github.com/khoahotran/account-service/pkg/logger"
)

const TopicAccountEvents = "account.events"

type KafkaProducerClient struct {
	AccountEventsWriter *kafka.Writer
	logger              logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicAccountEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka producer successfully.", zap.Strings("brokers", brokers))
	return &KafkaProducerClient{AccountEventsWriter: writer, logger: log}, nil
}

// PublishAccountEvent keys messages by email so one account's events stay ordered.
func (c *KafkaProducerClient) PublishAccountEvent(ctx context.Context, e service.AccountEvent) error {
	msg, err := newAccountMessage(e)
	if err != nil {
		return err
	}
	if err := c.AccountEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event: %w", e.EventType, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.AccountEventsWriter != nil {
		if err := c.AccountEventsWriter.Close(); err != nil {
			c.logger.Warn("Closing Kafka writer failed", zap.Error(err))
		}
	}
	c.logger.Info("Closed Kafka producer")
}

func newAccountMessage(e service.AccountEvent) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s event: %w", e.EventType, err)
	}
	return kafka.Message{
		Key:   []byte(e.Email),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	}, nil
}

// DecodeAccountEvent parses a message produced by PublishAccountEvent.
func DecodeAccountEvent(msg kafka.Message) (service.AccountEvent, error) {
	var e service.AccountEvent
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return e, fmt.Errorf("invalid account event: %w", err)
	}
	if e.EventType == "" || e.Email == "" {
		return e, fmt.Errorf("invalid account event: missing event_type or email")
	}
	return e, nil
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct {
	Logger logger.Logger
}

func (p NoopPublisher) PublishAccountEvent(_ context.Context, e service.AccountEvent) error {
	p.Logger.Debug("Kafka disabled, dropping event", zap.String("event_type", e.EventType), zap.String("account_id", e.AccountID.String()))
	return nil
}
