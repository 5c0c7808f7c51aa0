package event

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/account-service/internal/application/service"
	"github.com/khoahotran/account-service/pkg/logger"
)

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type AccountEventHandler interface {
	Execute(ctx context.Context, payload service.AccountEvent) error
}

// AccountEventConsumer processes account events one at a time. Group commits
// are per-partition high-water marks, so a message is retried until it
// succeeds rather than skipped; committing a later offset would drop it.
type AccountEventConsumer struct {
	reader     MessageReader
	handler    AccountEventHandler
	logger     logger.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewAccountEventConsumer(reader MessageReader, handler AccountEventHandler, log logger.Logger) *AccountEventConsumer {
	return &AccountEventConsumer{
		reader:     reader,
		handler:    handler,
		logger:     log,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
}

// Run consumes until ctx is done.
func (c *AccountEventConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to read message from Kafka", err)
			if !c.wait(ctx, c.minBackoff) {
				return
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			return
		}
	}
}

// process handles msg and commits it. It only returns an error when ctx ends
// first, in which case msg stays uncommitted.
func (c *AccountEventConsumer) process(ctx context.Context, msg kafka.Message) error {
	l := c.logger.With(
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	payload, err := DecodeAccountEvent(msg)
	if err != nil {
		l.Error("Failed to decode event, skipping", err)
		c.commit(l, msg)
		return nil
	}

	backoff := c.minBackoff
	for attempt := 1; ; attempt++ {
		err := c.handler.Execute(ctx, payload)
		if err == nil {
			c.commit(l, msg)
			return nil
		}

		l.Error("Failed to process event, retrying", err,
			zap.String("account_id", payload.AccountID.String()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
		)
		if !c.wait(ctx, backoff) {
			return ctx.Err()
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

func (c *AccountEventConsumer) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *AccountEventConsumer) commit(l logger.Logger, msg kafka.Message) {
	if err := c.reader.CommitMessages(context.Background(), msg); err != nil {
		l.Error("Failed to commit message", err)
	}
}
