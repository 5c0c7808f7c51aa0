package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const AccountEventTypeRegistered = "account.registered"

type AccountEvent struct {
	EventType    string    `json:"event_type"`
	AccountID    uuid.UUID `json:"account_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PhotoURL     string    `json:"photo_url"`
	RegisteredAt time.Time `json:"registered_at"`
}

type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, e AccountEvent) error
}
