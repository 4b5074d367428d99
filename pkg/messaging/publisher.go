package messaging

import (
	"context"
	"time"
)

// NotificationEvent is published after a notification row has been stored
type NotificationEvent struct {
	NotificationID uint      `json:"notification_id"`
	RecipientID    uint      `json:"recipient_id"`
	SenderID       *uint     `json:"sender_id,omitempty"`
	Verb           string    `json:"verb"`
	TargetID       *uint     `json:"target_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher fans notification events out to downstream consumers (mail digests, push)
type Publisher interface {
	PublishNotification(ctx context.Context, event NotificationEvent) error
}

// NoopPublisher drops events; used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) PublishNotification(context.Context, NotificationEvent) error { return nil }
