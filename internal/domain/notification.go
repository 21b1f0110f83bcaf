package domain

import (
	"context"
	"time"
)

// SubscriptionNotification is the intent emitted after a subscription is admitted.
type SubscriptionNotification struct {
	SubscriptionID  string    `json:"subscription_id"`
	MeetupID        string    `json:"meetup_id"`
	MeetupTitle     string    `json:"meetup_title"`
	MeetupLocation  string    `json:"meetup_location"`
	MeetupStartTime time.Time `json:"meetup_start_time"`
	Organizer       *User     `json:"organizer"`
	Subscriber      *User     `json:"subscriber"`
	CreatedAt       time.Time `json:"created_at"`
}

// NotificationEmitter hands notification intents to the messaging collaborator.
// Emit must not wait for delivery.
type NotificationEmitter interface {
	Emit(ctx context.Context, n *SubscriptionNotification) error
}

// AttachmentResolver reports whether an attachment reference exists.
type AttachmentResolver interface {
	Exists(ctx context.Context, attachmentID string) (bool, error)
}
