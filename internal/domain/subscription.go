package domain

import (
	"context"
	"time"
)

// Subscription records a user's admission to a meetup.
// swagger:model Subscription
type Subscription struct {
	ID        string    `json:"id"`
	MeetupID  string    `json:"meetup_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSubscription creates a new Subscription.
func NewSubscription(id, meetupID, userID string, createdAt time.Time) *Subscription {
	return &Subscription{
		ID:        id,
		MeetupID:  meetupID,
		UserID:    userID,
		CreatedAt: createdAt,
	}
}

// SubscriptionWithMeetup bundles a subscription with its meetup.
// swagger:model SubscriptionWithMeetup
type SubscriptionWithMeetup struct {
	Subscription *Subscription `json:"subscription"`
	Meetup       *Meetup       `json:"meetup"`
}

// SubscriptionRepository defines storage operations for subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) error
	Exists(ctx context.Context, meetupID, userID string) (bool, error)
	// LockUser serializes admissions of one user until the surrounding transaction ends.
	LockUser(ctx context.Context, userID string) error
	// ExistsAtStart reports whether the user holds a subscription to a meetup starting exactly at start.
	ExistsAtStart(ctx context.Context, userID string, start time.Time) (bool, error)
	ListUpcomingByUser(ctx context.Context, userID string, after time.Time) ([]*SubscriptionWithMeetup, error)
}

// SubscriptionService admits users to meetups.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID, meetupID string) (*Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*SubscriptionWithMeetup, error)
}
