package controllers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"meetapp/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeMeetupService implements domain.MeetupService for handler tests.
type fakeMeetupService struct {
	err error

	createResult *domain.Meetup
	updateResult *domain.Meetup
	listResult   *domain.MeetupPage
	mineResult   []*domain.Meetup
	busy         bool

	lastCreate     domain.CreateMeetupCommand
	lastUpdate     domain.UpdateMeetupCommand
	lastDeleteID   string
	lastDeleteBy   string
	lastListDate   *time.Time
	lastListParams domain.PaginationParams
	lastMineBy     string
	lastBusyUser   string
	lastBusyAt     time.Time
}

func (f *fakeMeetupService) Create(ctx context.Context, cmd domain.CreateMeetupCommand) (*domain.Meetup, error) {
	f.lastCreate = cmd
	if f.err != nil {
		return nil, f.err
	}
	return f.createResult, nil
}

func (f *fakeMeetupService) Update(ctx context.Context, cmd domain.UpdateMeetupCommand) (*domain.Meetup, error) {
	f.lastUpdate = cmd
	if f.err != nil {
		return nil, f.err
	}
	return f.updateResult, nil
}

func (f *fakeMeetupService) Delete(ctx context.Context, meetupID, callerID string) error {
	f.lastDeleteID, f.lastDeleteBy = meetupID, callerID
	return f.err
}

func (f *fakeMeetupService) ListUpcoming(ctx context.Context, date *time.Time, p domain.PaginationParams) (*domain.MeetupPage, error) {
	f.lastListDate, f.lastListParams = date, p
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeMeetupService) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Meetup, error) {
	f.lastMineBy = organizerID
	if f.err != nil {
		return nil, f.err
	}
	return f.mineResult, nil
}

func (f *fakeMeetupService) HasCommitmentAt(ctx context.Context, userID string, instant time.Time) (bool, error) {
	f.lastBusyUser, f.lastBusyAt = userID, instant
	return f.busy, f.err
}

// fakeSubscriptionService implements domain.SubscriptionService for handler tests.
type fakeSubscriptionService struct {
	err        error
	result     *domain.Subscription
	listResult []*domain.SubscriptionWithMeetup

	lastUserID   string
	lastMeetupID string
}

func (f *fakeSubscriptionService) Subscribe(ctx context.Context, userID, meetupID string) (*domain.Subscription, error) {
	f.lastUserID, f.lastMeetupID = userID, meetupID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSubscriptionService) ListByUser(ctx context.Context, userID string) ([]*domain.SubscriptionWithMeetup, error) {
	f.lastUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}
