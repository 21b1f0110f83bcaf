package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetapp/internal/domain"
)

func TestConflictChecker(t *testing.T) {
	store := newFakeStore()
	checker := NewConflictChecker(fakeMeetupRepo{store}, fakeSubscriptionRepo{store})
	ctx := context.Background()

	organized := "0190c1c4-6d4e-7000-8000-000000000e01"
	attended := "0190c1c4-6d4e-7000-8000-000000000e02"
	organizedStart := time.Date(2031, 3, 1, 10, 0, 0, 0, time.UTC)
	attendedStart := time.Date(2031, 3, 1, 15, 20, 0, 0, time.UTC)
	store.addMeetup(seededMeetup(organized, userB, organizedStart))
	store.addMeetup(seededMeetup(attended, organizerA, attendedStart))
	store.addSubscription(domain.NewSubscription("0190c1c4-6d4e-7000-8000-000000000e03", attended, userB, testNow))

	t.Run("organizer side compares hour slots", func(t *testing.T) {
		busy, err := checker.OrganizerHasMeetupAt(ctx, userB, organizedStart.Add(45*time.Minute), "")
		require.NoError(t, err)
		assert.True(t, busy)

		busy, err = checker.OrganizerHasMeetupAt(ctx, userB, organizedStart, organized)
		require.NoError(t, err)
		assert.False(t, busy, "excluded meetup does not conflict with itself")
	})

	t.Run("attendee side compares exact instants", func(t *testing.T) {
		busy, err := checker.AttendeeHasSubscriptionAt(ctx, userB, attendedStart)
		require.NoError(t, err)
		assert.True(t, busy)

		busy, err = checker.AttendeeHasSubscriptionAt(ctx, userB, attendedStart.Add(-20*time.Minute))
		require.NoError(t, err)
		assert.False(t, busy)
	})

	t.Run("user commitment covers both roles", func(t *testing.T) {
		for _, at := range []time.Time{organizedStart.Add(10 * time.Minute), attendedStart} {
			busy, err := checker.UserHasCommitmentAt(ctx, userB, at)
			require.NoError(t, err)
			assert.True(t, busy, "at %s", at)
		}
		busy, err := checker.UserHasCommitmentAt(ctx, userB, organizedStart.Add(2*time.Hour))
		require.NoError(t, err)
		assert.False(t, busy)
	})

	t.Run("store errors propagate", func(t *testing.T) {
		store.err = domain.ErrStoreUnavailable
		defer func() { store.err = nil }()
		_, err := checker.UserHasCommitmentAt(ctx, userB, organizedStart)
		assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	})
}

func TestMeetupService_HasCommitmentAt(t *testing.T) {
	store, svc := newMeetupFixture(testNow)
	start := time.Date(2031, 3, 1, 10, 0, 0, 0, time.UTC)
	store.addMeetup(seededMeetup("0190c1c4-6d4e-7000-8000-000000000f01", organizerA, start))

	busy, err := svc.HasCommitmentAt(context.Background(), organizerA, start.Add(5*time.Minute))
	require.NoError(t, err)
	assert.True(t, busy)

	busy, err = svc.HasCommitmentAt(context.Background(), userC, start)
	require.NoError(t, err)
	assert.False(t, busy)
}
