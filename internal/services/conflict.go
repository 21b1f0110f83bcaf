package services

import (
	"context"
	"fmt"
	"time"

	"meetapp/internal/domain"
)

type conflictChecker struct {
	meetupRepo       domain.MeetupRepository
	subscriptionRepo domain.SubscriptionRepository
}

// NewConflictChecker returns a ConflictChecker reading from the given repositories.
// Called with a transactional context, its reads join that transaction.
func NewConflictChecker(meetupRepo domain.MeetupRepository, subscriptionRepo domain.SubscriptionRepository) domain.ConflictChecker {
	return &conflictChecker{
		meetupRepo:       meetupRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// OrganizerHasMeetupAt compares hour slots, so 14:05 and 14:50 collide.
func (c *conflictChecker) OrganizerHasMeetupAt(ctx context.Context, organizerID string, instant time.Time, excludeID string) (bool, error) {
	taken, err := c.meetupRepo.ExistsInSlot(ctx, organizerID, domain.HourSlot(instant), excludeID)
	if err != nil {
		return false, fmt.Errorf("check organizer slot: %w", err)
	}
	return taken, nil
}

// AttendeeHasSubscriptionAt compares exact start instants.
func (c *conflictChecker) AttendeeHasSubscriptionAt(ctx context.Context, userID string, instant time.Time) (bool, error) {
	busy, err := c.subscriptionRepo.ExistsAtStart(ctx, userID, instant)
	if err != nil {
		return false, fmt.Errorf("check attendee calendar: %w", err)
	}
	return busy, nil
}

func (c *conflictChecker) UserHasCommitmentAt(ctx context.Context, userID string, instant time.Time) (bool, error) {
	organizing, err := c.OrganizerHasMeetupAt(ctx, userID, instant, "")
	if err != nil || organizing {
		return organizing, err
	}
	return c.AttendeeHasSubscriptionAt(ctx, userID, instant)
}
