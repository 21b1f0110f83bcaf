package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meetapp/internal/clock"
	"meetapp/internal/domain"
)

type subscriptionService struct {
	tx               domain.Transactor
	meetupRepo       domain.MeetupRepository
	subscriptionRepo domain.SubscriptionRepository
	users            domain.UserDirectory
	conflicts        domain.ConflictChecker
	emitter          domain.NotificationEmitter
	clock            clock.Clock
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewSubscriptionService creates the subscription admission manager.
func NewSubscriptionService(
	tx domain.Transactor,
	meetupRepo domain.MeetupRepository,
	subscriptionRepo domain.SubscriptionRepository,
	users domain.UserDirectory,
	conflicts domain.ConflictChecker,
	emitter domain.NotificationEmitter,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.SubscriptionService {
	return &subscriptionService{
		tx:               tx,
		meetupRepo:       meetupRepo,
		subscriptionRepo: subscriptionRepo,
		users:            users,
		conflicts:        conflicts,
		emitter:          emitter,
		clock:            clk,
		logger:           logger,
		contextTimeout:   timeout,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, meetupID string) (*domain.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.ValidID(meetupID) {
		return nil, fmt.Errorf("%w: meetup_id is invalid", domain.ErrValidation)
	}
	meetupID, userID = domain.NormalizeID(meetupID), domain.NormalizeID(userID)

	now := s.clock.Now()
	var (
		sub    *domain.Subscription
		meetup *domain.Meetup
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		m, err := s.meetupRepo.GetByIDForShare(ctx, meetupID)
		if err != nil {
			return err
		}
		if m.OrganizerID == userID {
			return domain.ErrSelfSubscription
		}
		if m.HasStarted(now) {
			return domain.ErrAlreadyOccurred
		}

		if err := s.subscriptionRepo.LockUser(ctx, userID); err != nil {
			return fmt.Errorf("lock user calendar: %w", err)
		}
		exists, err := s.subscriptionRepo.Exists(ctx, meetupID, userID)
		if err != nil {
			return fmt.Errorf("check subscription: %w", err)
		}
		if exists {
			return domain.ErrAlreadySubscribed
		}
		busy, err := s.conflicts.AttendeeHasSubscriptionAt(ctx, userID, m.StartTime)
		if err != nil {
			return err
		}
		if busy {
			return domain.ErrDoubleBooking
		}

		created := domain.NewSubscription(newID(), meetupID, userID, now)
		if err := s.subscriptionRepo.Create(ctx, created); err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		sub, meetup = created, m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, meetup, sub)
	return sub, nil
}

// notify emits the admission intent. The subscription is already committed,
// so failures are logged and never returned.
func (s *subscriptionService) notify(ctx context.Context, m *domain.Meetup, sub *domain.Subscription) {
	organizer, err := s.users.GetByID(ctx, m.OrganizerID)
	if err != nil {
		s.logger.WarnContext(ctx, "notification skipped: organizer lookup failed", "meetup_id", m.ID, "err", err)
		return
	}
	subscriber, err := s.users.GetByID(ctx, sub.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "notification skipped: subscriber lookup failed", "subscription_id", sub.ID, "err", err)
		return
	}
	n := &domain.SubscriptionNotification{
		SubscriptionID:  sub.ID,
		MeetupID:        m.ID,
		MeetupTitle:     m.Title,
		MeetupLocation:  m.Location,
		MeetupStartTime: m.StartTime,
		Organizer:       organizer,
		Subscriber:      subscriber,
		CreatedAt:       sub.CreatedAt,
	}
	if err := s.emitter.Emit(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "notification emit failed", "subscription_id", sub.ID, "err", err)
	}
}

func (s *subscriptionService) ListByUser(ctx context.Context, userID string) ([]*domain.SubscriptionWithMeetup, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	subs, err := s.subscriptionRepo.ListUpcomingByUser(ctx, domain.NormalizeID(userID), s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if subs == nil {
		subs = []*domain.SubscriptionWithMeetup{}
	}
	return subs, nil
}
