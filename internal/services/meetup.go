package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"meetapp/internal/clock"
	"meetapp/internal/domain"
)

// DefaultMeetupPageSize is the listing page size when the caller gives none.
const DefaultMeetupPageSize = 10

type meetupService struct {
	tx             domain.Transactor
	meetupRepo     domain.MeetupRepository
	attachments    domain.AttachmentResolver
	conflicts      domain.ConflictChecker
	cache          domain.MeetupListCache
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

// MeetupServiceOption customizes a MeetupService.
type MeetupServiceOption func(*meetupService)

// WithListCache caches upcoming meetup pages. Every successful command invalidates the cache.
func WithListCache(cache domain.MeetupListCache) MeetupServiceOption {
	return func(s *meetupService) {
		s.cache = cache
	}
}

// NewMeetupService creates the meetup lifecycle manager.
func NewMeetupService(
	tx domain.Transactor,
	meetupRepo domain.MeetupRepository,
	attachments domain.AttachmentResolver,
	conflicts domain.ConflictChecker,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
	opts ...MeetupServiceOption,
) domain.MeetupService {
	s := &meetupService{
		tx:             tx,
		meetupRepo:     meetupRepo,
		attachments:    attachments,
		conflicts:      conflicts,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *meetupService) Create(ctx context.Context, cmd domain.CreateMeetupCommand) (*domain.Meetup, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	cmd.OrganizerID = domain.NormalizeID(cmd.OrganizerID)
	cmd.AttachmentID = domain.NormalizeID(cmd.AttachmentID)
	cmd.StartTime = domain.StoredInstant(cmd.StartTime)
	if err := s.resolveAttachment(ctx, cmd.AttachmentID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !domain.HourSlot(cmd.StartTime).After(now) {
		return nil, domain.ErrPastDate
	}

	m := &domain.Meetup{
		ID:           newID(),
		OrganizerID:  cmd.OrganizerID,
		Title:        cmd.Title,
		Description:  cmd.Description,
		Location:     cmd.Location,
		StartTime:    cmd.StartTime,
		AttachmentID: cmd.AttachmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		taken, err := s.conflicts.OrganizerHasMeetupAt(ctx, cmd.OrganizerID, cmd.StartTime, "")
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrScheduleConflict
		}
		if err := s.meetupRepo.Create(ctx, m); err != nil {
			return fmt.Errorf("create meetup: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	return m, nil
}

func (s *meetupService) Update(ctx context.Context, cmd domain.UpdateMeetupCommand) (*domain.Meetup, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.ValidID(cmd.MeetupID) {
		return nil, fmt.Errorf("%w: meetup id is invalid", domain.ErrValidation)
	}
	cmd.MeetupID = domain.NormalizeID(cmd.MeetupID)
	cmd.CallerID = domain.NormalizeID(cmd.CallerID)
	patch := cmd.Patch
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: at least one field is required", domain.ErrValidation)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.AttachmentID != nil {
		id := domain.NormalizeID(*patch.AttachmentID)
		patch.AttachmentID = &id
		if err := s.resolveAttachment(ctx, *patch.AttachmentID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	if patch.StartTime != nil {
		start := domain.StoredInstant(*patch.StartTime)
		if !domain.HourSlot(start).After(now) {
			return nil, domain.ErrPastDate
		}
		patch.StartTime = &start
	}

	var updated *domain.Meetup
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if patch.StartTime != nil {
			taken, err := s.conflicts.OrganizerHasMeetupAt(ctx, cmd.CallerID, *patch.StartTime, cmd.MeetupID)
			if err != nil {
				return err
			}
			if taken {
				return domain.ErrScheduleConflict
			}
		}

		m, err := s.loadOwned(ctx, cmd.MeetupID, cmd.CallerID)
		if err != nil {
			return err
		}
		if m.HasStarted(now) {
			return domain.ErrAlreadyOccurred
		}

		patch.Apply(m)
		m.UpdatedAt = now
		if err := s.meetupRepo.Update(ctx, m); err != nil {
			return fmt.Errorf("update meetup: %w", err)
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	return updated, nil
}

func (s *meetupService) Delete(ctx context.Context, meetupID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.ValidID(meetupID) {
		return fmt.Errorf("%w: meetup id is invalid", domain.ErrValidation)
	}
	meetupID, callerID = domain.NormalizeID(meetupID), domain.NormalizeID(callerID)

	now := s.clock.Now()
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		m, err := s.loadOwned(ctx, meetupID, callerID)
		if err != nil {
			return err
		}
		if m.HasStarted(now) {
			return domain.ErrAlreadyOccurred
		}
		if err := s.meetupRepo.Delete(ctx, meetupID); err != nil {
			return fmt.Errorf("delete meetup: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateListings(ctx)
	return nil
}

// loadOwned locks the meetup and checks ownership before anything about its
// timing is revealed. A missing meetup is reported as ErrNotOrganizer too.
func (s *meetupService) loadOwned(ctx context.Context, meetupID, callerID string) (*domain.Meetup, error) {
	m, err := s.meetupRepo.GetByIDForUpdate(ctx, meetupID)
	if err != nil {
		if errors.Is(err, domain.ErrMeetupNotFound) {
			return nil, domain.ErrNotOrganizer
		}
		return nil, fmt.Errorf("get meetup: %w", err)
	}
	if m.OrganizerID != callerID {
		return nil, domain.ErrNotOrganizer
	}
	return m, nil
}

func (s *meetupService) resolveAttachment(ctx context.Context, attachmentID string) error {
	ok, err := s.attachments.Exists(ctx, attachmentID)
	if err != nil {
		return fmt.Errorf("resolve attachment: %w", err)
	}
	if !ok {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

func (s *meetupService) ListUpcoming(ctx context.Context, date *time.Time, pagination domain.PaginationParams) (*domain.MeetupPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	pagination = pagination.Normalized(DefaultMeetupPageSize)
	key := listingCacheKey(date, pagination)
	if s.cache != nil {
		page, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "meetup listing cache read failed", "key", key, "err", err)
		} else if ok {
			return page, nil
		}
	}

	now := s.clock.Now()
	items, total, err := s.meetupRepo.ListUpcoming(ctx, domain.MeetupFilter{
		Date:       date,
		After:      now,
		Pagination: pagination,
	})
	if err != nil {
		return nil, fmt.Errorf("list upcoming meetups: %w", err)
	}
	page := &domain.MeetupPage{Items: items, Total: total}

	if s.cache != nil && cacheable(items, now) {
		var maxAge time.Duration
		if len(items) > 0 {
			maxAge = items[0].StartTime.Sub(now)
		}
		if err := s.cache.Set(ctx, key, page, maxAge); err != nil {
			s.logger.WarnContext(ctx, "meetup listing cache write failed", "key", key, "err", err)
		}
	}
	return page, nil
}

func (s *meetupService) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Meetup, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	meetups, err := s.meetupRepo.ListByOrganizer(ctx, domain.NormalizeID(organizerID))
	if err != nil {
		return nil, fmt.Errorf("list organizer meetups: %w", err)
	}
	if meetups == nil {
		meetups = []*domain.Meetup{}
	}
	return meetups, nil
}

func (s *meetupService) HasCommitmentAt(ctx context.Context, userID string, instant time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.conflicts.UserHasCommitmentAt(ctx, domain.NormalizeID(userID), instant)
}

// cacheable rejects pages whose first meetup starts within a millisecond,
// below the expiry resolution of the cache.
func cacheable(items []*domain.MeetupListing, now time.Time) bool {
	return len(items) == 0 || items[0].StartTime.Sub(now) >= time.Millisecond
}

func (s *meetupService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "meetup listing cache invalidation failed", "err", err)
	}
}

// listingCacheKey identifies one page of the listing, e.g. "date=2031-01-10:page=1:size=10".
func listingCacheKey(date *time.Time, p domain.PaginationParams) string {
	day := "any"
	if date != nil {
		day = date.UTC().Format(time.DateOnly)
	}
	return fmt.Sprintf("date=%s:page=%d:size=%d", day, p.Page, p.PageSize)
}
