package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Meetup is a time-boxed event owned by its organizer.
// swagger:model Meetup
type Meetup struct {
	ID           string    `json:"id"`
	OrganizerID  string    `json:"organizer_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	StartTime    time.Time `json:"start_time"`
	AttachmentID string    `json:"attachment_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HourSlot rounds t down to the start of its containing UTC hour. Organizer
// availability is compared on slots, never on raw instants.
func HourSlot(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// HourSlot returns the organizer calendar slot the meetup occupies.
func (m *Meetup) HourSlot() time.Time {
	return HourSlot(m.StartTime)
}

// HasStarted reports whether the meetup start is not strictly after now.
func (m *Meetup) HasStarted(now time.Time) bool {
	return !m.StartTime.After(now)
}

// ValidID reports whether id has the shape of an entity identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NormalizeID returns the canonical lowercase, dashed form of a UUID and
// returns anything else unchanged. Stored ids compare equal only in this form.
func NormalizeID(id string) string {
	u, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return u.String()
}

// StoredInstant truncates t to the microsecond precision the store keeps.
func StoredInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// CreateMeetupCommand carries the fields required to create a meetup.
type CreateMeetupCommand struct {
	OrganizerID  string
	Title        string
	Description  string
	Location     string
	StartTime    time.Time
	AttachmentID string
}

// Validate checks that every required field is present.
func (c CreateMeetupCommand) Validate() error {
	var errs []string
	if strings.TrimSpace(c.OrganizerID) == "" {
		errs = append(errs, "organizer_id is required")
	}
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		errs = append(errs, "location is required")
	}
	if c.StartTime.IsZero() {
		errs = append(errs, "start_time is required")
	}
	if c.AttachmentID == "" {
		errs = append(errs, "attachment_id is required")
	} else if !ValidID(c.AttachmentID) {
		errs = append(errs, "attachment_id is invalid")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}

// MeetupPatch lists the mutable meetup fields. A nil field means "no change".
type MeetupPatch struct {
	Title        *string
	Description  *string
	Location     *string
	StartTime    *time.Time
	AttachmentID *string
}

// Validate rejects present-but-malformed fields.
func (p MeetupPatch) Validate() error {
	var errs []string
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		errs = append(errs, "title must not be empty")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		errs = append(errs, "description must not be empty")
	}
	if p.Location != nil && strings.TrimSpace(*p.Location) == "" {
		errs = append(errs, "location must not be empty")
	}
	if p.StartTime != nil && p.StartTime.IsZero() {
		errs = append(errs, "start_time must not be empty")
	}
	if p.AttachmentID != nil && !ValidID(*p.AttachmentID) {
		errs = append(errs, "attachment_id is invalid")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p MeetupPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil && p.StartTime == nil && p.AttachmentID == nil
}

// Apply copies the present fields onto m.
func (p MeetupPatch) Apply(m *Meetup) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Location != nil {
		m.Location = *p.Location
	}
	if p.StartTime != nil {
		m.StartTime = *p.StartTime
	}
	if p.AttachmentID != nil {
		m.AttachmentID = *p.AttachmentID
	}
}

// UpdateMeetupCommand asks to apply Patch to the meetup on behalf of CallerID.
type UpdateMeetupCommand struct {
	MeetupID string
	CallerID string
	Patch    MeetupPatch
}

// MeetupListing is a meetup together with its organizer's display identity.
// swagger:model MeetupListing
type MeetupListing struct {
	*Meetup
	Organizer *User `json:"organizer"`
}

// MeetupFilter narrows the upcoming meetups listing.
type MeetupFilter struct {
	// Date, when set, restricts results to that UTC calendar day.
	Date       *time.Time
	After      time.Time
	Pagination PaginationParams
}

// DayBounds returns the half-open range [start, end) of the filter date's UTC day.
func (f MeetupFilter) DayBounds() (start, end time.Time, ok bool) {
	if f.Date == nil {
		return time.Time{}, time.Time{}, false
	}
	d := f.Date.UTC()
	start = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 0, 1)
	return start, end, true
}

// Transactor runs fn as one atomic unit against the store. Repository calls
// made with the context passed to fn join the transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MeetupRepository defines the interface for meetup storage.
type MeetupRepository interface {
	Create(ctx context.Context, m *Meetup) error
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Meetup, error)
	// GetByIDForShare blocks concurrent updates and deletes of the row until the surrounding transaction ends.
	GetByIDForShare(ctx context.Context, id string) (*Meetup, error)
	Update(ctx context.Context, m *Meetup) error
	Delete(ctx context.Context, id string) error
	// ExistsInSlot reports whether the organizer has a meetup other than excludeID in the given hour slot.
	ExistsInSlot(ctx context.Context, organizerID string, slot time.Time, excludeID string) (bool, error)
	ListUpcoming(ctx context.Context, filter MeetupFilter) ([]*MeetupListing, int, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*Meetup, error)
}

// MeetupListCache caches pages of the upcoming meetups listing.
type MeetupListCache interface {
	Get(ctx context.Context, key string) (*MeetupPage, bool, error)
	// Set stores page. A positive maxAge shortens the configured lifetime, so
	// a page is never served after its first meetup has started.
	Set(ctx context.Context, key string, page *MeetupPage, maxAge time.Duration) error
	// Invalidate discards every cached page.
	Invalidate(ctx context.Context) error
}

// MeetupPage is one page of the upcoming meetups listing.
type MeetupPage struct {
	Items []*MeetupListing `json:"items"`
	Total int              `json:"total"`
}

// ConflictChecker answers calendar questions without side effects.
type ConflictChecker interface {
	OrganizerHasMeetupAt(ctx context.Context, organizerID string, instant time.Time, excludeID string) (bool, error)
	AttendeeHasSubscriptionAt(ctx context.Context, userID string, instant time.Time) (bool, error)
	UserHasCommitmentAt(ctx context.Context, userID string, instant time.Time) (bool, error)
}

// MeetupService enforces creation, modification and cancellation rules for meetups.
type MeetupService interface {
	Create(ctx context.Context, cmd CreateMeetupCommand) (*Meetup, error)
	Update(ctx context.Context, cmd UpdateMeetupCommand) (*Meetup, error)
	Delete(ctx context.Context, meetupID, callerID string) error
	ListUpcoming(ctx context.Context, date *time.Time, pagination PaginationParams) (*MeetupPage, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*Meetup, error)
	HasCommitmentAt(ctx context.Context, userID string, instant time.Time) (bool, error)
}
