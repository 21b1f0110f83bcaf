package domain

import "errors"

// Sentinel errors surfaced by the meetup and subscription engine. Callers
// match them with errors.Is; details are attached with fmt.Errorf("%w: ...").
var (
	ErrValidation         = errors.New("validation failed")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrPastDate           = errors.New("past dates are not permitted")
	ErrScheduleConflict   = errors.New("meetup date is not available")
	ErrNotOrganizer       = errors.New("user is not the organizer of the meetup")
	ErrAlreadyOccurred    = errors.New("meetup has already taken place")
	ErrMeetupNotFound     = errors.New("meetup not found")
	ErrSelfSubscription   = errors.New("organizer cannot subscribe to own meetup")
	ErrAlreadySubscribed  = errors.New("user has already subscribed")
	ErrDoubleBooking      = errors.New("cannot subscribe to two meetups at the same time")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrUserNotFound       = errors.New("user not found")
)

// IsRetryable reports whether err may succeed when the same request is sent again.
// Only transient store failures qualify; every other error needs a corrected request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
