package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"meetapp/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	invalidTextRep      = "22P02"
)

// constraintErrors maps named schema constraints to the domain error they enforce.
var constraintErrors = map[string]error{
	"meetups_organizer_slot_key":    domain.ErrScheduleConflict,
	"meetups_attachment_id_fkey":    domain.ErrAttachmentNotFound,
	"subscriptions_meetup_user_key": domain.ErrAlreadySubscribed,
	"subscriptions_meetup_id_fkey":  domain.ErrMeetupNotFound,
}

// storeErr translates a driver error into the domain vocabulary. Constraint
// violations become their domain sentinel, transient failures become
// domain.ErrStoreUnavailable, and anything else is wrapped with op.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation, foreignKeyViolation:
			if mapped, ok := constraintErrors[pqErr.Constraint]; ok {
				return mapped
			}
		case invalidTextRep:
			return fmt.Errorf("%w: malformed identifier", domain.ErrValidation)
		}
		if isTransientCode(pqErr.Code) {
			return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if isTransient(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransientCode(code pq.ErrorCode) bool {
	switch code {
	case "40001", "40P01", "57P01", "57P03", "53300":
		return true
	}
	return code.Class() == "08"
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
