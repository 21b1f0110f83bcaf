package postgres

import (
	"context"
	"database/sql"
	"time"

	"meetapp/internal/domain"
)

type subscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) domain.SubscriptionRepository {
	return &subscriptionRepository{DB: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, meetup_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, s.ID, s.MeetupID, s.UserID, s.CreatedAt)
	return storeErr("insert subscription", err)
}

func (r *subscriptionRepository) Exists(ctx context.Context, meetupID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE meetup_id = $1 AND user_id = $2)`
	var exists bool
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query, meetupID, userID).Scan(&exists); err != nil {
		return false, storeErr("check subscription", err)
	}
	return exists, nil
}

// LockUser takes a transaction-scoped advisory lock on the user's calendar.
// Outside a transaction the lock would be released immediately.
func (r *subscriptionRepository) LockUser(ctx context.Context, userID string) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID)
	return storeErr("lock user calendar", err)
}

func (r *subscriptionRepository) ExistsAtStart(ctx context.Context, userID string, start time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM subscriptions s
			JOIN meetups m ON m.id = s.meetup_id
			WHERE s.user_id = $1 AND m.start_time = $2
		)
	`
	var exists bool
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query, userID, start.UTC()).Scan(&exists); err != nil {
		return false, storeErr("check attendee calendar", err)
	}
	return exists, nil
}

func (r *subscriptionRepository) ListUpcomingByUser(ctx context.Context, userID string, after time.Time) ([]*domain.SubscriptionWithMeetup, error) {
	query := `
		SELECT s.id, s.meetup_id, s.user_id, s.created_at,
			m.id, m.organizer_id, m.title, m.description, m.location, m.start_time, m.attachment_id, m.created_at, m.updated_at
		FROM subscriptions s
		JOIN meetups m ON m.id = s.meetup_id
		WHERE s.user_id = $1 AND m.start_time > $2
		ORDER BY m.start_time ASC, m.id ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID, after)
	if err != nil {
		return nil, storeErr("list subscriptions", err)
	}
	defer rows.Close()

	out := make([]*domain.SubscriptionWithMeetup, 0)
	for rows.Next() {
		s := &domain.Subscription{}
		m := &domain.Meetup{}
		var desc, location, attachment sql.NullString
		if err := rows.Scan(
			&s.ID, &s.MeetupID, &s.UserID, &s.CreatedAt,
			&m.ID, &m.OrganizerID, &m.Title, &desc, &location, &m.StartTime, &attachment, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, storeErr("scan subscription", err)
		}
		m.Description = desc.String
		m.Location = location.String
		m.AttachmentID = attachment.String
		m.StartTime = m.StartTime.UTC()
		out = append(out, &domain.SubscriptionWithMeetup{Subscription: s, Meetup: m})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list subscriptions", err)
	}
	return out, nil
}
