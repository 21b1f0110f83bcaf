package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetapp/internal/domain"
)

const meetupColumns = `id, organizer_id, title, description, location, start_time, attachment_id, created_at, updated_at`

type meetupRepository struct {
	DB *sql.DB
}

func NewMeetupRepository(db *sql.DB) domain.MeetupRepository {
	return &meetupRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeetup(row rowScanner, extra ...any) (*domain.Meetup, error) {
	m := &domain.Meetup{}
	var desc, location, attachment sql.NullString
	dest := []any{&m.ID, &m.OrganizerID, &m.Title, &desc, &location, &m.StartTime, &attachment, &m.CreatedAt, &m.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	m.Description = desc.String
	m.Location = location.String
	m.AttachmentID = attachment.String
	m.StartTime = m.StartTime.UTC()
	return m, nil
}

func (r *meetupRepository) Create(ctx context.Context, m *domain.Meetup) error {
	query := `
		INSERT INTO meetups (id, organizer_id, title, description, location, start_time, hour_slot, attachment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		m.ID, m.OrganizerID, m.Title, m.Description, m.Location,
		m.StartTime, m.HourSlot(), m.AttachmentID, m.CreatedAt, m.UpdatedAt,
	)
	return storeErr("insert meetup", err)
}

func (r *meetupRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Meetup, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *meetupRepository) GetByIDForShare(ctx context.Context, id string) (*domain.Meetup, error) {
	return r.get(ctx, id, "FOR SHARE")
}

func (r *meetupRepository) get(ctx context.Context, id, lock string) (*domain.Meetup, error) {
	query := `SELECT ` + meetupColumns + ` FROM meetups WHERE id = $1 ` + lock
	m, err := scanMeetup(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMeetupNotFound
		}
		return nil, storeErr("get meetup", err)
	}
	return m, nil
}

func (r *meetupRepository) Update(ctx context.Context, m *domain.Meetup) error {
	query := `
		UPDATE meetups
		SET title = $1, description = $2, location = $3, start_time = $4, hour_slot = $5, attachment_id = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		m.Title, m.Description, m.Location, m.StartTime, m.HourSlot(), m.AttachmentID, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return storeErr("update meetup", err)
	}
	return requireAffected(res, "update meetup")
}

// Delete removes the meetup; its subscriptions go with it through ON DELETE CASCADE.
func (r *meetupRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM meetups WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete meetup", err)
	}
	return requireAffected(res, "delete meetup")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return domain.ErrMeetupNotFound
	}
	return nil
}

func (r *meetupRepository) ExistsInSlot(ctx context.Context, organizerID string, slot time.Time, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM meetups
			WHERE organizer_id = $1 AND hour_slot = $2 AND id::text <> $3
		)
	`
	var exists bool
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query, organizerID, slot.UTC(), excludeID).Scan(&exists); err != nil {
		return false, storeErr("check organizer slot", err)
	}
	return exists, nil
}

func (r *meetupRepository) ListUpcoming(ctx context.Context, filter domain.MeetupFilter) ([]*domain.MeetupListing, int, error) {
	where := []string{"m.start_time > $1"}
	args := []any{filter.After}
	if start, end, ok := filter.DayBounds(); ok {
		where = append(where, "m.start_time >= $2 AND m.start_time < $3")
		args = append(args, start, end)
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM meetups m WHERE ` + cond
	if err := conn(ctx, r.DB).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count upcoming meetups", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT m.id, m.organizer_id, m.title, m.description, m.location, m.start_time, m.attachment_id, m.created_at, m.updated_at,
			u.name, u.email
		FROM meetups m
		LEFT JOIN users u ON u.id = m.organizer_id
		WHERE %s
		ORDER BY m.start_time ASC, m.id ASC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)+1, len(args)+2)
	args = append(args, filter.Pagination.PageSize, filter.Pagination.Offset())

	rows, err := conn(ctx, r.DB).QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, storeErr("list upcoming meetups", err)
	}
	defer rows.Close()

	items := make([]*domain.MeetupListing, 0)
	for rows.Next() {
		var name, email sql.NullString
		m, err := scanMeetup(rows, &name, &email)
		if err != nil {
			return nil, 0, storeErr("scan meetup", err)
		}
		listing := &domain.MeetupListing{Meetup: m}
		if name.Valid || email.Valid {
			listing.Organizer = &domain.User{ID: m.OrganizerID, Name: name.String, Email: email.String}
		}
		items = append(items, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("list upcoming meetups", err)
	}
	return items, total, nil
}

func (r *meetupRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Meetup, error) {
	query := `SELECT ` + meetupColumns + ` FROM meetups WHERE organizer_id = $1 ORDER BY start_time ASC, id ASC`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, storeErr("list organizer meetups", err)
	}
	defer rows.Close()

	meetups := make([]*domain.Meetup, 0)
	for rows.Next() {
		m, err := scanMeetup(rows)
		if err != nil {
			return nil, storeErr("scan meetup", err)
		}
		meetups = append(meetups, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list organizer meetups", err)
	}
	return meetups, nil
}
