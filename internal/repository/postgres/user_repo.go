package postgres

import (
	"context"
	"database/sql"
	"errors"

	"meetapp/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

// NewUserRepository returns a read-only UserDirectory over the users table.
func NewUserRepository(db *sql.DB) domain.UserDirectory {
	return &userRepository{DB: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, name, email
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	var name sql.NullString
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, id).Scan(&u.ID, &name, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("get user", err)
	}
	u.Name = name.String
	return u, nil
}
