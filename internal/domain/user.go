package domain

import (
	"context"
	"fmt"
)

// User is the display identity of a user, owned by the identity collaborator.
// swagger:model User
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Address formats the user as a mail recipient, e.g. "Ada <ada@example.com>".
func (u *User) Address() string {
	if u.Name == "" {
		return u.Email
	}
	return fmt.Sprintf("%s <%s>", u.Name, u.Email)
}

// UserDirectory resolves user display identities.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}
