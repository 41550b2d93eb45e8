package users

import (
	"context"
)

// Repository stores accounts. Usernames are unique; Create returns
// common.ErrorAlreadyExists for a taken one and fills in the ID.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	// GetUserByLogin returns common.ErrorNotFound for an unknown username.
	GetUserByLogin(ctx context.Context, login string) (*User, error)
}
