package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores users. GetByEmail and GetByUserName ignore deleted users
// and expect the email in NormalizeEmail form.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUserName(ctx context.Context, userName string) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}
