// Package user implements the User aggregate. Users are global: they are not
// scoped to a site and their root carries uuid.Nil as site id.
package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/password"
)

const AggregateType = "User"

const (
	Created         = "Created"
	EmailChanged    = "EmailChanged"
	PasswordChanged = "PasswordChanged"
	Deleted         = "Deleted"
)

var ErrNoPassword = errors.New("user has no password")

type User struct {
	domain.Root

	email        string
	userName     string
	passwordHash string
	status       domain.Status
}

type State struct {
	ID           uuid.UUID
	Email        string
	UserName     string
	PasswordHash string
	Status       domain.Status
	Version      int64
}

func (u *User) Email() string         { return u.email }
func (u *User) UserName() string      { return u.userName }
func (u *User) Status() domain.Status { return u.status }
func (u *User) HasPassword() bool     { return u.passwordHash != "" }

// VerifyPassword compares plain against the stored hash.
func (u *User) VerifyPassword(plain string) error {
	if u.passwordHash == "" {
		return ErrNoPassword
	}
	return password.Compare(u.passwordHash, plain)
}

func (u *User) Snapshot() State {
	return State{
		ID:           u.ID(),
		Email:        u.email,
		UserName:     u.userName,
		PasswordHash: u.passwordHash,
		Status:       u.status,
		Version:      u.Version(),
	}
}

func Restore(s State) *User {
	return &User{
		Root:         domain.RestoreRoot(AggregateType, uuid.Nil, s.ID, s.Version),
		email:        s.Email,
		userName:     s.UserName,
		passwordHash: s.PasswordHash,
		status:       s.Status,
	}
}

// NormalizeEmail is the form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create validates cmd and returns a new active user. When cmd carries a
// password it is hashed with hash; the plaintext never reaches the events.
func Create(ctx context.Context, cmd CreateUser, v domain.Validator[CreateUser], hash password.Hasher) (*User, error) {
	if err := domain.Check(ctx, v, cmd); err != nil {
		return nil, err
	}

	u := &User{
		Root:     domain.NewRoot(AggregateType, uuid.Nil, cmd.ID),
		email:    NormalizeEmail(cmd.Email),
		userName: cmd.UserName,
		status:   domain.StatusActive,
	}
	if cmd.Password != "" {
		h, err := hash(cmd.Password)
		if err != nil {
			return nil, domain.NewPersistenceError("hash password", err)
		}
		u.passwordHash = h
	}
	u.Record(Created, map[string]any{
		"email":       u.email,
		"userName":    u.userName,
		"hasPassword": u.HasPassword(),
	})
	return u, nil
}

func (u *User) ChangeEmail(ctx context.Context, cmd ChangeUserEmail, v domain.Validator[ChangeUserEmail]) error {
	if err := u.guard(domain.Check(ctx, v, cmd), cmd.ID); err != nil {
		return err
	}
	u.email = NormalizeEmail(cmd.Email)
	u.Record(EmailChanged, map[string]any{"email": u.email})
	return nil
}

func (u *User) SetPassword(ctx context.Context, cmd SetUserPassword, v domain.Validator[SetUserPassword], hash password.Hasher) error {
	if err := u.guard(domain.Check(ctx, v, cmd), cmd.ID); err != nil {
		return err
	}
	h, err := hash(cmd.Password)
	if err != nil {
		return domain.NewPersistenceError("hash password", err)
	}
	u.passwordHash = h
	u.Record(PasswordChanged, nil)
	return nil
}

func (u *User) Delete(ctx context.Context, cmd DeleteUser, v domain.Validator[DeleteUser]) error {
	if err := u.guard(domain.Check(ctx, v, cmd), cmd.ID); err != nil {
		return err
	}
	u.status = domain.StatusDeleted
	u.Record(Deleted, map[string]any{"status": string(u.status)})
	return nil
}

func (u *User) guard(validation error, id uuid.UUID) error {
	if validation != nil {
		return validation
	}
	if err := domain.RequireTarget(&u.Root, uuid.Nil, id); err != nil {
		return err
	}
	return domain.RequireNotDeleted(u.status, AggregateType)
}
