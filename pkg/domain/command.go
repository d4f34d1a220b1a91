package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMissingValidator is returned when a behavior is invoked without a validator.
var ErrMissingValidator = errors.New("validator is required")

// Command represents an intention to change the system state.
type Command interface {
	// CommandType returns the routing name of the command, e.g. "language.hide".
	CommandType() string
}

// SiteCommand is a command scoped to a single site (tenant).
type SiteCommand interface {
	Command
	Site() uuid.UUID
}

// Validator checks a command against the rules for its type. Implementations
// may consult repositories (uniqueness checks); a lookup failure is returned
// as err and is distinct from rule violations.
type Validator[C any] interface {
	Validate(ctx context.Context, cmd C) (Failures, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc[C any] func(ctx context.Context, cmd C) (Failures, error)

func (f ValidatorFunc[C]) Validate(ctx context.Context, cmd C) (Failures, error) {
	return f(ctx, cmd)
}

// Handler processes a single command type and returns the events it produced.
type Handler[C any] interface {
	Handle(ctx context.Context, cmd C) ([]Event, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[C any] func(ctx context.Context, cmd C) ([]Event, error)

func (f HandlerFunc[C]) Handle(ctx context.Context, cmd C) ([]Event, error) {
	return f(ctx, cmd)
}

// Check runs v against cmd. Rule violations become *ValidationFailed and
// lookup failures become *PersistenceError.
func Check[C any](ctx context.Context, v Validator[C], cmd C) error {
	if v == nil {
		return fmt.Errorf("%T: %w", cmd, ErrMissingValidator)
	}
	failures, err := v.Validate(ctx, cmd)
	if err != nil {
		return NewPersistenceError("validate", err)
	}
	return failures.Err()
}

// RequireTarget reports a failure when a command addressed to (siteID, id)
// is applied to an aggregate with a different identity.
func RequireTarget(r *Root, siteID, id uuid.UUID) error {
	var fs Failures
	if r.SiteID() != siteID {
		fs.Add("SiteId", "Command does not belong to the aggregate's site.")
	}
	if r.ID() != id {
		fs.Add("Id", "Command does not target this aggregate.")
	}
	return fs.Err()
}

// RequireNotDeleted reports a failure when status is Deleted.
func RequireNotDeleted(status Status, aggregateType string) error {
	if status == StatusDeleted {
		return Failures{{Field: "Status", Message: aggregateType + " is deleted."}}.Err()
	}
	return nil
}
