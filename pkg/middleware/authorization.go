package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/domain"
)

// ErrUnauthorized is returned when the principal may not run a command.
var ErrUnauthorized = errors.New("unauthorized")

type principalKey struct{}

// WithPrincipal stores the id of the acting user in ctx.
func WithPrincipal(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, principalKey{}, principalID)
}

// Principal returns the acting user id, or "" when none is set.
func Principal(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// Authorizer decides whether a principal may run a command.
type Authorizer interface {
	Authorize(ctx context.Context, principalID string, cmd domain.Command) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, principalID string, cmd domain.Command) error

func (f AuthorizerFunc) Authorize(ctx context.Context, principalID string, cmd domain.Command) error {
	return f(ctx, principalID, cmd)
}

// Authorization enforces authorizer for every command.
func Authorization(authorizer Authorizer) commandbus.Middleware {
	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			if err := authorizer.Authorize(ctx, Principal(ctx), cmd); err != nil {
				return nil, fmt.Errorf("authorization failed: %w", err)
			}
			return next.Handle(ctx, cmd)
		})
	}
}

// RoleBasedAuthorizer maps command types to the roles allowed to run them.
// Command types without an entry are open to everyone.
type RoleBasedAuthorizer struct {
	commandRoles   map[string][]string
	principalRoles func(ctx context.Context, principalID string) ([]string, error)
}

func NewRoleBasedAuthorizer(
	commandRoles map[string][]string,
	principalRoles func(ctx context.Context, principalID string) ([]string, error),
) *RoleBasedAuthorizer {
	return &RoleBasedAuthorizer{
		commandRoles:   commandRoles,
		principalRoles: principalRoles,
	}
}

func (a *RoleBasedAuthorizer) Authorize(ctx context.Context, principalID string, cmd domain.Command) error {
	commandType := cmd.CommandType()
	required := a.commandRoles[commandType]
	if len(required) == 0 {
		return nil
	}
	if principalID == "" {
		return fmt.Errorf("%w: %s requires an authenticated principal", ErrUnauthorized, commandType)
	}

	roles, err := a.principalRoles(ctx, principalID)
	if err != nil {
		return fmt.Errorf("failed to get principal roles: %w", err)
	}

	held := make(map[string]bool, len(roles))
	for _, role := range roles {
		held[role] = true
	}
	for _, role := range required {
		if held[role] {
			return nil
		}
	}

	return fmt.Errorf("%w: principal %s lacks required role for command %s (required: %v)", ErrUnauthorized, principalID, commandType, required)
}
