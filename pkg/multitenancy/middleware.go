package multitenancy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/middleware"
)

// SiteIsolation ensures site isolation for site-scoped commands:
// the context must carry a site, the command must address that site and
// every emitted event must belong to it. Global commands pass untouched.
func SiteIsolation() commandbus.Middleware {
	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			sc, ok := cmd.(domain.SiteCommand)
			if !ok {
				return next.Handle(ctx, cmd)
			}

			siteID, err := SiteID(ctx)
			if err != nil {
				return nil, fmt.Errorf("site isolation: %w", err)
			}
			if sc.Site() != siteID {
				return nil, fmt.Errorf("site isolation: %w: command site %s, context site %s", ErrSiteMismatch, sc.Site(), siteID)
			}

			events, err := next.Handle(ctx, cmd)
			for _, e := range events {
				if e.SiteID != siteID {
					return nil, fmt.Errorf("site isolation: %w: event %s belongs to site %s", ErrSiteMismatch, e.Type(), e.SiteID)
				}
			}
			return events, err
		})
	}
}

// SiteExtraction puts the command's own site into the context when none is
// set yet. Put it before SiteIsolation for trusted callers such as the CLI.
func SiteExtraction() commandbus.Middleware {
	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			if sc, ok := cmd.(domain.SiteCommand); ok && !HasSiteID(ctx) {
				ctx = WithSiteID(ctx, sc.Site())
			}
			return next.Handle(ctx, cmd)
		})
	}
}

// SiteAuthorizer checks whether a principal may act on a site.
type SiteAuthorizer interface {
	Authorize(ctx context.Context, principalID string, siteID uuid.UUID) error
}

// SiteAuthorization asks authorizer before running site-scoped commands.
// The principal comes from middleware.WithPrincipal.
func SiteAuthorization(authorizer SiteAuthorizer) commandbus.Middleware {
	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			sc, ok := cmd.(domain.SiteCommand)
			if !ok {
				return next.Handle(ctx, cmd)
			}
			if err := authorizer.Authorize(ctx, middleware.Principal(ctx), sc.Site()); err != nil {
				return nil, fmt.Errorf("site authorization failed: %w", err)
			}
			return next.Handle(ctx, cmd)
		})
	}
}
