// Package multitenancy carries the current site through a context and keeps
// commands from crossing site boundaries.
package multitenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNoSite is returned when a site-scoped command runs without a site in context.
	ErrNoSite = errors.New("site id not found in context")

	// ErrSiteMismatch is returned when a command or event belongs to another site.
	ErrSiteMismatch = errors.New("site mismatch")
)

type siteKey struct{}

// WithSiteID adds a site id to the context.
func WithSiteID(ctx context.Context, siteID uuid.UUID) context.Context {
	return context.WithValue(ctx, siteKey{}, siteID)
}

// SiteID retrieves the site id from the context.
func SiteID(ctx context.Context) (uuid.UUID, error) {
	siteID, ok := ctx.Value(siteKey{}).(uuid.UUID)
	if !ok || siteID == uuid.Nil {
		return uuid.Nil, ErrNoSite
	}
	return siteID, nil
}

// MustSiteID retrieves the site id from the context or panics.
func MustSiteID(ctx context.Context) uuid.UUID {
	siteID, err := SiteID(ctx)
	if err != nil {
		panic(err)
	}
	return siteID
}

func HasSiteID(ctx context.Context) bool {
	_, err := SiteID(ctx)
	return err == nil
}
