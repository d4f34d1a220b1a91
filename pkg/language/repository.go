package language

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores languages. Lookups that find nothing return a
// *domain.NotFoundError. Lookups by name, culture or URL ignore deleted
// languages; GetByID does not.
type Repository interface {
	GetByID(ctx context.Context, siteID, id uuid.UUID) (*Language, error)
	GetByName(ctx context.Context, siteID uuid.UUID, name string) (*Language, error)
	GetByCultureName(ctx context.Context, siteID uuid.UUID, cultureName string) (*Language, error)
	GetByURL(ctx context.Context, siteID uuid.UUID, url string) (*Language, error)

	// GetAll returns the site's non-deleted languages ordered by sort order.
	GetAll(ctx context.Context, siteID uuid.UUID) ([]*Language, error)

	// GetCount counts the site's non-deleted languages.
	GetCount(ctx context.Context, siteID uuid.UUID) (int, error)

	Create(ctx context.Context, l *Language) error
	Update(ctx context.Context, l *Language) error
}
