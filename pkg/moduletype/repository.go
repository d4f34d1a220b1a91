package moduletype

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores module types. GetByName ignores deleted module types.
type Repository interface {
	GetByID(ctx context.Context, siteID, id uuid.UUID) (*ModuleType, error)
	GetByName(ctx context.Context, siteID uuid.UUID, name string) (*ModuleType, error)
	// GetAll returns the site's non-deleted module types ordered by name.
	GetAll(ctx context.Context, siteID uuid.UUID) ([]*ModuleType, error)
	Create(ctx context.Context, m *ModuleType) error
	Update(ctx context.Context, m *ModuleType) error
}

// UsageCounter reports how many non-deleted modules use a module type.
// The module repository satisfies it.
type UsageCounter interface {
	GetCountByModuleTypeID(ctx context.Context, siteID, moduleTypeID uuid.UUID) (int, error)
}
