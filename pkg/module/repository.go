package module

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores modules. Counts and GetAll skip deleted modules.
type Repository interface {
	GetByID(ctx context.Context, siteID, id uuid.UUID) (*Module, error)
	GetAll(ctx context.Context, siteID uuid.UUID) ([]*Module, error)
	GetCountByModuleTypeID(ctx context.Context, siteID, moduleTypeID uuid.UUID) (int, error)
	GetCountByModuleID(ctx context.Context, siteID, id uuid.UUID) (int, error)
	Create(ctx context.Context, m *Module) error
	Update(ctx context.Context, m *Module) error
}
