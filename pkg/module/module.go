// Package module implements the Module aggregate: a titled content block of
// a given module type placed on a site.
package module

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
)

const AggregateType = "Module"

const (
	Created      = "Created"
	TitleUpdated = "TitleUpdated"
	Deleted      = "Deleted"
)

type Module struct {
	domain.Root

	moduleTypeID uuid.UUID
	title        string
	status       domain.Status
}

type State struct {
	SiteID       uuid.UUID
	ID           uuid.UUID
	ModuleTypeID uuid.UUID
	Title        string
	Status       domain.Status
	Version      int64
}

func (m *Module) ModuleTypeID() uuid.UUID { return m.moduleTypeID }
func (m *Module) Title() string           { return m.title }
func (m *Module) Status() domain.Status   { return m.status }

func (m *Module) Snapshot() State {
	return State{
		SiteID:       m.SiteID(),
		ID:           m.ID(),
		ModuleTypeID: m.moduleTypeID,
		Title:        m.title,
		Status:       m.status,
		Version:      m.Version(),
	}
}

func Restore(s State) *Module {
	return &Module{
		Root:         domain.RestoreRoot(AggregateType, s.SiteID, s.ID, s.Version),
		moduleTypeID: s.ModuleTypeID,
		title:        s.Title,
		status:       s.Status,
	}
}

func Create(ctx context.Context, cmd CreateModule, v domain.Validator[CreateModule]) (*Module, error) {
	if err := domain.Check(ctx, v, cmd); err != nil {
		return nil, err
	}
	m := &Module{
		Root:         domain.NewRoot(AggregateType, cmd.SiteID, cmd.ID),
		moduleTypeID: cmd.ModuleTypeID,
		title:        cmd.Title,
		status:       domain.StatusActive,
	}
	m.Record(Created, map[string]any{
		"moduleTypeId": m.moduleTypeID.String(),
		"title":        m.title,
	})
	return m, nil
}

func (m *Module) UpdateTitle(ctx context.Context, cmd UpdateModuleTitle, v domain.Validator[UpdateModuleTitle]) error {
	if err := domain.Check(ctx, v, cmd); err != nil {
		return err
	}
	if err := m.require(cmd.SiteID, cmd.ID); err != nil {
		return err
	}
	m.title = cmd.Title
	m.Record(TitleUpdated, map[string]any{"title": m.title})
	return nil
}

func (m *Module) Delete(ctx context.Context, cmd DeleteModule, v domain.Validator[DeleteModule]) error {
	if err := domain.Check(ctx, v, cmd); err != nil {
		return err
	}
	if err := m.require(cmd.SiteID, cmd.ID); err != nil {
		return err
	}
	m.status = domain.StatusDeleted
	m.Record(Deleted, map[string]any{"status": string(m.status)})
	return nil
}

func (m *Module) require(siteID, id uuid.UUID) error {
	if err := domain.RequireTarget(&m.Root, siteID, id); err != nil {
		return err
	}
	return domain.RequireNotDeleted(m.status, AggregateType)
}
