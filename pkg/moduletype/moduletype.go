// Package moduletype implements the ModuleType aggregate: the kinds of
// content modules (text, gallery, form...) available to a site.
package moduletype

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
)

const AggregateType = "ModuleType"

const (
	Created        = "Created"
	DetailsUpdated = "DetailsUpdated"
	Deleted        = "Deleted"
)

type ModuleType struct {
	domain.Root

	name        string
	title       string
	description string
	status      domain.Status
}

type State struct {
	SiteID      uuid.UUID
	ID          uuid.UUID
	Name        string
	Title       string
	Description string
	Status      domain.Status
	Version     int64
}

func (m *ModuleType) Name() string          { return m.name }
func (m *ModuleType) Title() string         { return m.title }
func (m *ModuleType) Description() string   { return m.description }
func (m *ModuleType) Status() domain.Status { return m.status }

func (m *ModuleType) Snapshot() State {
	return State{
		SiteID:      m.SiteID(),
		ID:          m.ID(),
		Name:        m.name,
		Title:       m.title,
		Description: m.description,
		Status:      m.status,
		Version:     m.Version(),
	}
}

func Restore(s State) *ModuleType {
	return &ModuleType{
		Root:        domain.RestoreRoot(AggregateType, s.SiteID, s.ID, s.Version),
		name:        s.Name,
		title:       s.Title,
		description: s.Description,
		status:      s.Status,
	}
}

func Create(ctx context.Context, cmd CreateModuleType, v domain.Validator[CreateModuleType]) (*ModuleType, error) {
	if err := domain.Check(ctx, v, cmd); err != nil {
		return nil, err
	}
	m := &ModuleType{
		Root:        domain.NewRoot(AggregateType, cmd.SiteID, cmd.ID),
		name:        cmd.Name,
		title:       cmd.Title,
		description: cmd.Description,
		status:      domain.StatusActive,
	}
	m.Record(Created, map[string]any{
		"name":        m.name,
		"title":       m.title,
		"description": m.description,
	})
	return m, nil
}

// UpdateDetails changes title and description. The name is immutable.
func (m *ModuleType) UpdateDetails(ctx context.Context, cmd UpdateModuleTypeDetails, v domain.Validator[UpdateModuleTypeDetails]) error {
	if err := m.guard(domain.Check(ctx, v, cmd), cmd.SiteID, cmd.ID); err != nil {
		return err
	}
	m.title = cmd.Title
	m.description = cmd.Description
	m.Record(DetailsUpdated, map[string]any{
		"title":       m.title,
		"description": m.description,
	})
	return nil
}

// Delete soft-deletes the module type. The validator is expected to refuse
// while modules still reference it.
func (m *ModuleType) Delete(ctx context.Context, cmd DeleteModuleType, v domain.Validator[DeleteModuleType]) error {
	if err := m.guard(domain.Check(ctx, v, cmd), cmd.SiteID, cmd.ID); err != nil {
		return err
	}
	m.status = domain.StatusDeleted
	m.Record(Deleted, map[string]any{"status": string(m.status)})
	return nil
}

func (m *ModuleType) guard(validation error, siteID, id uuid.UUID) error {
	if validation != nil {
		return validation
	}
	if err := domain.RequireTarget(&m.Root, siteID, id); err != nil {
		return err
	}
	return domain.RequireNotDeleted(m.status, AggregateType)
}
