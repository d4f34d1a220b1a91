package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/module"
)

type ModuleRepository struct {
	t *table[module.State]
}

var _ module.Repository = (*ModuleRepository)(nil)

func NewModuleRepository() *ModuleRepository {
	return &ModuleRepository{t: newTable(module.AggregateType,
		func(s module.State) int64 { return s.Version },
		func(s *module.State, v int64) { s.Version = v },
		func(s module.State) uuid.UUID { return s.SiteID },
	)}
}

func (r *ModuleRepository) GetByID(_ context.Context, siteID, id uuid.UUID) (*module.Module, error) {
	s, err := r.t.get(siteID, id)
	if err != nil {
		return nil, err
	}
	return module.Restore(s), nil
}

func (r *ModuleRepository) GetAll(_ context.Context, siteID uuid.UUID) ([]*module.Module, error) {
	rows := r.t.list(siteID, liveModule)
	out := make([]*module.Module, len(rows))
	for i, s := range rows {
		out[i] = module.Restore(s)
	}
	return out, nil
}

func (r *ModuleRepository) GetCountByModuleTypeID(_ context.Context, siteID, moduleTypeID uuid.UUID) (int, error) {
	return r.t.count(siteID, func(s module.State) bool {
		return liveModule(s) && s.ModuleTypeID == moduleTypeID
	}), nil
}

func (r *ModuleRepository) GetCountByModuleID(_ context.Context, siteID, id uuid.UUID) (int, error) {
	return r.t.count(siteID, func(s module.State) bool {
		return liveModule(s) && s.ID == id
	}), nil
}

func (r *ModuleRepository) Create(_ context.Context, m *module.Module) error {
	v, err := r.t.insert(m.ID(), m.Snapshot(), m.Version())
	if err != nil {
		return err
	}
	m.MarkPersisted(v)
	return nil
}

func (r *ModuleRepository) Update(_ context.Context, m *module.Module) error {
	v, err := r.t.replace(m.ID(), m.Snapshot(), m.Version())
	if err != nil {
		return err
	}
	m.MarkPersisted(v)
	return nil
}

func liveModule(s module.State) bool { return s.Status != domain.StatusDeleted }
