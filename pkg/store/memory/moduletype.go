package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/moduletype"
)

type ModuleTypeRepository struct {
	t *table[moduletype.State]
}

var _ moduletype.Repository = (*ModuleTypeRepository)(nil)

func NewModuleTypeRepository() *ModuleTypeRepository {
	return &ModuleTypeRepository{t: newTable(moduletype.AggregateType,
		func(s moduletype.State) int64 { return s.Version },
		func(s *moduletype.State, v int64) { s.Version = v },
		func(s moduletype.State) uuid.UUID { return s.SiteID },
		uniqueIndex[moduletype.State]{"module_types.name", func(s moduletype.State) string {
			if s.Status == domain.StatusDeleted {
				return ""
			}
			return s.Name
		}},
	)}
}

func (r *ModuleTypeRepository) GetByID(_ context.Context, siteID, id uuid.UUID) (*moduletype.ModuleType, error) {
	s, err := r.t.get(siteID, id)
	if err != nil {
		return nil, err
	}
	return moduletype.Restore(s), nil
}

func (r *ModuleTypeRepository) GetByName(_ context.Context, siteID uuid.UUID, name string) (*moduletype.ModuleType, error) {
	s, ok := r.t.find(siteID, func(s moduletype.State) bool {
		return s.Status != domain.StatusDeleted && s.Name == name
	})
	if !ok {
		return nil, &domain.NotFoundError{AggregateType: moduletype.AggregateType}
	}
	return moduletype.Restore(s), nil
}

func (r *ModuleTypeRepository) GetAll(_ context.Context, siteID uuid.UUID) ([]*moduletype.ModuleType, error) {
	rows := r.t.list(siteID, func(s moduletype.State) bool { return s.Status != domain.StatusDeleted })
	out := make([]*moduletype.ModuleType, len(rows))
	for i, s := range rows {
		out[i] = moduletype.Restore(s)
	}
	sortStable(out, func(a, b *moduletype.ModuleType) bool { return a.Name() < b.Name() })
	return out, nil
}

func (r *ModuleTypeRepository) Create(_ context.Context, m *moduletype.ModuleType) error {
	v, err := r.t.insert(m.ID(), m.Snapshot(), m.Version())
	if err != nil {
		return err
	}
	m.MarkPersisted(v)
	return nil
}

func (r *ModuleTypeRepository) Update(_ context.Context, m *moduletype.ModuleType) error {
	v, err := r.t.replace(m.ID(), m.Snapshot(), m.Version())
	if err != nil {
		return err
	}
	m.MarkPersisted(v)
	return nil
}
