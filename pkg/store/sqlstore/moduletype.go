package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/moduletype"
)

const moduleTypeColumns = "site_id, id, name, title, description, status, version"

type ModuleTypeRepository struct {
	s *Store
}

var _ moduletype.Repository = (*ModuleTypeRepository)(nil)

func (r *ModuleTypeRepository) GetByID(ctx context.Context, siteID, id uuid.UUID) (*moduletype.ModuleType, error) {
	row := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT "+moduleTypeColumns+" FROM module_types WHERE site_id = ? AND id = ?"),
		siteID.String(), id.String())
	m, err := scanModuleType(row)
	if err != nil {
		return nil, notFound(moduletype.AggregateType, id, err, "get module type")
	}
	return m, nil
}

func (r *ModuleTypeRepository) GetByName(ctx context.Context, siteID uuid.UUID, name string) (*moduletype.ModuleType, error) {
	row := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT "+moduleTypeColumns+" FROM module_types WHERE site_id = ? AND name = ? AND status <> ?"),
		siteID.String(), name, string(domain.StatusDeleted))
	m, err := scanModuleType(row)
	if err != nil {
		return nil, notFound(moduletype.AggregateType, uuid.Nil, err, "get module type by name")
	}
	return m, nil
}

func (r *ModuleTypeRepository) GetAll(ctx context.Context, siteID uuid.UUID) ([]*moduletype.ModuleType, error) {
	rows, err := r.s.conn(ctx).QueryContext(ctx, r.s.rebind(
		"SELECT "+moduleTypeColumns+" FROM module_types WHERE site_id = ? AND status <> ? ORDER BY name"),
		siteID.String(), string(domain.StatusDeleted))
	if err != nil {
		return nil, mapError("list module types", err)
	}
	defer rows.Close()

	var out []*moduletype.ModuleType
	for rows.Next() {
		m, err := scanModuleType(rows)
		if err != nil {
			return nil, mapError("list module types", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list module types", err)
	}
	return out, nil
}

func (r *ModuleTypeRepository) Create(ctx context.Context, m *moduletype.ModuleType) error {
	st := m.Snapshot()
	if st.Version != 0 {
		return &domain.ConcurrencyConflictError{AggregateType: moduletype.AggregateType, ID: st.ID, Expected: st.Version}
	}
	_, err := r.s.conn(ctx).ExecContext(ctx, r.s.rebind(
		"INSERT INTO module_types ("+moduleTypeColumns+", updated_at) VALUES (?, ?, ?, ?, ?, ?, 1, ?)"),
		st.SiteID.String(), st.ID.String(), st.Name, st.Title, st.Description, string(st.Status), nowMillis())
	if err != nil {
		return mapError("create module type", err)
	}
	m.MarkPersisted(1)
	return nil
}

func (r *ModuleTypeRepository) Update(ctx context.Context, m *moduletype.ModuleType) error {
	st := m.Snapshot()
	return r.s.updateVersioned(ctx, moduletype.AggregateType, "module_types", st.SiteID, m,
		`UPDATE module_types
		SET name = ?, title = ?, description = ?, status = ?, version = version + 1, updated_at = ?
		WHERE site_id = ? AND id = ? AND version = ?`,
		st.Name, st.Title, st.Description, string(st.Status), nowMillis(),
		st.SiteID.String(), st.ID.String(), st.Version)
}

func scanModuleType(row scanner) (*moduletype.ModuleType, error) {
	var st moduletype.State
	var status string
	if err := row.Scan(&st.SiteID, &st.ID, &st.Name, &st.Title, &st.Description, &status, &st.Version); err != nil {
		return nil, err
	}
	st.Status = domain.Status(status)
	return moduletype.Restore(st), nil
}
