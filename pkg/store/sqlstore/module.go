package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/module"
)

const moduleColumns = "site_id, id, module_type_id, title, status, version"

type ModuleRepository struct {
	s *Store
}

var _ module.Repository = (*ModuleRepository)(nil)

func (r *ModuleRepository) GetByID(ctx context.Context, siteID, id uuid.UUID) (*module.Module, error) {
	row := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT "+moduleColumns+" FROM modules WHERE site_id = ? AND id = ?"),
		siteID.String(), id.String())
	m, err := scanModule(row)
	if err != nil {
		return nil, notFound(module.AggregateType, id, err, "get module")
	}
	return m, nil
}

func (r *ModuleRepository) GetAll(ctx context.Context, siteID uuid.UUID) ([]*module.Module, error) {
	rows, err := r.s.conn(ctx).QueryContext(ctx, r.s.rebind(
		"SELECT "+moduleColumns+" FROM modules WHERE site_id = ? AND status <> ? ORDER BY created_seq, id"),
		siteID.String(), string(domain.StatusDeleted))
	if err != nil {
		return nil, mapError("list modules", err)
	}
	defer rows.Close()

	var out []*module.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, mapError("list modules", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list modules", err)
	}
	return out, nil
}

func (r *ModuleRepository) GetCountByModuleTypeID(ctx context.Context, siteID, moduleTypeID uuid.UUID) (int, error) {
	return r.count(ctx, "module_type_id", siteID, moduleTypeID)
}

func (r *ModuleRepository) GetCountByModuleID(ctx context.Context, siteID, id uuid.UUID) (int, error) {
	return r.count(ctx, "id", siteID, id)
}

func (r *ModuleRepository) count(ctx context.Context, column string, siteID, value uuid.UUID) (int, error) {
	var n int
	err := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT COUNT(*) FROM modules WHERE site_id = ? AND "+column+" = ? AND status <> ?"),
		siteID.String(), value.String(), string(domain.StatusDeleted)).Scan(&n)
	if err != nil {
		return 0, mapError("count modules", err)
	}
	return n, nil
}

func (r *ModuleRepository) Create(ctx context.Context, m *module.Module) error {
	st := m.Snapshot()
	if st.Version != 0 {
		return &domain.ConcurrencyConflictError{AggregateType: module.AggregateType, ID: st.ID, Expected: st.Version}
	}
	_, err := r.s.conn(ctx).ExecContext(ctx, r.s.rebind(
		"INSERT INTO modules ("+moduleColumns+", created_seq, updated_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)"),
		st.SiteID.String(), st.ID.String(), st.ModuleTypeID.String(), st.Title, string(st.Status), seq(), nowMillis())
	if err != nil {
		return mapError("create module", err)
	}
	m.MarkPersisted(1)
	return nil
}

func (r *ModuleRepository) Update(ctx context.Context, m *module.Module) error {
	st := m.Snapshot()
	return r.s.updateVersioned(ctx, module.AggregateType, "modules", st.SiteID, m,
		`UPDATE modules
		SET module_type_id = ?, title = ?, status = ?, version = version + 1, updated_at = ?
		WHERE site_id = ? AND id = ? AND version = ?`,
		st.ModuleTypeID.String(), st.Title, string(st.Status), nowMillis(),
		st.SiteID.String(), st.ID.String(), st.Version)
}

func scanModule(row scanner) (*module.Module, error) {
	var st module.State
	var status string
	if err := row.Scan(&st.SiteID, &st.ID, &st.ModuleTypeID, &st.Title, &status, &st.Version); err != nil {
		return nil, err
	}
	st.Status = domain.Status(status)
	return module.Restore(st), nil
}
