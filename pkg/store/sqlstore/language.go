package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/language"
)

const languageColumns = "site_id, id, name, culture_name, url, sort_order, status, version"

type LanguageRepository struct {
	s *Store
}

var _ language.Repository = (*LanguageRepository)(nil)

func (r *LanguageRepository) GetByID(ctx context.Context, siteID, id uuid.UUID) (*language.Language, error) {
	row := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT "+languageColumns+" FROM languages WHERE site_id = ? AND id = ?"),
		siteID.String(), id.String())
	l, err := scanLanguage(row)
	if err != nil {
		return nil, notFound(language.AggregateType, id, err, "get language")
	}
	return l, nil
}

func (r *LanguageRepository) GetByName(ctx context.Context, siteID uuid.UUID, name string) (*language.Language, error) {
	return r.getLive(ctx, siteID, "name", name)
}

func (r *LanguageRepository) GetByCultureName(ctx context.Context, siteID uuid.UUID, cultureName string) (*language.Language, error) {
	return r.getLive(ctx, siteID, "culture_name", cultureName)
}

func (r *LanguageRepository) GetByURL(ctx context.Context, siteID uuid.UUID, url string) (*language.Language, error) {
	return r.getLive(ctx, siteID, "url", url)
}

// getLive looks up a non-deleted language by a unique column. column is
// always one of the constants above.
func (r *LanguageRepository) getLive(ctx context.Context, siteID uuid.UUID, column, value string) (*language.Language, error) {
	row := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT "+languageColumns+" FROM languages WHERE site_id = ? AND "+column+" = ? AND status <> ?"),
		siteID.String(), value, string(domain.StatusDeleted))
	l, err := scanLanguage(row)
	if err != nil {
		return nil, notFound(language.AggregateType, uuid.Nil, err, "get language by "+column)
	}
	return l, nil
}

func (r *LanguageRepository) GetAll(ctx context.Context, siteID uuid.UUID) ([]*language.Language, error) {
	rows, err := r.s.conn(ctx).QueryContext(ctx, r.s.rebind(
		"SELECT "+languageColumns+" FROM languages WHERE site_id = ? AND status <> ? ORDER BY sort_order, name"),
		siteID.String(), string(domain.StatusDeleted))
	if err != nil {
		return nil, mapError("list languages", err)
	}
	defer rows.Close()

	var out []*language.Language
	for rows.Next() {
		l, err := scanLanguage(rows)
		if err != nil {
			return nil, mapError("list languages", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list languages", err)
	}
	return out, nil
}

func (r *LanguageRepository) GetCount(ctx context.Context, siteID uuid.UUID) (int, error) {
	var n int
	err := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT COUNT(*) FROM languages WHERE site_id = ? AND status <> ?"),
		siteID.String(), string(domain.StatusDeleted)).Scan(&n)
	if err != nil {
		return 0, mapError("count languages", err)
	}
	return n, nil
}

func (r *LanguageRepository) Create(ctx context.Context, l *language.Language) error {
	st := l.Snapshot()
	if st.Version != 0 {
		return &domain.ConcurrencyConflictError{AggregateType: language.AggregateType, ID: st.ID, Expected: st.Version}
	}
	_, err := r.s.conn(ctx).ExecContext(ctx, r.s.rebind(
		"INSERT INTO languages ("+languageColumns+", updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)"),
		st.SiteID.String(), st.ID.String(), st.Name, st.CultureName, st.URL, st.SortOrder, string(st.Status), nowMillis())
	if err != nil {
		return mapError("create language", err)
	}
	l.MarkPersisted(1)
	return nil
}

func (r *LanguageRepository) Update(ctx context.Context, l *language.Language) error {
	st := l.Snapshot()
	return r.s.updateVersioned(ctx, language.AggregateType, "languages", st.SiteID, l,
		`UPDATE languages
		SET name = ?, culture_name = ?, url = ?, sort_order = ?, status = ?, version = version + 1, updated_at = ?
		WHERE site_id = ? AND id = ? AND version = ?`,
		st.Name, st.CultureName, st.URL, st.SortOrder, string(st.Status), nowMillis(),
		st.SiteID.String(), st.ID.String(), st.Version)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLanguage(row scanner) (*language.Language, error) {
	var st language.State
	var status string
	if err := row.Scan(&st.SiteID, &st.ID, &st.Name, &st.CultureName, &st.URL, &st.SortOrder, &status, &st.Version); err != nil {
		return nil, err
	}
	st.Status = domain.Status(status)
	return language.Restore(st), nil
}
