package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/language"
)

type LanguageRepository struct {
	t *table[language.State]
}

var _ language.Repository = (*LanguageRepository)(nil)

func NewLanguageRepository() *LanguageRepository {
	live := func(f func(language.State) string) func(language.State) string {
		return func(s language.State) string {
			if s.Status == domain.StatusDeleted {
				return ""
			}
			return f(s)
		}
	}
	return &LanguageRepository{t: newTable(language.AggregateType,
		func(s language.State) int64 { return s.Version },
		func(s *language.State, v int64) { s.Version = v },
		func(s language.State) uuid.UUID { return s.SiteID },
		uniqueIndex[language.State]{"languages.name", live(func(s language.State) string { return s.Name })},
		uniqueIndex[language.State]{"languages.culture_name", live(func(s language.State) string { return s.CultureName })},
		uniqueIndex[language.State]{"languages.url", live(func(s language.State) string { return s.URL })},
	)}
}

func (r *LanguageRepository) GetByID(_ context.Context, siteID, id uuid.UUID) (*language.Language, error) {
	s, err := r.t.get(siteID, id)
	if err != nil {
		return nil, err
	}
	return language.Restore(s), nil
}

func (r *LanguageRepository) GetByName(_ context.Context, siteID uuid.UUID, name string) (*language.Language, error) {
	return r.findLive(siteID, func(s language.State) bool { return s.Name == name })
}

func (r *LanguageRepository) GetByCultureName(_ context.Context, siteID uuid.UUID, cultureName string) (*language.Language, error) {
	return r.findLive(siteID, func(s language.State) bool { return s.CultureName == cultureName })
}

func (r *LanguageRepository) GetByURL(_ context.Context, siteID uuid.UUID, url string) (*language.Language, error) {
	return r.findLive(siteID, func(s language.State) bool { return s.URL == url })
}

func (r *LanguageRepository) GetAll(_ context.Context, siteID uuid.UUID) ([]*language.Language, error) {
	rows := r.t.list(siteID, notDeletedLanguage)
	out := make([]*language.Language, len(rows))
	for i, s := range rows {
		out[i] = language.Restore(s)
	}
	sortStable(out, func(a, b *language.Language) bool {
		if a.SortOrder() != b.SortOrder() {
			return a.SortOrder() < b.SortOrder()
		}
		return a.Name() < b.Name()
	})
	return out, nil
}

func (r *LanguageRepository) GetCount(_ context.Context, siteID uuid.UUID) (int, error) {
	return r.t.count(siteID, notDeletedLanguage), nil
}

func (r *LanguageRepository) Create(_ context.Context, l *language.Language) error {
	v, err := r.t.insert(l.ID(), l.Snapshot(), l.Version())
	if err != nil {
		return err
	}
	l.MarkPersisted(v)
	return nil
}

func (r *LanguageRepository) Update(_ context.Context, l *language.Language) error {
	v, err := r.t.replace(l.ID(), l.Snapshot(), l.Version())
	if err != nil {
		return err
	}
	l.MarkPersisted(v)
	return nil
}

func (r *LanguageRepository) findLive(siteID uuid.UUID, match func(language.State) bool) (*language.Language, error) {
	s, ok := r.t.find(siteID, func(s language.State) bool { return notDeletedLanguage(s) && match(s) })
	if !ok {
		return nil, &domain.NotFoundError{AggregateType: language.AggregateType}
	}
	return language.Restore(s), nil
}

func notDeletedLanguage(s language.State) bool { return s.Status != domain.StatusDeleted }
