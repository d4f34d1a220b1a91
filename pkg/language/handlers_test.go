package language_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/language"
	"github.com/plaenen/cmscore/pkg/store/memory"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetByID(ctx context.Context, siteID, id uuid.UUID) (*language.Language, error) {
	args := m.Called(ctx, siteID, id)
	l, _ := args.Get(0).(*language.Language)
	return l, args.Error(1)
}

func (m *mockRepository) GetByName(ctx context.Context, siteID uuid.UUID, name string) (*language.Language, error) {
	args := m.Called(ctx, siteID, name)
	l, _ := args.Get(0).(*language.Language)
	return l, args.Error(1)
}

func (m *mockRepository) GetByCultureName(ctx context.Context, siteID uuid.UUID, cultureName string) (*language.Language, error) {
	args := m.Called(ctx, siteID, cultureName)
	l, _ := args.Get(0).(*language.Language)
	return l, args.Error(1)
}

func (m *mockRepository) GetByURL(ctx context.Context, siteID uuid.UUID, url string) (*language.Language, error) {
	args := m.Called(ctx, siteID, url)
	l, _ := args.Get(0).(*language.Language)
	return l, args.Error(1)
}

func (m *mockRepository) GetAll(ctx context.Context, siteID uuid.UUID) ([]*language.Language, error) {
	args := m.Called(ctx, siteID)
	ls, _ := args.Get(0).([]*language.Language)
	return ls, args.Error(1)
}

func (m *mockRepository) GetCount(ctx context.Context, siteID uuid.UUID) (int, error) {
	args := m.Called(ctx, siteID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, l *language.Language) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockRepository) Update(ctx context.Context, l *language.Language) error {
	return m.Called(ctx, l).Error(0)
}

type mockValidator[C any] struct {
	mock.Mock
}

func (m *mockValidator[C]) Validate(ctx context.Context, cmd C) (domain.Failures, error) {
	args := m.Called(ctx, cmd)
	fs, _ := args.Get(0).(domain.Failures)
	return fs, args.Error(1)
}

func TestHideHandlerLanguageNotFound(t *testing.T) {
	ctx := context.Background()
	site, id := uuid.New(), uuid.New()

	repo := new(mockRepository)
	repo.On("GetByID", ctx, site, id).Return(nil, &domain.NotFoundError{AggregateType: language.AggregateType, ID: id})
	validator := new(mockValidator[language.HideLanguage])

	events, err := language.NewHideHandler(repo, validator).Handle(ctx, language.HideLanguage{SiteID: site, ID: id})

	assert.Nil(t, events)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, id, nf.ID)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	validator.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}

func TestHideHandlerHidesActiveLanguage(t *testing.T) {
	ctx := context.Background()
	site, id := uuid.New(), uuid.New()
	stored := language.Restore(language.State{SiteID: site, ID: id, Name: "English", CultureName: "en", URL: "en", SortOrder: 1, Status: domain.StatusActive, Version: 1})
	cmd := language.HideLanguage{SiteID: site, ID: id}

	repo := new(mockRepository)
	repo.On("GetByID", ctx, site, id).Return(stored, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(l *language.Language) bool {
		return l.Status() == domain.StatusHidden
	})).Return(nil).Once()

	validator := new(mockValidator[language.HideLanguage])
	validator.On("Validate", ctx, cmd).Return(domain.Failures(nil), nil).Once()

	events, err := language.NewHideHandler(repo, validator).Handle(ctx, cmd)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, language.Hidden, events[0].Kind)

	repo.AssertExpectations(t)
	validator.AssertExpectations(t)
}

func TestHideHandlerValidationFailureSkipsUpdate(t *testing.T) {
	ctx := context.Background()
	site, id := uuid.New(), uuid.New()
	stored := language.Restore(language.State{SiteID: site, ID: id, Status: domain.StatusActive, Version: 1})

	repo := new(mockRepository)
	repo.On("GetByID", ctx, site, id).Return(stored, nil)
	validator := new(mockValidator[language.HideLanguage])
	validator.On("Validate", ctx, mock.Anything).Return(domain.Failures{{Field: "Id", Message: "Id Error"}}, nil)

	_, err := language.NewHideHandler(repo, validator).Handle(ctx, language.HideLanguage{SiteID: site, ID: id})

	assert.ErrorIs(t, err, domain.ErrValidationFailed)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Equal(t, domain.StatusActive, stored.Status())
}

func TestHandlersWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewLanguageRepository()
	h := language.NewHandlers(repo)
	site := uuid.New()

	en, fr := uuid.New(), uuid.New()
	_, err := h.Create.Handle(ctx, language.CreateLanguage{SiteID: site, ID: en, Name: "English", CultureName: "en-GB", URL: "en"})
	require.NoError(t, err)
	events, err := h.Create.Handle(ctx, language.CreateLanguage{SiteID: site, ID: fr, Name: "French", CultureName: "fr-FR", URL: "fr"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Data["sortOrder"])

	t.Run("duplicate values rejected", func(t *testing.T) {
		_, err := h.Create.Handle(ctx, language.CreateLanguage{SiteID: site, ID: uuid.New(), Name: "English", CultureName: "en-GB", URL: "en"})
		var vf *domain.ValidationFailed
		require.ErrorAs(t, err, &vf)
		assert.True(t, vf.Has("Name"))
		assert.True(t, vf.Has("CultureName"))
		assert.True(t, vf.Has("Url"))
	})

	t.Run("same values allowed in another site", func(t *testing.T) {
		_, err := h.Create.Handle(ctx, language.CreateLanguage{SiteID: uuid.New(), ID: uuid.New(), Name: "English", CultureName: "en-GB", URL: "en"})
		assert.NoError(t, err)
	})

	t.Run("update keeps own values", func(t *testing.T) {
		events, err := h.UpdateDetails.Handle(ctx, language.UpdateLanguageDetails{SiteID: site, ID: en, Name: "English", CultureName: "en-GB", URL: "english"})
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("reorder", func(t *testing.T) {
		events, err := h.Reorder.Handle(ctx, language.ReorderLanguages{SiteID: site, Order: []uuid.UUID{fr, en}})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, fr, events[0].AggregateID)
		assert.Equal(t, language.Reordered, events[1].Kind)

		all, err := repo.GetAll(ctx, site)
		require.NoError(t, err)
		assert.Equal(t, fr, all[0].ID())
		assert.Equal(t, en, all[1].ID())

		events, err = h.Reorder.Handle(ctx, language.ReorderLanguages{SiteID: site, Order: []uuid.UUID{fr, en}})
		require.NoError(t, err)
		assert.Empty(t, events, "unchanged positions record nothing")
	})

	t.Run("reorder must list every language once", func(t *testing.T) {
		_, err := h.Reorder.Handle(ctx, language.ReorderLanguages{SiteID: site, Order: []uuid.UUID{fr, fr, uuid.New()}})
		var vf *domain.ValidationFailed
		require.ErrorAs(t, err, &vf)
		assert.Len(t, vf.Failures, 3)
	})

	t.Run("hide then delete", func(t *testing.T) {
		events, err := h.Hide.Handle(ctx, language.HideLanguage{SiteID: site, ID: fr})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(3), events[0].Version)

		_, err = h.Delete.Handle(ctx, language.DeleteLanguage{SiteID: site, ID: fr})
		require.NoError(t, err)

		all, err := repo.GetAll(ctx, site)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		deleted, err := repo.GetByID(ctx, site, fr)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDeleted, deleted.Status())

		_, err = h.Activate.Handle(ctx, language.ActivateLanguage{SiteID: site, ID: fr})
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
	})

	t.Run("missing language", func(t *testing.T) {
		_, err := h.Hide.Handle(ctx, language.HideLanguage{SiteID: site, ID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCreateValidator(t *testing.T) {
	ctx := context.Background()
	v := language.NewCreateValidator(memory.NewLanguageRepository())

	fs, err := v.Validate(ctx, language.CreateLanguage{})
	require.NoError(t, err)

	fields := make([]string, len(fs))
	for i, f := range fs {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"SiteId", "Id", "Name", "CultureName", "Url"}, fields)
}

func TestCreateAfterDeleteTakesNextFreePosition(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewLanguageRepository()
	h := language.NewHandlers(repo)
	site := uuid.New()

	en, fr, de, it := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	for _, c := range []language.CreateLanguage{
		{SiteID: site, ID: en, Name: "English", CultureName: "en-GB", URL: "en"},
		{SiteID: site, ID: fr, Name: "French", CultureName: "fr-FR", URL: "fr"},
		{SiteID: site, ID: de, Name: "German", CultureName: "de-DE", URL: "de"},
	} {
		_, err := h.Create.Handle(ctx, c)
		require.NoError(t, err)
	}
	_, err := h.Delete.Handle(ctx, language.DeleteLanguage{SiteID: site, ID: en})
	require.NoError(t, err)

	events, err := h.Create.Handle(ctx, language.CreateLanguage{SiteID: site, ID: it, Name: "Italian", CultureName: "it-IT", URL: "it"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 4, events[0].Data["sortOrder"])

	all, err := repo.GetAll(ctx, site)
	require.NoError(t, err)
	orders := make(map[uuid.UUID]int, len(all))
	for _, l := range all {
		orders[l.ID()] = l.SortOrder()
	}
	assert.Equal(t, map[uuid.UUID]int{fr: 2, de: 3, it: 4}, orders)
}

func TestCultureNamesAreCanonical(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewLanguageRepository()
	h := language.NewHandlers(repo)
	site, en := uuid.New(), uuid.New()

	_, err := h.Create.Handle(ctx, language.CreateLanguage{SiteID: site, ID: en, Name: "English", CultureName: "en-gb", URL: "en"})
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, site, en)
	require.NoError(t, err)
	assert.Equal(t, "en-GB", stored.CultureName())

	fs, err := language.NewCreateValidator(repo).Validate(ctx, language.CreateLanguage{
		SiteID: site, ID: uuid.New(), Name: "British", CultureName: "EN-gb", URL: "gb",
	})
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, "CultureName", fs[0].Field)
}
