// Package storetest holds the behaviour every repository implementation must
// show. Store packages run ContractSuite from their tests.
package storetest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/language"
	"github.com/plaenen/cmscore/pkg/module"
	"github.com/plaenen/cmscore/pkg/moduletype"
	"github.com/plaenen/cmscore/pkg/store"
	"github.com/plaenen/cmscore/pkg/user"
)

// ContractSuite exercises a Repositories implementation. New is called
// before each test and must return empty repositories.
type ContractSuite struct {
	suite.Suite

	New func() store.Repositories

	ctx   context.Context
	repos store.Repositories
	site  uuid.UUID
}

func (s *ContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.repos = s.New()
	s.site = uuid.New()
}

func (s *ContractSuite) newModule(moduleTypeID uuid.UUID, title string) *module.Module {
	allow := domain.ValidatorFunc[module.CreateModule](func(context.Context, module.CreateModule) (domain.Failures, error) {
		return nil, nil
	})
	m, err := module.Create(s.ctx, module.CreateModule{SiteID: s.site, ID: uuid.New(), ModuleTypeID: moduleTypeID, Title: title}, allow)
	s.Require().NoError(err)
	return m
}

func (s *ContractSuite) deleteModule(m *module.Module) {
	allow := domain.ValidatorFunc[module.DeleteModule](func(context.Context, module.DeleteModule) (domain.Failures, error) {
		return nil, nil
	})
	s.Require().NoError(m.Delete(s.ctx, module.DeleteModule{SiteID: m.SiteID(), ID: m.ID()}, allow))
	s.Require().NoError(s.repos.Modules.Update(s.ctx, m))
}

// seedModules stores two active modules of one type and a deleted module of
// another type.
func (s *ContractSuite) seedModules() (typeA, typeB uuid.UUID, active, deleted *module.Module) {
	typeA, typeB = uuid.New(), uuid.New()

	active = s.newModule(typeA, "Title 1")
	s.Require().NoError(s.repos.Modules.Create(s.ctx, active))
	second := s.newModule(typeB, "Title 2")
	s.Require().NoError(s.repos.Modules.Create(s.ctx, second))
	deleted = s.newModule(typeB, "Title 3")
	s.Require().NoError(s.repos.Modules.Create(s.ctx, deleted))
	s.deleteModule(deleted)
	return typeA, typeB, active, deleted
}

func (s *ContractSuite) TestModuleGetAllExcludesDeleted() {
	s.seedModules()

	all, err := s.repos.Modules.GetAll(s.ctx, s.site)
	s.Require().NoError(err)
	s.Len(all, 2)
	for _, m := range all {
		s.NotEqual(domain.StatusDeleted, m.Status())
	}
}

func (s *ContractSuite) TestModuleCounts() {
	typeA, typeB, active, deleted := s.seedModules()

	n, err := s.repos.Modules.GetCountByModuleTypeID(s.ctx, s.site, typeA)
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.repos.Modules.GetCountByModuleTypeID(s.ctx, s.site, typeB)
	s.Require().NoError(err)
	s.Equal(1, n, "deleted module must not be counted")

	n, err = s.repos.Modules.GetCountByModuleID(s.ctx, s.site, active.ID())
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.repos.Modules.GetCountByModuleID(s.ctx, s.site, deleted.ID())
	s.Require().NoError(err)
	s.Equal(0, n)

	n, err = s.repos.Modules.GetCountByModuleTypeID(s.ctx, uuid.New(), typeA)
	s.Require().NoError(err)
	s.Equal(0, n, "counts are scoped to the site")
}

func (s *ContractSuite) TestModuleDeletedStillFetchableByID() {
	_, _, _, deleted := s.seedModules()

	got, err := s.repos.Modules.GetByID(s.ctx, s.site, deleted.ID())
	s.Require().NoError(err)
	s.Equal(domain.StatusDeleted, got.Status())
}

func (s *ContractSuite) TestModuleRoundTrip() {
	m := s.newModule(uuid.New(), "Welcome")
	s.Require().NoError(s.repos.Modules.Create(s.ctx, m))
	s.Equal(int64(1), m.Version())

	got, err := s.repos.Modules.GetByID(s.ctx, s.site, m.ID())
	s.Require().NoError(err)
	s.Equal(m.Snapshot(), got.Snapshot())
	s.Empty(got.Events(), "loaded aggregates carry no events")

	allow := domain.ValidatorFunc[module.UpdateModuleTitle](func(context.Context, module.UpdateModuleTitle) (domain.Failures, error) {
		return nil, nil
	})
	s.Require().NoError(got.UpdateTitle(s.ctx, module.UpdateModuleTitle{SiteID: s.site, ID: m.ID(), Title: "Updated"}, allow))
	s.Require().NoError(s.repos.Modules.Update(s.ctx, got))
	s.Equal(int64(2), got.Version())

	reloaded, err := s.repos.Modules.GetByID(s.ctx, s.site, m.ID())
	s.Require().NoError(err)
	s.Equal("Updated", reloaded.Title())
	s.Equal(int64(2), reloaded.Version())
}

func (s *ContractSuite) TestGetByIDMissing() {
	id := uuid.New()
	_, err := s.repos.Modules.GetByID(s.ctx, s.site, id)

	var nf *domain.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal(id, nf.ID)
	s.Equal(module.AggregateType, nf.AggregateType)

	_, err = s.repos.Users.GetByID(s.ctx, id)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ContractSuite) TestGetByIDIsSiteScoped() {
	m := s.newModule(uuid.New(), "Scoped")
	s.Require().NoError(s.repos.Modules.Create(s.ctx, m))

	_, err := s.repos.Modules.GetByID(s.ctx, uuid.New(), m.ID())
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ContractSuite) TestUpdateConcurrencyConflict() {
	m := s.newModule(uuid.New(), "Original")
	s.Require().NoError(s.repos.Modules.Create(s.ctx, m))

	first, err := s.repos.Modules.GetByID(s.ctx, s.site, m.ID())
	s.Require().NoError(err)
	second, err := s.repos.Modules.GetByID(s.ctx, s.site, m.ID())
	s.Require().NoError(err)

	allow := domain.ValidatorFunc[module.UpdateModuleTitle](func(context.Context, module.UpdateModuleTitle) (domain.Failures, error) {
		return nil, nil
	})
	s.Require().NoError(first.UpdateTitle(s.ctx, module.UpdateModuleTitle{SiteID: s.site, ID: m.ID(), Title: "First"}, allow))
	s.Require().NoError(s.repos.Modules.Update(s.ctx, first))

	s.Require().NoError(second.UpdateTitle(s.ctx, module.UpdateModuleTitle{SiteID: s.site, ID: m.ID(), Title: "Second"}, allow))
	err = s.repos.Modules.Update(s.ctx, second)

	var cc *domain.ConcurrencyConflictError
	s.Require().ErrorAs(err, &cc)
	s.Equal(int64(1), cc.Expected)
	s.Equal(int64(2), cc.Actual)

	stored, err := s.repos.Modules.GetByID(s.ctx, s.site, m.ID())
	s.Require().NoError(err)
	s.Equal("First", stored.Title())
}

func (s *ContractSuite) TestUpdateMissing() {
	m := module.Restore(module.State{SiteID: s.site, ID: uuid.New(), Title: "Ghost", Status: domain.StatusActive, Version: 1})
	s.ErrorIs(s.repos.Modules.Update(s.ctx, m), domain.ErrNotFound)
}

func (s *ContractSuite) TestCreateDuplicateID() {
	m := s.newModule(uuid.New(), "Once")
	s.Require().NoError(s.repos.Modules.Create(s.ctx, m))

	again := module.Restore(module.State{SiteID: s.site, ID: m.ID(), Title: "Twice", Status: domain.StatusActive})
	err := s.repos.Modules.Create(s.ctx, again)
	s.ErrorIs(err, domain.ErrPersistence)
	s.ErrorIs(err, domain.ErrUniqueConstraintViolation)
}

func (s *ContractSuite) createLanguage(name, culture, url string, order int) *language.Language {
	allow := domain.ValidatorFunc[language.CreateLanguage](func(context.Context, language.CreateLanguage) (domain.Failures, error) {
		return nil, nil
	})
	l, err := language.Create(s.ctx, language.CreateLanguage{SiteID: s.site, ID: uuid.New(), Name: name, CultureName: culture, URL: url}, allow, order)
	s.Require().NoError(err)
	s.Require().NoError(s.repos.Languages.Create(s.ctx, l))
	return l
}

func (s *ContractSuite) TestLanguageLookups() {
	en := s.createLanguage("English", "en-GB", "en", 2)
	s.createLanguage("French", "fr-FR", "fr", 1)

	got, err := s.repos.Languages.GetByName(s.ctx, s.site, "English")
	s.Require().NoError(err)
	s.Equal(en.ID(), got.ID())

	got, err = s.repos.Languages.GetByCultureName(s.ctx, s.site, "en-GB")
	s.Require().NoError(err)
	s.Equal(en.ID(), got.ID())

	got, err = s.repos.Languages.GetByURL(s.ctx, s.site, "en")
	s.Require().NoError(err)
	s.Equal(en.ID(), got.ID())

	_, err = s.repos.Languages.GetByName(s.ctx, uuid.New(), "English")
	s.ErrorIs(err, domain.ErrNotFound)

	all, err := s.repos.Languages.GetAll(s.ctx, s.site)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("French", all[0].Name(), "ordered by sort order")

	n, err := s.repos.Languages.GetCount(s.ctx, s.site)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *ContractSuite) TestLanguageUniqueness() {
	s.createLanguage("English", "en-GB", "en", 1)

	dup, err := language.Create(s.ctx,
		language.CreateLanguage{SiteID: s.site, ID: uuid.New(), Name: "English", CultureName: "en-US", URL: "us"},
		domain.ValidatorFunc[language.CreateLanguage](func(context.Context, language.CreateLanguage) (domain.Failures, error) { return nil, nil }),
		2)
	s.Require().NoError(err)

	err = s.repos.Languages.Create(s.ctx, dup)
	s.True(errors.Is(err, domain.ErrUniqueConstraintViolation), "got %v", err)
}

func (s *ContractSuite) TestDeletedLanguageReleasesUniqueValues() {
	en := s.createLanguage("English", "en-GB", "en", 1)

	allow := domain.ValidatorFunc[language.DeleteLanguage](func(context.Context, language.DeleteLanguage) (domain.Failures, error) {
		return nil, nil
	})
	s.Require().NoError(en.Delete(s.ctx, language.DeleteLanguage{SiteID: s.site, ID: en.ID()}, allow))
	s.Require().NoError(s.repos.Languages.Update(s.ctx, en))

	_, err := s.repos.Languages.GetByName(s.ctx, s.site, "English")
	s.ErrorIs(err, domain.ErrNotFound)

	s.createLanguage("English", "en-GB", "en", 1)

	n, err := s.repos.Languages.GetCount(s.ctx, s.site)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *ContractSuite) TestModuleTypeRepository() {
	allow := domain.ValidatorFunc[moduletype.CreateModuleType](func(context.Context, moduletype.CreateModuleType) (domain.Failures, error) {
		return nil, nil
	})
	create := func(name string) *moduletype.ModuleType {
		mt, err := moduletype.Create(s.ctx, moduletype.CreateModuleType{SiteID: s.site, ID: uuid.New(), Name: name, Title: name}, allow)
		s.Require().NoError(err)
		s.Require().NoError(s.repos.ModuleTypes.Create(s.ctx, mt))
		return mt
	}
	mt := create("text")
	create("image")
	create("gallery")

	got, err := s.repos.ModuleTypes.GetByName(s.ctx, s.site, "text")
	s.Require().NoError(err)
	s.Equal(mt.Snapshot(), got.Snapshot())

	all, err := s.repos.ModuleTypes.GetAll(s.ctx, s.site)
	s.Require().NoError(err)
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name()
	}
	s.Equal([]string{"gallery", "image", "text"}, names)
}

func (s *ContractSuite) TestLanguageGetAllBreaksTiesByName() {
	s.createLanguage("german", "de-DE", "de", 1)
	s.createLanguage("french", "fr-FR", "fr", 2)
	s.createLanguage("english", "en-GB", "en", 1)

	all, err := s.repos.Languages.GetAll(s.ctx, s.site)
	s.Require().NoError(err)
	names := make([]string, len(all))
	for i, l := range all {
		names[i] = l.Name()
	}
	s.Equal([]string{"english", "german", "french"}, names)
}

func (s *ContractSuite) TestUserRepository() {
	allow := domain.ValidatorFunc[user.CreateUser](func(context.Context, user.CreateUser) (domain.Failures, error) {
		return nil, nil
	})
	noHash := func(p string) (string, error) { return "hash:" + p, nil }

	u, err := user.Create(s.ctx, user.CreateUser{ID: uuid.New(), Email: "Ada@Example.com", UserName: "ada", Password: "pw"}, allow, noHash)
	s.Require().NoError(err)
	s.Require().NoError(s.repos.Users.Create(s.ctx, u))

	got, err := s.repos.Users.GetByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(u.Snapshot(), got.Snapshot())

	got, err = s.repos.Users.GetByUserName(s.ctx, "ada")
	s.Require().NoError(err)
	s.Equal(u.ID(), got.ID())

	all, err := s.repos.Users.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)

	del := domain.ValidatorFunc[user.DeleteUser](func(context.Context, user.DeleteUser) (domain.Failures, error) { return nil, nil })
	s.Require().NoError(got.Delete(s.ctx, user.DeleteUser{ID: got.ID()}, del))
	s.Require().NoError(s.repos.Users.Update(s.ctx, got))

	all, err = s.repos.Users.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)

	_, err = s.repos.Users.GetByEmail(s.ctx, "ada@example.com")
	s.ErrorIs(err, domain.ErrNotFound)
}
