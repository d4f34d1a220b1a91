package language

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/validators"
)

const (
	maxNameLength = 100
	maxURLLength  = 100
)

// CreateValidator checks CreateLanguage, including per-site uniqueness of
// name, culture and URL.
type CreateValidator struct {
	repo Repository
}

func NewCreateValidator(repo Repository) *CreateValidator {
	return &CreateValidator{repo: repo}
}

func (v *CreateValidator) Validate(ctx context.Context, cmd CreateLanguage) (domain.Failures, error) {
	b := validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.SiteID, "SiteId")).
		Add(validators.ValidateID(cmd.ID, "Id"))
	if err := details(ctx, b, v.repo, cmd.SiteID, uuid.Nil, cmd.Name, cmd.CultureName, cmd.URL); err != nil {
		return nil, err
	}
	return b.Failures(), nil
}

// UpdateDetailsValidator checks UpdateLanguageDetails. The language being
// updated may keep its own name, culture and URL.
type UpdateDetailsValidator struct {
	repo Repository
}

func NewUpdateDetailsValidator(repo Repository) *UpdateDetailsValidator {
	return &UpdateDetailsValidator{repo: repo}
}

func (v *UpdateDetailsValidator) Validate(ctx context.Context, cmd UpdateLanguageDetails) (domain.Failures, error) {
	b := validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.SiteID, "SiteId")).
		Add(validators.ValidateID(cmd.ID, "Id"))
	if err := details(ctx, b, v.repo, cmd.SiteID, cmd.ID, cmd.Name, cmd.CultureName, cmd.URL); err != nil {
		return nil, err
	}
	return b.Failures(), nil
}

// ReorderValidator requires Order to list every non-deleted language of the
// site exactly once.
type ReorderValidator struct {
	repo Repository
}

func NewReorderValidator(repo Repository) *ReorderValidator {
	return &ReorderValidator{repo: repo}
}

func (v *ReorderValidator) Validate(ctx context.Context, cmd ReorderLanguages) (domain.Failures, error) {
	var fs domain.Failures
	if cmd.SiteID == uuid.Nil {
		fs.Add("SiteId", "Site id is required.")
		return fs, nil
	}
	if len(cmd.Order) == 0 {
		fs.Add("Order", "Order is required.")
		return fs, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(cmd.Order))
	for _, id := range cmd.Order {
		if _, dup := seen[id]; dup {
			fs.Add("Order", fmt.Sprintf("Language %s is listed more than once.", id))
			continue
		}
		seen[id] = struct{}{}
	}

	all, err := v.repo.GetAll(ctx, cmd.SiteID)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]struct{}, len(all))
	for _, l := range all {
		known[l.ID()] = struct{}{}
		if _, ok := seen[l.ID()]; !ok {
			fs.Add("Order", fmt.Sprintf("Language %s is missing.", l.ID()))
		}
	}
	for _, id := range cmd.Order {
		if _, ok := known[id]; !ok {
			fs.Add("Order", fmt.Sprintf("Language %s does not exist.", id))
		}
	}
	return fs, nil
}

// IdentityValidator checks commands that only carry a site and language id.
type IdentityValidator[C interface {
	ActivateLanguage | HideLanguage | DeleteLanguage
}] struct{}

func (IdentityValidator[C]) Validate(_ context.Context, cmd C) (domain.Failures, error) {
	var siteID, id uuid.UUID
	switch c := any(cmd).(type) {
	case ActivateLanguage:
		siteID, id = c.SiteID, c.ID
	case HideLanguage:
		siteID, id = c.SiteID, c.ID
	case DeleteLanguage:
		siteID, id = c.SiteID, c.ID
	}
	return validators.NewValidationBuilder().
		Add(validators.ValidateID(siteID, "SiteId")).
		Add(validators.ValidateID(id, "Id")).
		Failures(), nil
}

func details(ctx context.Context, b *validators.ValidationBuilder, repo Repository, siteID, self uuid.UUID, name, culture, url string) error {
	b.Add(validators.ValidateStringEmpty(name, "Name"))
	if b.FieldValid("Name") {
		b.Add(validators.ValidateStringLength(name, "Name", 1, maxNameLength))
	}
	b.Add(validators.ValidateCulture(culture, "CultureName"))
	b.Add(validators.ValidateSlug(url, "Url"))
	if b.FieldValid("Url") {
		b.Add(validators.ValidateStringLength(url, "Url", 1, maxURLLength))
	}

	if siteID == uuid.Nil {
		return nil
	}

	checks := []struct {
		field  string
		value  string
		lookup func(context.Context, uuid.UUID, string) (*Language, error)
	}{
		{"Name", name, repo.GetByName},
		{"CultureName", validators.CanonicalCulture(culture), repo.GetByCultureName},
		{"Url", url, repo.GetByURL},
	}
	for _, c := range checks {
		if !b.FieldValid(c.field) {
			continue
		}
		existing, err := c.lookup(ctx, siteID, c.value)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		b.Add(validators.ValidateUnique(c.value, c.field, err == nil && existing.ID() != self))
	}
	return nil
}
