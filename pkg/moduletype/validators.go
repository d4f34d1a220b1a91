package moduletype

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/validators"
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

type CreateValidator struct {
	repo Repository
}

func NewCreateValidator(repo Repository) *CreateValidator {
	return &CreateValidator{repo: repo}
}

func (v *CreateValidator) Validate(ctx context.Context, cmd CreateModuleType) (domain.Failures, error) {
	b := validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.SiteID, "SiteId")).
		Add(validators.ValidateID(cmd.ID, "Id")).
		Add(validators.ValidateStringPattern(cmd.Name, "Name", namePattern, "identifier"))
	if b.FieldValid("Name") {
		b.Add(validators.ValidateStringLength(cmd.Name, "Name", 1, 100))
	}
	details(b, cmd.Title, cmd.Description)

	if b.FieldValid("Name") && cmd.SiteID != uuid.Nil {
		_, err := v.repo.GetByName(ctx, cmd.SiteID, cmd.Name)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		b.Add(validators.ValidateUnique(cmd.Name, "Name", err == nil))
	}
	return b.Failures(), nil
}

type UpdateDetailsValidator struct{}

func (UpdateDetailsValidator) Validate(_ context.Context, cmd UpdateModuleTypeDetails) (domain.Failures, error) {
	b := validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.SiteID, "SiteId")).
		Add(validators.ValidateID(cmd.ID, "Id"))
	details(b, cmd.Title, cmd.Description)
	return b.Failures(), nil
}

// DeleteValidator refuses to delete a module type still used by modules.
type DeleteValidator struct {
	modules UsageCounter
}

func NewDeleteValidator(modules UsageCounter) *DeleteValidator {
	return &DeleteValidator{modules: modules}
}

func (v *DeleteValidator) Validate(ctx context.Context, cmd DeleteModuleType) (domain.Failures, error) {
	b := validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.SiteID, "SiteId")).
		Add(validators.ValidateID(cmd.ID, "Id"))
	if !b.FieldValid("SiteId") || !b.FieldValid("Id") {
		return b.Failures(), nil
	}

	n, err := v.modules.GetCountByModuleTypeID(ctx, cmd.SiteID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		b.Add(validators.Invalid("Id", fmt.Sprintf("Module type is used by %d module(s).", n),
			validators.WithSuggestedAction("Delete the modules using this module type first.")))
	}
	return b.Failures(), nil
}

func details(b *validators.ValidationBuilder, title, description string) {
	b.Add(validators.ValidateStringEmpty(title, "Title"))
	if b.FieldValid("Title") {
		b.Add(validators.ValidateStringLength(title, "Title", 1, 250))
	}
	b.Add(validators.ValidateStringLength(description, "Description", 0, 500))
}
