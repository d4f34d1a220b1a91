package module

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/moduletype"
	"github.com/plaenen/cmscore/pkg/validators"
)

const maxTitleLength = 250

// CreateValidator checks CreateModule. The module type must exist in the
// same site and must not be deleted.
type CreateValidator struct {
	types moduletype.Repository
}

func NewCreateValidator(types moduletype.Repository) *CreateValidator {
	return &CreateValidator{types: types}
}

func (v *CreateValidator) Validate(ctx context.Context, cmd CreateModule) (domain.Failures, error) {
	b := validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.SiteID, "SiteId")).
		Add(validators.ValidateID(cmd.ID, "Id")).
		Add(validators.ValidateID(cmd.ModuleTypeID, "ModuleTypeId"))
	title(b, cmd.Title)

	if b.FieldValid("SiteId") && b.FieldValid("ModuleTypeId") {
		mt, err := v.types.GetByID(ctx, cmd.SiteID, cmd.ModuleTypeID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			b.Add(validators.Invalid("ModuleTypeId", "Module type not found."))
		case err != nil:
			return nil, err
		case mt.Status() == domain.StatusDeleted:
			b.Add(validators.Invalid("ModuleTypeId", "Module type is deleted."))
		}
	}
	return b.Failures(), nil
}

type UpdateTitleValidator struct{}

func (UpdateTitleValidator) Validate(_ context.Context, cmd UpdateModuleTitle) (domain.Failures, error) {
	b := ids(cmd.SiteID, cmd.ID)
	title(b, cmd.Title)
	return b.Failures(), nil
}

type DeleteValidator struct{}

func (DeleteValidator) Validate(_ context.Context, cmd DeleteModule) (domain.Failures, error) {
	return ids(cmd.SiteID, cmd.ID).Failures(), nil
}

func ids(siteID, id uuid.UUID) *validators.ValidationBuilder {
	return validators.NewValidationBuilder().
		Add(validators.ValidateID(siteID, "SiteId")).
		Add(validators.ValidateID(id, "Id"))
}

func title(b *validators.ValidationBuilder, t string) {
	b.Add(validators.ValidateStringEmpty(t, "Title"))
	if b.FieldValid("Title") {
		b.Add(validators.ValidateStringLength(t, "Title", 1, maxTitleLength))
	}
}
