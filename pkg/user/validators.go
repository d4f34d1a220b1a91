package user

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/validators"
)

var userNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type CreateValidator struct {
	repo Repository
}

func NewCreateValidator(repo Repository) *CreateValidator {
	return &CreateValidator{repo: repo}
}

func (v *CreateValidator) Validate(ctx context.Context, cmd CreateUser) (domain.Failures, error) {
	b := validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.ID, "Id")).
		Add(validators.ValidateEmail("Email", cmd.Email)).
		Add(validators.ValidateStringLength(cmd.UserName, "UserName", 3, 50))
	if b.FieldValid("UserName") {
		b.Add(validators.ValidateStringPattern(cmd.UserName, "UserName", userNamePattern, "user name"))
	}
	if cmd.Password != "" {
		b.Add(validators.ValidatePassword("Password", cmd.Password))
	}

	if err := uniqueEmail(ctx, b, v.repo, cmd.Email, uuid.Nil); err != nil {
		return nil, err
	}
	if b.FieldValid("UserName") {
		_, err := v.repo.GetByUserName(ctx, cmd.UserName)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		b.Add(validators.ValidateUnique(cmd.UserName, "UserName", err == nil))
	}
	return b.Failures(), nil
}

type ChangeEmailValidator struct {
	repo Repository
}

func NewChangeEmailValidator(repo Repository) *ChangeEmailValidator {
	return &ChangeEmailValidator{repo: repo}
}

func (v *ChangeEmailValidator) Validate(ctx context.Context, cmd ChangeUserEmail) (domain.Failures, error) {
	b := validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.ID, "Id")).
		Add(validators.ValidateEmail("Email", cmd.Email))
	if err := uniqueEmail(ctx, b, v.repo, cmd.Email, cmd.ID); err != nil {
		return nil, err
	}
	return b.Failures(), nil
}

type SetPasswordValidator struct{}

func (SetPasswordValidator) Validate(_ context.Context, cmd SetUserPassword) (domain.Failures, error) {
	return validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.ID, "Id")).
		Add(validators.ValidatePassword("Password", cmd.Password)).
		Failures(), nil
}

type DeleteValidator struct{}

func (DeleteValidator) Validate(_ context.Context, cmd DeleteUser) (domain.Failures, error) {
	return validators.NewValidationBuilder().
		Add(validators.ValidateID(cmd.ID, "Id")).
		Failures(), nil
}

func uniqueEmail(ctx context.Context, b *validators.ValidationBuilder, repo Repository, email string, self uuid.UUID) error {
	if !b.FieldValid("Email") {
		return nil
	}
	existing, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	b.Add(validators.ValidateUnique(email, "Email", err == nil && existing.ID() != self))
	return nil
}
