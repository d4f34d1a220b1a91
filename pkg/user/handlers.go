package user

import (
	"context"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/password"
)

type CreateHandler struct {
	repo      Repository
	validator domain.Validator[CreateUser]
	hash      password.Hasher
}

func NewCreateHandler(repo Repository, v domain.Validator[CreateUser], hash password.Hasher) *CreateHandler {
	return &CreateHandler{repo: repo, validator: v, hash: hash}
}

func (h *CreateHandler) Handle(ctx context.Context, cmd CreateUser) ([]domain.Event, error) {
	u, err := Create(ctx, cmd, h.validator, h.hash)
	if err != nil {
		return nil, err
	}
	if err := h.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u.Events(), nil
}

type ChangeEmailHandler struct {
	repo      Repository
	validator domain.Validator[ChangeUserEmail]
}

func NewChangeEmailHandler(repo Repository, v domain.Validator[ChangeUserEmail]) *ChangeEmailHandler {
	return &ChangeEmailHandler{repo: repo, validator: v}
}

func (h *ChangeEmailHandler) Handle(ctx context.Context, cmd ChangeUserEmail) ([]domain.Event, error) {
	u, err := h.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := u.ChangeEmail(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u.Events(), nil
}

type SetPasswordHandler struct {
	repo      Repository
	validator domain.Validator[SetUserPassword]
	hash      password.Hasher
}

func NewSetPasswordHandler(repo Repository, v domain.Validator[SetUserPassword], hash password.Hasher) *SetPasswordHandler {
	return &SetPasswordHandler{repo: repo, validator: v, hash: hash}
}

func (h *SetPasswordHandler) Handle(ctx context.Context, cmd SetUserPassword) ([]domain.Event, error) {
	u, err := h.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := u.SetPassword(ctx, cmd, h.validator, h.hash); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u.Events(), nil
}

type DeleteHandler struct {
	repo      Repository
	validator domain.Validator[DeleteUser]
}

func NewDeleteHandler(repo Repository, v domain.Validator[DeleteUser]) *DeleteHandler {
	return &DeleteHandler{repo: repo, validator: v}
}

func (h *DeleteHandler) Handle(ctx context.Context, cmd DeleteUser) ([]domain.Event, error) {
	u, err := h.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := u.Delete(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u.Events(), nil
}

type Handlers struct {
	Create      *CreateHandler
	ChangeEmail *ChangeEmailHandler
	SetPassword *SetPasswordHandler
	Delete      *DeleteHandler
}

// NewHandlers wires every user handler. A nil hash uses bcrypt at the default cost.
func NewHandlers(repo Repository, hash password.Hasher) Handlers {
	if hash == nil {
		hash = password.NewHasher()
	}
	return Handlers{
		Create:      NewCreateHandler(repo, NewCreateValidator(repo), hash),
		ChangeEmail: NewChangeEmailHandler(repo, NewChangeEmailValidator(repo)),
		SetPassword: NewSetPasswordHandler(repo, SetPasswordValidator{}, hash),
		Delete:      NewDeleteHandler(repo, DeleteValidator{}),
	}
}
