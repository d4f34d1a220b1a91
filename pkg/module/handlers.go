package module

import (
	"context"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/moduletype"
)

type CreateHandler struct {
	repo      Repository
	validator domain.Validator[CreateModule]
}

func NewCreateHandler(repo Repository, v domain.Validator[CreateModule]) *CreateHandler {
	return &CreateHandler{repo: repo, validator: v}
}

func (h *CreateHandler) Handle(ctx context.Context, cmd CreateModule) ([]domain.Event, error) {
	m, err := Create(ctx, cmd, h.validator)
	if err != nil {
		return nil, err
	}
	if err := h.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m.Events(), nil
}

type UpdateTitleHandler struct {
	repo      Repository
	validator domain.Validator[UpdateModuleTitle]
}

func NewUpdateTitleHandler(repo Repository, v domain.Validator[UpdateModuleTitle]) *UpdateTitleHandler {
	return &UpdateTitleHandler{repo: repo, validator: v}
}

func (h *UpdateTitleHandler) Handle(ctx context.Context, cmd UpdateModuleTitle) ([]domain.Event, error) {
	m, err := h.repo.GetByID(ctx, cmd.SiteID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := m.UpdateTitle(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m.Events(), nil
}

type DeleteHandler struct {
	repo      Repository
	validator domain.Validator[DeleteModule]
}

func NewDeleteHandler(repo Repository, v domain.Validator[DeleteModule]) *DeleteHandler {
	return &DeleteHandler{repo: repo, validator: v}
}

func (h *DeleteHandler) Handle(ctx context.Context, cmd DeleteModule) ([]domain.Event, error) {
	m, err := h.repo.GetByID(ctx, cmd.SiteID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := m.Delete(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m.Events(), nil
}

type Handlers struct {
	Create      *CreateHandler
	UpdateTitle *UpdateTitleHandler
	Delete      *DeleteHandler
}

func NewHandlers(repo Repository, types moduletype.Repository) Handlers {
	return Handlers{
		Create:      NewCreateHandler(repo, NewCreateValidator(types)),
		UpdateTitle: NewUpdateTitleHandler(repo, UpdateTitleValidator{}),
		Delete:      NewDeleteHandler(repo, DeleteValidator{}),
	}
}
