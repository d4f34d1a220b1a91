package moduletype

import (
	"context"

	"github.com/plaenen/cmscore/pkg/domain"
)

type CreateHandler struct {
	repo      Repository
	validator domain.Validator[CreateModuleType]
}

func NewCreateHandler(repo Repository, v domain.Validator[CreateModuleType]) *CreateHandler {
	return &CreateHandler{repo: repo, validator: v}
}

func (h *CreateHandler) Handle(ctx context.Context, cmd CreateModuleType) ([]domain.Event, error) {
	m, err := Create(ctx, cmd, h.validator)
	if err != nil {
		return nil, err
	}
	if err := h.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m.Events(), nil
}

type UpdateDetailsHandler struct {
	repo      Repository
	validator domain.Validator[UpdateModuleTypeDetails]
}

func NewUpdateDetailsHandler(repo Repository, v domain.Validator[UpdateModuleTypeDetails]) *UpdateDetailsHandler {
	return &UpdateDetailsHandler{repo: repo, validator: v}
}

func (h *UpdateDetailsHandler) Handle(ctx context.Context, cmd UpdateModuleTypeDetails) ([]domain.Event, error) {
	m, err := h.repo.GetByID(ctx, cmd.SiteID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := m.UpdateDetails(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m.Events(), nil
}

type DeleteHandler struct {
	repo      Repository
	validator domain.Validator[DeleteModuleType]
}

func NewDeleteHandler(repo Repository, v domain.Validator[DeleteModuleType]) *DeleteHandler {
	return &DeleteHandler{repo: repo, validator: v}
}

func (h *DeleteHandler) Handle(ctx context.Context, cmd DeleteModuleType) ([]domain.Event, error) {
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
	Create        *CreateHandler
	UpdateDetails *UpdateDetailsHandler
	Delete        *DeleteHandler
}

func NewHandlers(repo Repository, modules UsageCounter) Handlers {
	return Handlers{
		Create:        NewCreateHandler(repo, NewCreateValidator(repo)),
		UpdateDetails: NewUpdateDetailsHandler(repo, UpdateDetailsValidator{}),
		Delete:        NewDeleteHandler(repo, NewDeleteValidator(modules)),
	}
}
