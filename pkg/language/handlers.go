package language

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
)

type CreateHandler struct {
	repo      Repository
	validator domain.Validator[CreateLanguage]
}

func NewCreateHandler(repo Repository, v domain.Validator[CreateLanguage]) *CreateHandler {
	return &CreateHandler{repo: repo, validator: v}
}

// Handle creates the language after the last position in use. Deleted
// languages leave gaps rather than freeing their position.
func (h *CreateHandler) Handle(ctx context.Context, cmd CreateLanguage) ([]domain.Event, error) {
	next, err := nextSortOrder(ctx, h.repo, cmd.SiteID)
	if err != nil {
		return nil, err
	}
	l, err := Create(ctx, cmd, h.validator, next)
	if err != nil {
		return nil, err
	}
	if err := h.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l.Events(), nil
}

func nextSortOrder(ctx context.Context, repo Repository, siteID uuid.UUID) (int, error) {
	all, err := repo.GetAll(ctx, siteID)
	if err != nil {
		return 0, err
	}
	last := 0
	for _, l := range all {
		last = max(last, l.SortOrder())
	}
	return last + 1, nil
}

type UpdateDetailsHandler struct {
	repo      Repository
	validator domain.Validator[UpdateLanguageDetails]
}

func NewUpdateDetailsHandler(repo Repository, v domain.Validator[UpdateLanguageDetails]) *UpdateDetailsHandler {
	return &UpdateDetailsHandler{repo: repo, validator: v}
}

func (h *UpdateDetailsHandler) Handle(ctx context.Context, cmd UpdateLanguageDetails) ([]domain.Event, error) {
	l, err := h.repo.GetByID(ctx, cmd.SiteID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := l.UpdateDetails(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l.Events(), nil
}

type ActivateHandler struct {
	repo      Repository
	validator domain.Validator[ActivateLanguage]
}

func NewActivateHandler(repo Repository, v domain.Validator[ActivateLanguage]) *ActivateHandler {
	return &ActivateHandler{repo: repo, validator: v}
}

func (h *ActivateHandler) Handle(ctx context.Context, cmd ActivateLanguage) ([]domain.Event, error) {
	l, err := h.repo.GetByID(ctx, cmd.SiteID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := l.Activate(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l.Events(), nil
}

// HideHandler loads the language, hides it and saves it.
type HideHandler struct {
	repo      Repository
	validator domain.Validator[HideLanguage]
}

func NewHideHandler(repo Repository, v domain.Validator[HideLanguage]) *HideHandler {
	return &HideHandler{repo: repo, validator: v}
}

func (h *HideHandler) Handle(ctx context.Context, cmd HideLanguage) ([]domain.Event, error) {
	l, err := h.repo.GetByID(ctx, cmd.SiteID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := l.Hide(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l.Events(), nil
}

type DeleteHandler struct {
	repo      Repository
	validator domain.Validator[DeleteLanguage]
}

func NewDeleteHandler(repo Repository, v domain.Validator[DeleteLanguage]) *DeleteHandler {
	return &DeleteHandler{repo: repo, validator: v}
}

func (h *DeleteHandler) Handle(ctx context.Context, cmd DeleteLanguage) ([]domain.Event, error) {
	l, err := h.repo.GetByID(ctx, cmd.SiteID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := l.Delete(ctx, cmd, h.validator); err != nil {
		return nil, err
	}
	if err := h.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l.Events(), nil
}

// ReorderHandler applies a new display order across several languages. Each
// language whose position changes is saved separately and contributes one
// Reordered event. The saves are not atomic: on failure the events of the
// languages already saved are returned together with the error.
type ReorderHandler struct {
	repo      Repository
	validator domain.Validator[ReorderLanguages]
}

func NewReorderHandler(repo Repository, v domain.Validator[ReorderLanguages]) *ReorderHandler {
	return &ReorderHandler{repo: repo, validator: v}
}

func (h *ReorderHandler) Handle(ctx context.Context, cmd ReorderLanguages) ([]domain.Event, error) {
	if err := domain.Check(ctx, h.validator, cmd); err != nil {
		return nil, err
	}

	var events []domain.Event
	for i, id := range cmd.Order {
		l, err := h.repo.GetByID(ctx, cmd.SiteID, id)
		if err != nil {
			return events, err
		}
		if !l.moveTo(i + 1) {
			continue
		}
		if err := h.repo.Update(ctx, l); err != nil {
			return events, err
		}
		events = append(events, l.Events()...)
	}
	return events, nil
}

// Handlers bundles one handler per language command over a single repository.
type Handlers struct {
	Create        *CreateHandler
	UpdateDetails *UpdateDetailsHandler
	Reorder       *ReorderHandler
	Activate      *ActivateHandler
	Hide          *HideHandler
	Delete        *DeleteHandler
}

// NewHandlers wires every language handler with its default validator.
func NewHandlers(repo Repository) Handlers {
	return Handlers{
		Create:        NewCreateHandler(repo, NewCreateValidator(repo)),
		UpdateDetails: NewUpdateDetailsHandler(repo, NewUpdateDetailsValidator(repo)),
		Reorder:       NewReorderHandler(repo, NewReorderValidator(repo)),
		Activate:      NewActivateHandler(repo, IdentityValidator[ActivateLanguage]{}),
		Hide:          NewHideHandler(repo, IdentityValidator[HideLanguage]{}),
		Delete:        NewDeleteHandler(repo, IdentityValidator[DeleteLanguage]{}),
	}
}
