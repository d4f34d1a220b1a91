// Package language implements the Language aggregate: the content languages
// a site publishes in, their URL segments and display order.
package language

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/validators"
)

const AggregateType = "Language"

// Event kinds.
const (
	Created        = "Created"
	DetailsUpdated = "DetailsUpdated"
	Reordered      = "Reordered"
	Activated      = "Activated"
	Hidden         = "Hidden"
	Deleted        = "Deleted"
)

// Language is a site language. Fields change only through its behaviors.
type Language struct {
	domain.Root

	name        string
	cultureName string
	url         string
	sortOrder   int
	status      domain.Status
}

// State is the persisted shape of a Language.
type State struct {
	SiteID      uuid.UUID
	ID          uuid.UUID
	Name        string
	CultureName string
	URL         string
	SortOrder   int
	Status      domain.Status
	Version     int64
}

func (l *Language) Name() string          { return l.name }
func (l *Language) CultureName() string   { return l.cultureName }
func (l *Language) URL() string           { return l.url }
func (l *Language) SortOrder() int        { return l.sortOrder }
func (l *Language) Status() domain.Status { return l.status }

// Snapshot returns the current state for storage.
func (l *Language) Snapshot() State {
	return State{
		SiteID:      l.SiteID(),
		ID:          l.ID(),
		Name:        l.name,
		CultureName: l.cultureName,
		URL:         l.url,
		SortOrder:   l.sortOrder,
		Status:      l.status,
		Version:     l.Version(),
	}
}

// Restore rebuilds a Language from stored state. The result has no pending events.
func Restore(s State) *Language {
	return &Language{
		Root:        domain.RestoreRoot(AggregateType, s.SiteID, s.ID, s.Version),
		name:        s.Name,
		cultureName: s.CultureName,
		url:         s.URL,
		sortOrder:   s.SortOrder,
		status:      s.Status,
	}
}

// Create validates cmd and returns a new active language placed at sortOrder.
func Create(ctx context.Context, cmd CreateLanguage, v domain.Validator[CreateLanguage], sortOrder int) (*Language, error) {
	if err := domain.Check(ctx, v, cmd); err != nil {
		return nil, err
	}

	l := &Language{
		Root:        domain.NewRoot(AggregateType, cmd.SiteID, cmd.ID),
		name:        cmd.Name,
		cultureName: validators.CanonicalCulture(cmd.CultureName),
		url:         cmd.URL,
		sortOrder:   sortOrder,
		status:      domain.StatusActive,
	}
	l.Record(Created, map[string]any{
		"name":        l.name,
		"cultureName": l.cultureName,
		"url":         l.url,
		"sortOrder":   l.sortOrder,
		"status":      string(l.status),
	})
	return l, nil
}

// UpdateDetails changes name, culture and URL. Culture names are stored in
// canonical BCP 47 form.
func (l *Language) UpdateDetails(ctx context.Context, cmd UpdateLanguageDetails, v domain.Validator[UpdateLanguageDetails]) error {
	if err := l.guard(cmd.SiteID, cmd.ID, func() error { return domain.Check(ctx, v, cmd) }); err != nil {
		return err
	}

	l.name = cmd.Name
	l.cultureName = validators.CanonicalCulture(cmd.CultureName)
	l.url = cmd.URL
	l.Record(DetailsUpdated, map[string]any{
		"name":        l.name,
		"cultureName": l.cultureName,
		"url":         l.url,
	})
	return nil
}

// Activate makes the language visible again.
func (l *Language) Activate(ctx context.Context, cmd ActivateLanguage, v domain.Validator[ActivateLanguage]) error {
	if err := l.guard(cmd.SiteID, cmd.ID, func() error { return domain.Check(ctx, v, cmd) }); err != nil {
		return err
	}
	l.setStatus(domain.StatusActive, Activated)
	return nil
}

// Hide removes the language from public listings without deleting it.
// Hiding an already hidden language records another Hidden event.
func (l *Language) Hide(ctx context.Context, cmd HideLanguage, v domain.Validator[HideLanguage]) error {
	if err := l.guard(cmd.SiteID, cmd.ID, func() error { return domain.Check(ctx, v, cmd) }); err != nil {
		return err
	}
	l.setStatus(domain.StatusHidden, Hidden)
	return nil
}

// Delete soft-deletes the language.
func (l *Language) Delete(ctx context.Context, cmd DeleteLanguage, v domain.Validator[DeleteLanguage]) error {
	if err := l.guard(cmd.SiteID, cmd.ID, func() error { return domain.Check(ctx, v, cmd) }); err != nil {
		return err
	}
	l.setStatus(domain.StatusDeleted, Deleted)
	return nil
}

// moveTo is one step of ReorderLanguages. It records an event only when the
// position actually changes.
func (l *Language) moveTo(sortOrder int) bool {
	if l.sortOrder == sortOrder {
		return false
	}
	l.sortOrder = sortOrder
	l.Record(Reordered, map[string]any{"sortOrder": sortOrder})
	return true
}

func (l *Language) setStatus(status domain.Status, kind string) {
	l.status = status
	l.Record(kind, map[string]any{"status": string(status)})
}

// guard runs the validator first, then the structural checks shared by
// every behavior on an existing language.
func (l *Language) guard(siteID, id uuid.UUID, validate func() error) error {
	if err := validate(); err != nil {
		return err
	}
	if err := domain.RequireTarget(&l.Root, siteID, id); err != nil {
		return err
	}
	return domain.RequireNotDeleted(l.status, AggregateType)
}
