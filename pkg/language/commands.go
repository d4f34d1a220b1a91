package language

import "github.com/google/uuid"

type CreateLanguage struct {
	SiteID      uuid.UUID `json:"siteId"`
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CultureName string    `json:"cultureName"`
	URL         string    `json:"url"`
}

type UpdateLanguageDetails struct {
	SiteID      uuid.UUID `json:"siteId"`
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CultureName string    `json:"cultureName"`
	URL         string    `json:"url"`
}

// ReorderLanguages sets the display order of a site's languages. Order lists
// language ids first to last.
type ReorderLanguages struct {
	SiteID uuid.UUID   `json:"siteId"`
	Order  []uuid.UUID `json:"order"`
}

type ActivateLanguage struct {
	SiteID uuid.UUID `json:"siteId"`
	ID     uuid.UUID `json:"id"`
}

type HideLanguage struct {
	SiteID uuid.UUID `json:"siteId"`
	ID     uuid.UUID `json:"id"`
}

type DeleteLanguage struct {
	SiteID uuid.UUID `json:"siteId"`
	ID     uuid.UUID `json:"id"`
}

func (CreateLanguage) CommandType() string        { return "language.create" }
func (UpdateLanguageDetails) CommandType() string { return "language.update_details" }
func (ReorderLanguages) CommandType() string      { return "language.reorder" }
func (ActivateLanguage) CommandType() string      { return "language.activate" }
func (HideLanguage) CommandType() string          { return "language.hide" }
func (DeleteLanguage) CommandType() string        { return "language.delete" }

func (c CreateLanguage) Site() uuid.UUID        { return c.SiteID }
func (c UpdateLanguageDetails) Site() uuid.UUID { return c.SiteID }
func (c ReorderLanguages) Site() uuid.UUID      { return c.SiteID }
func (c ActivateLanguage) Site() uuid.UUID      { return c.SiteID }
func (c HideLanguage) Site() uuid.UUID          { return c.SiteID }
func (c DeleteLanguage) Site() uuid.UUID        { return c.SiteID }
