package moduletype

import "github.com/google/uuid"

type CreateModuleType struct {
	SiteID      uuid.UUID `json:"siteId"`
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

type UpdateModuleTypeDetails struct {
	SiteID      uuid.UUID `json:"siteId"`
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

type DeleteModuleType struct {
	SiteID uuid.UUID `json:"siteId"`
	ID     uuid.UUID `json:"id"`
}

func (CreateModuleType) CommandType() string        { return "moduletype.create" }
func (UpdateModuleTypeDetails) CommandType() string { return "moduletype.update_details" }
func (DeleteModuleType) CommandType() string        { return "moduletype.delete" }

func (c CreateModuleType) Site() uuid.UUID        { return c.SiteID }
func (c UpdateModuleTypeDetails) Site() uuid.UUID { return c.SiteID }
func (c DeleteModuleType) Site() uuid.UUID        { return c.SiteID }
