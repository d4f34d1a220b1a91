package module

import "github.com/google/uuid"

type CreateModule struct {
	SiteID       uuid.UUID `json:"siteId"`
	ID           uuid.UUID `json:"id"`
	ModuleTypeID uuid.UUID `json:"moduleTypeId"`
	Title        string    `json:"title"`
}

type UpdateModuleTitle struct {
	SiteID uuid.UUID `json:"siteId"`
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
}

type DeleteModule struct {
	SiteID uuid.UUID `json:"siteId"`
	ID     uuid.UUID `json:"id"`
}

func (CreateModule) CommandType() string      { return "module.create" }
func (UpdateModuleTitle) CommandType() string { return "module.update_title" }
func (DeleteModule) CommandType() string      { return "module.delete" }

func (c CreateModule) Site() uuid.UUID      { return c.SiteID }
func (c UpdateModuleTitle) Site() uuid.UUID { return c.SiteID }
func (c DeleteModule) Site() uuid.UUID      { return c.SiteID }
