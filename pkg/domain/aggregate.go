package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state shared by site-scoped aggregates.
type Status string

const (
	StatusActive  Status = "Active"
	StatusHidden  Status = "Hidden"
	StatusDeleted Status = "Deleted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusHidden, StatusDeleted:
		return true
	}
	return false
}

// Root carries the identity, version and pending events of an aggregate.
// Embed it in aggregate structs.
type Root struct {
	aggregateType string
	siteID        uuid.UUID
	id            uuid.UUID
	version       int64
	log           EventLog
}

// NewRoot creates a root for a brand new aggregate (version 0).
func NewRoot(aggregateType string, siteID, id uuid.UUID) Root {
	return Root{aggregateType: aggregateType, siteID: siteID, id: id}
}

// RestoreRoot creates a root for an aggregate loaded from storage.
func RestoreRoot(aggregateType string, siteID, id uuid.UUID, version int64) Root {
	return Root{aggregateType: aggregateType, siteID: siteID, id: id, version: version}
}

func (r *Root) AggregateType() string { return r.aggregateType }
func (r *Root) SiteID() uuid.UUID     { return r.siteID }
func (r *Root) ID() uuid.UUID         { return r.id }

// Version returns the version the aggregate was loaded with, or the version
// written by the last successful Create/Update.
func (r *Root) Version() int64 { return r.version }

// Events returns a snapshot of the events recorded since load.
func (r *Root) Events() []Event { return r.log.Events() }

// Record appends an event of the given kind. Its version is the one the
// next write will produce.
func (r *Root) Record(kind string, data map[string]any) {
	r.log.Record(newEvent(r.aggregateType, r.siteID, r.id, kind, r.version+1, data))
}

// MarkPersisted is called by repositories after a successful write.
func (r *Root) MarkPersisted(version int64) {
	r.version = version
}

// TimeFunc returns the current time. Tests may override it.
var TimeFunc = func() time.Time { return time.Now().UTC() }

// Now returns the current time using TimeFunc.
func Now() time.Time {
	return TimeFunc()
}
