package eventbus

import "time"

type EventType string

const (
	EventProjectLoaded    EventType = "project.loaded"
	EventProjectImported  EventType = "project.imported"
	EventProjectCleared   EventType = "project.cleared"
	EventProjectSaved     EventType = "project.saved"
	EventTaskCreated      EventType = "task.created"
	EventTaskUpdated      EventType = "task.updated"
	EventTaskDeleted      EventType = "task.deleted"
	EventTaskDelayed      EventType = "task.delayed"
	EventViewModeChanged  EventType = "view_mode.changed"
	EventSelectionChanged EventType = "selection.changed"
)

// Event announces a state change. Version is the store version after the
// change; ResourceID is the task or project the change concerns.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ResourceID string    `json:"resourceId,omitempty"`
	Version    uint64    `json:"version"`
	CreatedAt  time.Time `json:"createdAt"`
}
