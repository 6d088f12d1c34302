package model

import (
	"time"

	"github.com/google/uuid"
)

// Alert flags a condition on a job, driver or vehicle. The dispatch core
// never mutates alerts during assignment; it sees their effect through the
// compliance state of the entity they reference.
type Alert struct {
	ID          uuid.UUID     `json:"id"`
	Severity    AlertSeverity `json:"severity"`
	AlertType   string        `json:"alert_type"`
	EntityType  string        `json:"entity_type"`
	EntityID    *uuid.UUID    `json:"entity_id,omitempty"`
	Description string        `json:"description"`
	Status      AlertStatus   `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	DueBy       *time.Time    `json:"due_by,omitempty"`
}
