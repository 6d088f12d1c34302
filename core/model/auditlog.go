package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry is one immutable row of the audit trail. BeforeJSON and
// AfterJSON hold deep, point-in-time snapshots serialized as JSON text;
// they are never live references to the mutated entity. Entries are never
// updated or deleted after creation.
type AuditLogEntry struct {
	ID            uuid.UUID  `json:"id"`
	ActorID       *uuid.UUID `json:"actor_id,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	EntityType    string     `json:"entity_type"`
	EntityID      *uuid.UUID `json:"entity_id,omitempty"`
	Action        string     `json:"action"`
	BeforeJSON    string     `json:"before_json,omitempty"`
	AfterJSON     string     `json:"after_json,omitempty"`
	Source        string     `json:"source"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}
