// Package audit appends immutable records of every state-changing
// operation. Entries commit in the same transaction as the entity write:
// if the audit append fails, the mutation must not become visible.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

// Entry describes one audit record before serialization. Before and After
// are arbitrary snapshot values; callers may inject transient fields (an
// override reason, a resolution code) into the After map before recording.
type Entry struct {
	Actor         *uuid.UUID
	EntityType    string
	EntityID      *uuid.UUID
	Action        string
	Before        any
	After         any
	Source        string
	CorrelationID string
}

// Recorder writes audit entries through a store transaction.
type Recorder struct {
	now func() time.Time
}

// NewRecorder returns a Recorder stamping entries with the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// NewRecorderAt returns a Recorder with an injected clock, for tests.
func NewRecorderAt(now func() time.Time) *Recorder {
	return &Recorder{now: now}
}

// Record serializes the snapshots and appends one row via tx. The caller's
// transaction carries the append, so failure here aborts the mutation.
func (r *Recorder) Record(tx store.Tx, e Entry) error {
	before, err := marshalSnapshot(e.Before)
	if err != nil {
		return fmt.Errorf("serialize before snapshot: %w", err)
	}
	after, err := marshalSnapshot(e.After)
	if err != nil {
		return fmt.Errorf("serialize after snapshot: %w", err)
	}
	source := e.Source
	if source == "" {
		source = "web"
	}
	return tx.AppendAudit(&model.AuditLogEntry{
		ID:            uuid.New(),
		ActorID:       e.Actor,
		Timestamp:     r.now().UTC(),
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		Action:        e.Action,
		BeforeJSON:    before,
		AfterJSON:     after,
		Source:        source,
		CorrelationID: e.CorrelationID,
	})
}

// Snapshot returns a deep, point-in-time copy of v as a generic map.
// Later mutation of v cannot alter the copy. A nil v yields nil.
func Snapshot(v any) map[string]any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func marshalSnapshot(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
