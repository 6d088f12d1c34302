package dispatch

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/audit"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

// AckAlert marks an alert acknowledged and records the transition.
func (e *Engine) AckAlert(ctx context.Context, alertID uuid.UUID, actor *uuid.UUID) (*model.Alert, error) {
	return e.transitionAlert(ctx, alertID, actor, model.AlertAcknowledged, "alert.ack", "")
}

// ResolveAlert closes an alert. The reason code is kept in the audit
// after-snapshot only; it is not a persisted alert field.
func (e *Engine) ResolveAlert(ctx context.Context, alertID uuid.UUID, reason string, actor *uuid.UUID) (*model.Alert, error) {
	if reason == "" {
		reason = "resolved"
	}
	return e.transitionAlert(ctx, alertID, actor, model.AlertResolved, "alert.resolve", reason)
}

func (e *Engine) transitionAlert(ctx context.Context, alertID uuid.UUID, actor *uuid.UUID, to model.AlertStatus, action, reason string) (*model.Alert, error) {
	var out *model.Alert
	err := e.store.Update(ctx, func(tx store.Tx) error {
		a, err := tx.AlertByID(alertID)
		if err != nil {
			return err
		}
		if a == nil {
			return &NotFoundError{Entity: "alert", ID: alertID.String()}
		}
		before := audit.Snapshot(a)
		a.Status = to
		if err := tx.PutAlert(a); err != nil {
			return err
		}
		after := audit.Snapshot(a)
		if reason != "" {
			after["reason_code"] = reason
		}
		if err := e.audit.Record(tx, audit.Entry{
			Actor:      actor,
			EntityType: "alert",
			EntityID:   &a.ID,
			Action:     action,
			Before:     before,
			After:      after,
		}); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.sink.RecordMutation("alert", action)
	return out, nil
}
