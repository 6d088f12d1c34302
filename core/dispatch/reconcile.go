package dispatch

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/audit"
	"github.com/fleetops/dispatchd/core/events"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

// ReconcileResult reports what the upsert did.
type ReconcileResult struct {
	Created bool       `json:"created"`
	Job     *model.Job `json:"job"`
}

// Reconcile is the idempotent create-or-merge of a job from an external
// event, keyed by job code. Only fields present in the payload are
// applied; driver/vehicle references are touched only when explicitly
// present, with null clearing the slot. This path carries external data
// entry and is not compliance-gated.
func (e *Engine) Reconcile(ctx context.Context, p *JobFeedPayload, actor *uuid.UUID, source string) (*ReconcileResult, error) {
	var (
		res ReconcileResult
		evs []events.Event
	)
	err := e.store.Update(ctx, func(tx store.Tx) error {
		j, err := tx.JobByCode(p.JobCode)
		if err != nil {
			return err
		}
		created := j == nil
		now := e.now().UTC()

		// Declared as any so the create path records a truly empty before
		// snapshot rather than a serialized null.
		var before any
		if created {
			j = &model.Job{
				ID:              uuid.New(),
				JobCode:         p.JobCode,
				Customer:        "Unknown",
				Priority:        model.PriorityNormal,
				Status:          model.JobUnassigned,
				SLAMinutesTotal: model.DefaultSLAMinutes,
				CreatedAt:       now,
			}
		} else {
			before = audit.Snapshot(j)
		}

		if p.Customer != nil {
			j.Customer = *p.Customer
		}
		if p.Priority != nil {
			j.Priority = *p.Priority
		}
		if p.Status != nil {
			j.Status = *p.Status
		}
		if p.PickupSite != nil {
			j.PickupSite = *p.PickupSite
		}
		if p.DropSite != nil {
			j.DropSite = *p.DropSite
		}
		if p.Exceptions != nil {
			j.Exceptions = *p.Exceptions
		}
		if p.DriverSet {
			j.DriverID = p.DriverID
		}
		if p.VehicleSet {
			j.VehicleID = p.VehicleID
		}

		// Mirror of the assignment default-advance rule, applied without
		// compliance gating on this path.
		if p.Status == nil && j.Status == model.JobUnassigned && (j.DriverID != nil || j.VehicleID != nil) {
			j.Status = model.JobAssigned
		}
		j.LastUpdateAt = now

		if created {
			if err := tx.InsertJob(j); err != nil {
				return err
			}
		} else if err := tx.PutJob(j); err != nil {
			return err
		}

		action := "job.updated"
		if created {
			action = "job.created"
		}
		if err := e.audit.Record(tx, audit.Entry{
			Actor:      actor,
			EntityType: "job",
			EntityID:   &j.ID,
			Action:     action,
			Before:     before,
			After:      audit.Snapshot(j),
			Source:     source,
		}); err != nil {
			return err
		}

		res = ReconcileResult{Created: created, Job: j}
		if created {
			evs = append(evs, events.JobCreated(j, source))
		} else {
			evs = append(evs, events.JobUpdated(j, source))
		}
		if p.DriverSet {
			evs = append(evs, events.DriverUpdated(j.DriverID, j.ID, j.LastUpdateAt))
		}
		if p.VehicleSet {
			evs = append(evs, events.VehicleUpdated(j.VehicleID, j.ID, j.LastUpdateAt))
		}
		refreshAction := "updated"
		if created {
			refreshAction = "created"
		}
		evs = append(evs, events.OpsRefresh("job", refreshAction, j.ID, j.LastUpdateAt, source))
		return nil
	})
	if err != nil {
		return nil, err
	}
	action := "job.updated"
	if res.Created {
		action = "job.created"
	}
	e.sink.RecordMutation("job", action)
	e.broadcast(evs)
	return &res, nil
}
