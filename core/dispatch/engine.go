// Package dispatch implements the assignment engine, the generic status
// transition and the webhook reconciler. Each operation runs its reads,
// compliance check, writes and audit append inside one store transaction,
// then broadcasts events only after the transaction has committed.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/audit"
	"github.com/fleetops/dispatchd/core/compliance"
	"github.com/fleetops/dispatchd/core/events"
	"github.com/fleetops/dispatchd/core/logger"
	"github.com/fleetops/dispatchd/core/metrics"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

// Engine orchestrates job mutations against the persistence gateway.
type Engine struct {
	store store.Store
	audit *audit.Recorder
	hub   events.Publisher
	log   logger.Logger
	sink  metrics.Sink
	now   func() time.Time
}

// NewEngine wires the engine. A nil hub, logger or sink falls back to the
// no-op implementation.
func NewEngine(st store.Store, hub events.Publisher, log logger.Logger, sink metrics.Sink) *Engine {
	if hub == nil {
		hub = events.NopPublisher{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{
		store: st,
		audit: audit.NewRecorder(),
		hub:   hub,
		log:   log,
		sink:  sink,
		now:   time.Now,
	}
}

// SetClock injects the engine clock. Tests use it to pin timestamps.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// AssignRequest carries one assignment mutation. DriverID and VehicleID
// are applied as given: nil clears the slot. Actor is optional until auth
// lands; Source tags the audit row.
type AssignRequest struct {
	JobID          uuid.UUID
	DriverID       *uuid.UUID
	VehicleID      *uuid.UUID
	Actor          *uuid.UUID
	Override       bool
	OverrideReason string
	Source         string
}

// Assign sets the job's driver/vehicle references, advances an unassigned
// job to assigned when at least one slot is filled, marks the assigned
// driver on_job and vehicle in_use, and records one audit row. All writes
// commit atomically; a compliance block leaves state untouched.
func (e *Engine) Assign(ctx context.Context, req AssignRequest) (*model.Job, error) {
	var (
		job    *model.Job
		evs    []events.Event
		action string
	)
	err := e.store.Update(ctx, func(tx store.Tx) error {
		j, err := tx.JobByID(req.JobID)
		if err != nil {
			return err
		}
		if j == nil {
			return &NotFoundError{Entity: "job", ID: req.JobID.String()}
		}
		before := audit.Snapshot(j)

		// A dangling id is tolerated: the slot is cleared instead of
		// failing, matching best-effort external data.
		var drv *model.Driver
		var veh *model.Vehicle
		driverID, vehicleID := req.DriverID, req.VehicleID
		if req.DriverID != nil {
			if drv, err = tx.DriverByID(*req.DriverID); err != nil {
				return err
			}
			if drv == nil {
				driverID = nil
			}
		}
		if req.VehicleID != nil {
			if veh, err = tx.VehicleByID(*req.VehicleID); err != nil {
				return err
			}
			if veh == nil {
				vehicleID = nil
			}
		}
		if err := compliance.Check(drv, veh, req.Override); err != nil {
			return err
		}

		now := e.now().UTC()
		j.DriverID = driverID
		j.VehicleID = vehicleID
		if j.Status == model.JobUnassigned && (driverID != nil || vehicleID != nil) {
			j.Status = model.JobAssigned
		}
		j.LastUpdateAt = now
		if err := tx.PutJob(j); err != nil {
			return err
		}
		if drv != nil {
			drv.Status = model.DriverOnJob
			drv.LastUpdateAt = now
			if err := tx.PutDriver(drv); err != nil {
				return err
			}
		}
		if veh != nil {
			veh.Status = model.VehicleInUse
			veh.LastUpdateAt = now
			if err := tx.PutVehicle(veh); err != nil {
				return err
			}
		}

		action = "job.assign"
		after := audit.Snapshot(j)
		if req.Override {
			action = "job.assign_override"
			after["override_reason"] = req.OverrideReason
		}
		if err := e.audit.Record(tx, audit.Entry{
			Actor:      req.Actor,
			EntityType: "job",
			EntityID:   &j.ID,
			Action:     action,
			Before:     before,
			After:      after,
			Source:     req.Source,
		}); err != nil {
			return err
		}

		job = j
		evs = []events.Event{
			events.JobUpdated(j, ""),
			events.DriverUpdated(j.DriverID, j.ID, j.LastUpdateAt),
			events.VehicleUpdated(j.VehicleID, j.ID, j.LastUpdateAt),
			events.OpsRefresh("job", "assigned", j.ID, j.LastUpdateAt, ""),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.sink.RecordMutation("job", action)
	e.broadcast(evs)
	return job, nil
}

// SetStatus transitions a job to any recognized status. No state-machine
// guard is applied beyond enum validity.
func (e *Engine) SetStatus(ctx context.Context, jobID uuid.UUID, newStatus string, actor *uuid.UUID, source string) (*model.Job, error) {
	st, ok := model.ParseJobStatus(newStatus)
	if !ok {
		return nil, &ValidationError{Field: "status", Reason: "unrecognized status " + newStatus}
	}
	var (
		job *model.Job
		evs []events.Event
	)
	err := e.store.Update(ctx, func(tx store.Tx) error {
		j, err := tx.JobByID(jobID)
		if err != nil {
			return err
		}
		if j == nil {
			return &NotFoundError{Entity: "job", ID: jobID.String()}
		}
		before := audit.Snapshot(j)
		j.Status = st
		j.LastUpdateAt = e.now().UTC()
		if err := tx.PutJob(j); err != nil {
			return err
		}
		if err := e.audit.Record(tx, audit.Entry{
			Actor:      actor,
			EntityType: "job",
			EntityID:   &j.ID,
			Action:     "job.status_change",
			Before:     before,
			After:      audit.Snapshot(j),
			Source:     source,
		}); err != nil {
			return err
		}
		job = j
		evs = []events.Event{
			events.JobUpdated(j, ""),
			events.OpsRefresh("job", "status_changed", j.ID, j.LastUpdateAt, ""),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.sink.RecordMutation("job", "job.status_change")
	e.broadcast(evs)
	return job, nil
}

func (e *Engine) broadcast(evs []events.Event) {
	for _, ev := range evs {
		e.hub.Broadcast(ev)
	}
}
