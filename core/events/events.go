// Package events defines the messages fanned out to live-view clients.
// Delivery is best-effort: events are emitted only after the mutation has
// committed, and clients must tolerate reordering or loss.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
)

// Recognized event types.
const (
	TypeJobCreated     = "job.created"
	TypeJobUpdated     = "job.updated"
	TypeDriverUpdated  = "driver.updated"
	TypeVehicleUpdated = "vehicle.updated"
	TypeOpsRefresh     = "ops.refresh"
)

// Event is one message on the subscriber stream.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Publisher fans out events to connected subscribers. Implemented by the
// realtime hub; broadcast failures never reach the mutation caller.
type Publisher interface {
	Broadcast(Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Broadcast(Event) {}

func isoTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// JobCreated announces a job created by the webhook reconciler.
func JobCreated(j *model.Job, source string) Event {
	return jobEvent(TypeJobCreated, j, source)
}

// JobUpdated announces any job mutation.
func JobUpdated(j *model.Job, source string) Event {
	return jobEvent(TypeJobUpdated, j, source)
}

func jobEvent(typ string, j *model.Job, source string) Event {
	payload := map[string]any{
		"id":             j.ID.String(),
		"job_code":       j.JobCode,
		"status":         string(j.Status),
		"last_update_at": isoTime(j.LastUpdateAt),
	}
	if source != "" {
		payload["source"] = source
	}
	return Event{Type: typ, Payload: payload}
}

// DriverUpdated carries the driver's new status after an assignment
// touched the driver slot. A cleared slot reports a null id and off_duty.
func DriverUpdated(driverID *uuid.UUID, jobID uuid.UUID, at time.Time) Event {
	var id any
	status := string(model.DriverOffDuty)
	if driverID != nil {
		id = driverID.String()
		status = string(model.DriverOnJob)
	}
	return Event{Type: TypeDriverUpdated, Payload: map[string]any{
		"id":             id,
		"status":         status,
		"job_id":         jobID.String(),
		"last_update_at": isoTime(at),
	}}
}

// VehicleUpdated is the vehicle-slot counterpart of DriverUpdated.
func VehicleUpdated(vehicleID *uuid.UUID, jobID uuid.UUID, at time.Time) Event {
	var id any
	status := string(model.VehicleAvailable)
	if vehicleID != nil {
		id = vehicleID.String()
		status = string(model.VehicleInUse)
	}
	return Event{Type: TypeVehicleUpdated, Payload: map[string]any{
		"id":             id,
		"status":         status,
		"job_id":         jobID.String(),
		"last_update_at": isoTime(at),
	}}
}

// OpsRefresh is the generic "something changed, refresh your view" event.
func OpsRefresh(entity, action string, id uuid.UUID, at time.Time, source string) Event {
	payload := map[string]any{
		"entity":         entity,
		"action":         action,
		"id":             id.String(),
		"last_update_at": isoTime(at),
	}
	if source != "" {
		payload["source"] = source
	}
	return Event{Type: TypeOpsRefresh, Payload: payload}
}
