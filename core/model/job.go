package model

import (
	"time"

	"github.com/google/uuid"
)

// Job is a logistics job tracked by the dispatch core. DriverID and
// VehicleID are weak references: nullable, and cleared rather than
// cascading when the referent disappears.
type Job struct {
	ID              uuid.UUID   `json:"id"`
	JobCode         string      `json:"job_code"`
	Priority        JobPriority `json:"priority"`
	Customer        string      `json:"customer"`
	PickupSite      string      `json:"pickup_site,omitempty"`
	DropSite        string      `json:"drop_site,omitempty"`
	ScheduledAt     *time.Time  `json:"scheduled_at,omitempty"`
	ETAAt           *time.Time  `json:"eta_at,omitempty"`
	Status          JobStatus   `json:"status"`
	SLAMinutesTotal int         `json:"sla_minutes_total"`
	SLAStartedAt    *time.Time  `json:"sla_started_at,omitempty"`
	DriverID        *uuid.UUID  `json:"driver_id,omitempty"`
	VehicleID       *uuid.UUID  `json:"vehicle_id,omitempty"`
	Exceptions      string      `json:"exceptions,omitempty"`
	LastUpdateAt    time.Time   `json:"last_update_at"`
	CreatedAt       time.Time   `json:"created_at"`
}

// DefaultSLAMinutes is applied to jobs created without an explicit SLA.
const DefaultSLAMinutes = 240
