package model

import (
	"time"

	"github.com/google/uuid"
)

// Driver is an independently owned aggregate; jobs hold only a reference.
type Driver struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	StaffID         string          `json:"staff_id,omitempty"`
	Depot           string          `json:"depot,omitempty"`
	Region          string          `json:"region,omitempty"`
	Status          DriverStatus    `json:"status"`
	HoursToday      int             `json:"hours_today"`
	HoursWeek       int             `json:"hours_week"`
	ComplianceState ComplianceState `json:"compliance_state"`
	LastUpdateAt    time.Time       `json:"last_update_at"`
}

// Vehicle is an independently owned aggregate; jobs hold only a reference.
type Vehicle struct {
	ID              uuid.UUID       `json:"id"`
	Registration    string          `json:"registration"`
	FleetID         string          `json:"fleet_id,omitempty"`
	VehicleClass    string          `json:"vehicle_class,omitempty"`
	Depot           string          `json:"depot,omitempty"`
	Region          string          `json:"region,omitempty"`
	Status          VehicleStatus   `json:"status"`
	NextServiceDate *time.Time      `json:"next_service_date,omitempty"`
	FaultsOpen      int             `json:"faults_open"`
	ComplianceState ComplianceState `json:"compliance_state"`
	LastUpdateAt    time.Time       `json:"last_update_at"`
}
