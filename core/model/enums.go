package model

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobUnassigned JobStatus = "unassigned"
	JobAssigned   JobStatus = "assigned"
	JobInProgress JobStatus = "in_progress"
	JobLate       JobStatus = "late"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// ParseJobStatus reports whether s is a recognized job status.
func ParseJobStatus(s string) (JobStatus, bool) {
	switch JobStatus(s) {
	case JobUnassigned, JobAssigned, JobInProgress, JobLate, JobCompleted, JobFailed, JobCancelled:
		return JobStatus(s), true
	default:
		return "", false
	}
}

// JobPriority orders jobs for the ops board.
type JobPriority string

const (
	PriorityLow      JobPriority = "low"
	PriorityNormal   JobPriority = "normal"
	PriorityHigh     JobPriority = "high"
	PriorityCritical JobPriority = "critical"
)

// ParseJobPriority reports whether s is a recognized priority.
func ParseJobPriority(s string) (JobPriority, bool) {
	switch JobPriority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return JobPriority(s), true
	default:
		return "", false
	}
}

// DriverStatus is the duty state of a driver.
type DriverStatus string

const (
	DriverOnDuty  DriverStatus = "on_duty"
	DriverOnJob   DriverStatus = "on_job"
	DriverIdle    DriverStatus = "idle"
	DriverOffDuty DriverStatus = "off_duty"
)

// VehicleStatus is the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable    VehicleStatus = "available"
	VehicleInUse        VehicleStatus = "in_use"
	VehicleDueService   VehicleStatus = "due_service"
	VehicleOutOfService VehicleStatus = "out_of_service"
)

// ComplianceState gates whether an entity may be assigned to a job.
type ComplianceState string

const (
	ComplianceOK      ComplianceState = "ok"
	ComplianceBlocked ComplianceState = "blocked"
)

// AlertStatus is the triage state of an alert.
type AlertStatus string

const (
	AlertOpen         AlertStatus = "open"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// AlertSeverity ranks alerts.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)
