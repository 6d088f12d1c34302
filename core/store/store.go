// Package store defines the persistence gateway for the dispatch core.
// Every mutating operation runs inside one Update call; the transaction
// is the sole concurrency-correctness mechanism for entity state.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
)

// Tx is one transactional view of the store. Lookup methods return
// (nil, nil) when the record does not exist. Put methods replace the
// full record. AppendAudit participates in the same transaction as the
// entity writes, so an audit failure aborts the whole mutation.
type Tx interface {
	JobByID(id uuid.UUID) (*model.Job, error)
	JobByCode(code string) (*model.Job, error)
	DriverByID(id uuid.UUID) (*model.Driver, error)
	VehicleByID(id uuid.UUID) (*model.Vehicle, error)
	AlertByID(id uuid.UUID) (*model.Alert, error)

	InsertJob(j *model.Job) error
	PutJob(j *model.Job) error
	PutDriver(d *model.Driver) error
	PutVehicle(v *model.Vehicle) error
	PutAlert(a *model.Alert) error
	AppendAudit(e *model.AuditLogEntry) error

	Jobs() ([]model.Job, error)
	Drivers() ([]model.Driver, error)
	Vehicles() ([]model.Vehicle, error)
	Alerts() ([]model.Alert, error)
	AuditEntries(limit int) ([]model.AuditLogEntry, error)
}

// Store opens transactions. Update commits all writes atomically or none;
// View is a read-only convenience with the same isolation.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// DuplicateJobCodeError is returned by InsertJob when the job code is
// already in use.
type DuplicateJobCodeError struct {
	Code string
}

func (e *DuplicateJobCodeError) Error() string {
	return fmt.Sprintf("job code %q already exists", e.Code)
}
