package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
)

// MemoryStore keeps all records in process memory. It backs unit tests and
// single-node development setups; production uses the sqlite store in
// infra/sqlite. Transactions stage their writes and apply them only when
// the closure returns nil, so a failing mutation leaves no trace.
type MemoryStore struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]model.Job
	jobCodes map[string]uuid.UUID
	drivers  map[uuid.UUID]model.Driver
	vehicles map[uuid.UUID]model.Vehicle
	alerts   map[uuid.UUID]model.Alert
	audit    []model.AuditLogEntry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     map[uuid.UUID]model.Job{},
		jobCodes: map[string]uuid.UUID{},
		drivers:  map[uuid.UUID]model.Driver{},
		vehicles: map[uuid.UUID]model.Vehicle{},
		alerts:   map[uuid.UUID]model.Alert{},
	}
}

// Update runs fn in a staged transaction. The store lock is held for the
// whole call, so memory transactions are fully serialized.
func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newMemTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

// View runs fn against the current state. Writes staged by fn are discarded.
func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(newMemTx(s))
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error { return nil }

// Seed inserts records directly, bypassing the transaction path. Intended
// for tests and development bootstrap.
func (s *MemoryStore) Seed(jobs []model.Job, drivers []model.Driver, vehicles []model.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		s.jobs[j.ID] = j
		s.jobCodes[j.JobCode] = j.ID
	}
	for _, d := range drivers {
		s.drivers[d.ID] = d
	}
	for _, v := range vehicles {
		s.vehicles[v.ID] = v
	}
}

// SeedAlerts inserts alerts directly, bypassing the transaction path.
func (s *MemoryStore) SeedAlerts(alerts []model.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range alerts {
		s.alerts[a.ID] = a
	}
}

type memTx struct {
	base *MemoryStore

	jobs     map[uuid.UUID]model.Job
	jobCodes map[string]uuid.UUID
	drivers  map[uuid.UUID]model.Driver
	vehicles map[uuid.UUID]model.Vehicle
	alerts   map[uuid.UUID]model.Alert
	audit    []model.AuditLogEntry
}

func newMemTx(s *MemoryStore) *memTx {
	return &memTx{
		base:     s,
		jobs:     map[uuid.UUID]model.Job{},
		jobCodes: map[string]uuid.UUID{},
		drivers:  map[uuid.UUID]model.Driver{},
		vehicles: map[uuid.UUID]model.Vehicle{},
		alerts:   map[uuid.UUID]model.Alert{},
	}
}

func (t *memTx) apply() {
	for id, j := range t.jobs {
		t.base.jobs[id] = j
		t.base.jobCodes[j.JobCode] = id
	}
	for id, d := range t.drivers {
		t.base.drivers[id] = d
	}
	for id, v := range t.vehicles {
		t.base.vehicles[id] = v
	}
	for id, a := range t.alerts {
		t.base.alerts[id] = a
	}
	t.base.audit = append(t.base.audit, t.audit...)
}

func (t *memTx) JobByID(id uuid.UUID) (*model.Job, error) {
	if j, ok := t.jobs[id]; ok {
		return &j, nil
	}
	if j, ok := t.base.jobs[id]; ok {
		return &j, nil
	}
	return nil, nil
}

func (t *memTx) JobByCode(code string) (*model.Job, error) {
	if id, ok := t.jobCodes[code]; ok {
		j := t.jobs[id]
		return &j, nil
	}
	if id, ok := t.base.jobCodes[code]; ok {
		return t.JobByID(id)
	}
	return nil, nil
}

func (t *memTx) DriverByID(id uuid.UUID) (*model.Driver, error) {
	if d, ok := t.drivers[id]; ok {
		return &d, nil
	}
	if d, ok := t.base.drivers[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (t *memTx) VehicleByID(id uuid.UUID) (*model.Vehicle, error) {
	if v, ok := t.vehicles[id]; ok {
		return &v, nil
	}
	if v, ok := t.base.vehicles[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (t *memTx) AlertByID(id uuid.UUID) (*model.Alert, error) {
	if a, ok := t.alerts[id]; ok {
		return &a, nil
	}
	if a, ok := t.base.alerts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (t *memTx) InsertJob(j *model.Job) error {
	if _, ok := t.jobCodes[j.JobCode]; ok {
		return &DuplicateJobCodeError{Code: j.JobCode}
	}
	if _, ok := t.base.jobCodes[j.JobCode]; ok {
		return &DuplicateJobCodeError{Code: j.JobCode}
	}
	t.jobs[j.ID] = *j
	t.jobCodes[j.JobCode] = j.ID
	return nil
}

func (t *memTx) PutJob(j *model.Job) error {
	t.jobs[j.ID] = *j
	t.jobCodes[j.JobCode] = j.ID
	return nil
}

func (t *memTx) PutDriver(d *model.Driver) error {
	t.drivers[d.ID] = *d
	return nil
}

func (t *memTx) PutVehicle(v *model.Vehicle) error {
	t.vehicles[v.ID] = *v
	return nil
}

func (t *memTx) PutAlert(a *model.Alert) error {
	t.alerts[a.ID] = *a
	return nil
}

func (t *memTx) AppendAudit(e *model.AuditLogEntry) error {
	t.audit = append(t.audit, *e)
	return nil
}

func (t *memTx) Jobs() ([]model.Job, error) {
	res := make([]model.Job, 0, len(t.base.jobs)+len(t.jobs))
	for id, j := range t.base.jobs {
		if staged, ok := t.jobs[id]; ok {
			j = staged
		}
		res = append(res, j)
	}
	for id, j := range t.jobs {
		if _, ok := t.base.jobs[id]; !ok {
			res = append(res, j)
		}
	}
	return res, nil
}

func (t *memTx) Drivers() ([]model.Driver, error) {
	res := make([]model.Driver, 0, len(t.base.drivers))
	for id, d := range t.base.drivers {
		if staged, ok := t.drivers[id]; ok {
			d = staged
		}
		res = append(res, d)
	}
	for id, d := range t.drivers {
		if _, ok := t.base.drivers[id]; !ok {
			res = append(res, d)
		}
	}
	return res, nil
}

func (t *memTx) Vehicles() ([]model.Vehicle, error) {
	res := make([]model.Vehicle, 0, len(t.base.vehicles))
	for id, v := range t.base.vehicles {
		if staged, ok := t.vehicles[id]; ok {
			v = staged
		}
		res = append(res, v)
	}
	for id, v := range t.vehicles {
		if _, ok := t.base.vehicles[id]; !ok {
			res = append(res, v)
		}
	}
	return res, nil
}

func (t *memTx) Alerts() ([]model.Alert, error) {
	res := make([]model.Alert, 0, len(t.base.alerts))
	for id, a := range t.base.alerts {
		if staged, ok := t.alerts[id]; ok {
			a = staged
		}
		res = append(res, a)
	}
	for id, a := range t.alerts {
		if _, ok := t.base.alerts[id]; !ok {
			res = append(res, a)
		}
	}
	return res, nil
}

func (t *memTx) AuditEntries(limit int) ([]model.AuditLogEntry, error) {
	all := make([]model.AuditLogEntry, 0, len(t.base.audit)+len(t.audit))
	all = append(all, t.base.audit...)
	all = append(all, t.audit...)
	// newest first
	res := make([]model.AuditLogEntry, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		res = append(res, all[i])
		if limit > 0 && len(res) == limit {
			break
		}
	}
	return res, nil
}
