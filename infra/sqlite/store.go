// Package sqlite persists dispatch records in a SQLite database. One
// sql.Tx backs each Store.Update call, giving the all-or-nothing
// transaction boundary the dispatch core relies on.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	job_code TEXT NOT NULL UNIQUE,
	priority TEXT NOT NULL,
	customer TEXT NOT NULL,
	pickup_site TEXT NOT NULL DEFAULT '',
	drop_site TEXT NOT NULL DEFAULT '',
	scheduled_at TEXT,
	eta_at TEXT,
	status TEXT NOT NULL,
	sla_minutes_total INTEGER NOT NULL,
	sla_started_at TEXT,
	driver_id TEXT,
	vehicle_id TEXT,
	exceptions TEXT NOT NULL DEFAULT '',
	last_update_at TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS drivers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	staff_id TEXT NOT NULL DEFAULT '',
	depot TEXT NOT NULL DEFAULT '',
	region TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	hours_today INTEGER NOT NULL DEFAULT 0,
	hours_week INTEGER NOT NULL DEFAULT 0,
	compliance_state TEXT NOT NULL,
	last_update_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS vehicles (
	id TEXT PRIMARY KEY,
	registration TEXT NOT NULL,
	fleet_id TEXT NOT NULL DEFAULT '',
	vehicle_class TEXT NOT NULL DEFAULT '',
	depot TEXT NOT NULL DEFAULT '',
	region TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	next_service_date TEXT,
	faults_open INTEGER NOT NULL DEFAULT 0,
	compliance_state TEXT NOT NULL,
	last_update_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	severity TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	created_at TEXT NOT NULL,
	due_by TEXT
);
CREATE TABLE IF NOT EXISTS audit_log_entries (
	id TEXT PRIMARY KEY,
	actor_id TEXT,
	ts TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT,
	action TEXT NOT NULL,
	before_json TEXT NOT NULL DEFAULT '',
	after_json TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	correlation_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log_entries(ts);
`

// Store is the sqlite-backed persistence gateway.
type Store struct {
	db *sql.DB
}

// New opens or creates the database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY between concurrent Update calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &Store{db: db}, nil
}

// Update runs fn inside one transaction.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&sqlTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// View runs fn inside a transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&sqlTx{tx: tx})
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

type sqlTx struct {
	tx *sql.Tx
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func fmtIDPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseIDPtr(ns sql.NullString) (*uuid.UUID, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(ns.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

const jobCols = `id, job_code, priority, customer, pickup_site, drop_site,
	scheduled_at, eta_at, status, sla_minutes_total, sla_started_at,
	driver_id, vehicle_id, exceptions, last_update_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (*model.Job, error) {
	var (
		j                                  model.Job
		id                                 string
		scheduledAt, etaAt, slaStartedAt   sql.NullString
		driverID, vehicleID                sql.NullString
		lastUpdateAt, createdAt            string
	)
	err := r.Scan(&id, &j.JobCode, &j.Priority, &j.Customer, &j.PickupSite,
		&j.DropSite, &scheduledAt, &etaAt, &j.Status, &j.SLAMinutesTotal,
		&slaStartedAt, &driverID, &vehicleID, &j.Exceptions, &lastUpdateAt,
		&createdAt)
	if err != nil {
		return nil, err
	}
	if j.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if j.ScheduledAt, err = parseTimePtr(scheduledAt); err != nil {
		return nil, err
	}
	if j.ETAAt, err = parseTimePtr(etaAt); err != nil {
		return nil, err
	}
	if j.SLAStartedAt, err = parseTimePtr(slaStartedAt); err != nil {
		return nil, err
	}
	if j.DriverID, err = parseIDPtr(driverID); err != nil {
		return nil, err
	}
	if j.VehicleID, err = parseIDPtr(vehicleID); err != nil {
		return nil, err
	}
	if j.LastUpdateAt, err = parseTime(lastUpdateAt); err != nil {
		return nil, err
	}
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &j, nil
}

func (t *sqlTx) jobBy(where string, arg any) (*model.Job, error) {
	row := t.tx.QueryRow(`SELECT `+jobCols+` FROM jobs WHERE `+where, arg)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (t *sqlTx) JobByID(id uuid.UUID) (*model.Job, error) {
	return t.jobBy("id = ?", id.String())
}

func (t *sqlTx) JobByCode(code string) (*model.Job, error) {
	return t.jobBy("job_code = ?", code)
}

func jobArgs(j *model.Job) []any {
	return []any{
		j.ID.String(), j.JobCode, string(j.Priority), j.Customer,
		j.PickupSite, j.DropSite, fmtTimePtr(j.ScheduledAt),
		fmtTimePtr(j.ETAAt), string(j.Status), j.SLAMinutesTotal,
		fmtTimePtr(j.SLAStartedAt), fmtIDPtr(j.DriverID),
		fmtIDPtr(j.VehicleID), j.Exceptions, fmtTime(j.LastUpdateAt),
		fmtTime(j.CreatedAt),
	}
}

const jobPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

func (t *sqlTx) InsertJob(j *model.Job) error {
	_, err := t.tx.Exec(`INSERT INTO jobs (`+jobCols+`) VALUES (`+jobPlaceholders+`)`,
		jobArgs(j)...)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return &store.DuplicateJobCodeError{Code: j.JobCode}
	}
	return err
}

func (t *sqlTx) PutJob(j *model.Job) error {
	_, err := t.tx.Exec(`INSERT INTO jobs (`+jobCols+`) VALUES (`+jobPlaceholders+`)
		ON CONFLICT(id) DO UPDATE SET
			job_code = excluded.job_code,
			priority = excluded.priority,
			customer = excluded.customer,
			pickup_site = excluded.pickup_site,
			drop_site = excluded.drop_site,
			scheduled_at = excluded.scheduled_at,
			eta_at = excluded.eta_at,
			status = excluded.status,
			sla_minutes_total = excluded.sla_minutes_total,
			sla_started_at = excluded.sla_started_at,
			driver_id = excluded.driver_id,
			vehicle_id = excluded.vehicle_id,
			exceptions = excluded.exceptions,
			last_update_at = excluded.last_update_at,
			created_at = excluded.created_at`,
		jobArgs(j)...)
	return err
}

func (t *sqlTx) Jobs() ([]model.Job, error) {
	rows, err := t.tx.Query(`SELECT ` + jobCols + ` FROM jobs ORDER BY last_update_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *j)
	}
	return res, rows.Err()
}

const driverCols = `id, name, staff_id, depot, region, status, hours_today,
	hours_week, compliance_state, last_update_at`

func scanDriver(r rowScanner) (*model.Driver, error) {
	var (
		d            model.Driver
		id           string
		lastUpdateAt string
	)
	err := r.Scan(&id, &d.Name, &d.StaffID, &d.Depot, &d.Region, &d.Status,
		&d.HoursToday, &d.HoursWeek, &d.ComplianceState, &lastUpdateAt)
	if err != nil {
		return nil, err
	}
	if d.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if d.LastUpdateAt, err = parseTime(lastUpdateAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (t *sqlTx) DriverByID(id uuid.UUID) (*model.Driver, error) {
	row := t.tx.QueryRow(`SELECT `+driverCols+` FROM drivers WHERE id = ?`, id.String())
	d, err := scanDriver(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (t *sqlTx) PutDriver(d *model.Driver) error {
	_, err := t.tx.Exec(`INSERT INTO drivers (`+driverCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			staff_id = excluded.staff_id,
			depot = excluded.depot,
			region = excluded.region,
			status = excluded.status,
			hours_today = excluded.hours_today,
			hours_week = excluded.hours_week,
			compliance_state = excluded.compliance_state,
			last_update_at = excluded.last_update_at`,
		d.ID.String(), d.Name, d.StaffID, d.Depot, d.Region, string(d.Status),
		d.HoursToday, d.HoursWeek, string(d.ComplianceState), fmtTime(d.LastUpdateAt))
	return err
}

func (t *sqlTx) Drivers() ([]model.Driver, error) {
	rows, err := t.tx.Query(`SELECT ` + driverCols + ` FROM drivers ORDER BY last_update_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *d)
	}
	return res, rows.Err()
}

const vehicleCols = `id, registration, fleet_id, vehicle_class, depot, region,
	status, next_service_date, faults_open, compliance_state, last_update_at`

func scanVehicle(r rowScanner) (*model.Vehicle, error) {
	var (
		v               model.Vehicle
		id              string
		nextServiceDate sql.NullString
		lastUpdateAt    string
	)
	err := r.Scan(&id, &v.Registration, &v.FleetID, &v.VehicleClass, &v.Depot,
		&v.Region, &v.Status, &nextServiceDate, &v.FaultsOpen,
		&v.ComplianceState, &lastUpdateAt)
	if err != nil {
		return nil, err
	}
	if v.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if v.NextServiceDate, err = parseTimePtr(nextServiceDate); err != nil {
		return nil, err
	}
	if v.LastUpdateAt, err = parseTime(lastUpdateAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (t *sqlTx) VehicleByID(id uuid.UUID) (*model.Vehicle, error) {
	row := t.tx.QueryRow(`SELECT `+vehicleCols+` FROM vehicles WHERE id = ?`, id.String())
	v, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (t *sqlTx) PutVehicle(v *model.Vehicle) error {
	_, err := t.tx.Exec(`INSERT INTO vehicles (`+vehicleCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			registration = excluded.registration,
			fleet_id = excluded.fleet_id,
			vehicle_class = excluded.vehicle_class,
			depot = excluded.depot,
			region = excluded.region,
			status = excluded.status,
			next_service_date = excluded.next_service_date,
			faults_open = excluded.faults_open,
			compliance_state = excluded.compliance_state,
			last_update_at = excluded.last_update_at`,
		v.ID.String(), v.Registration, v.FleetID, v.VehicleClass, v.Depot,
		v.Region, string(v.Status), fmtTimePtr(v.NextServiceDate),
		v.FaultsOpen, string(v.ComplianceState), fmtTime(v.LastUpdateAt))
	return err
}

func (t *sqlTx) Vehicles() ([]model.Vehicle, error) {
	rows, err := t.tx.Query(`SELECT ` + vehicleCols + ` FROM vehicles ORDER BY last_update_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *v)
	}
	return res, rows.Err()
}

const alertCols = `id, severity, alert_type, entity_type, entity_id,
	description, status, created_at, due_by`

func scanAlert(r rowScanner) (*model.Alert, error) {
	var (
		a               model.Alert
		id              string
		entityID, dueBy sql.NullString
		createdAt       string
	)
	err := r.Scan(&id, &a.Severity, &a.AlertType, &a.EntityType, &entityID,
		&a.Description, &a.Status, &createdAt, &dueBy)
	if err != nil {
		return nil, err
	}
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if a.EntityID, err = parseIDPtr(entityID); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.DueBy, err = parseTimePtr(dueBy); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *sqlTx) AlertByID(id uuid.UUID) (*model.Alert, error) {
	row := t.tx.QueryRow(`SELECT `+alertCols+` FROM alerts WHERE id = ?`, id.String())
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (t *sqlTx) PutAlert(a *model.Alert) error {
	_, err := t.tx.Exec(`INSERT INTO alerts (`+alertCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			severity = excluded.severity,
			alert_type = excluded.alert_type,
			entity_type = excluded.entity_type,
			entity_id = excluded.entity_id,
			description = excluded.description,
			status = excluded.status,
			created_at = excluded.created_at,
			due_by = excluded.due_by`,
		a.ID.String(), string(a.Severity), a.AlertType, a.EntityType,
		fmtIDPtr(a.EntityID), a.Description, string(a.Status),
		fmtTime(a.CreatedAt), fmtTimePtr(a.DueBy))
	return err
}

func (t *sqlTx) Alerts() ([]model.Alert, error) {
	rows, err := t.tx.Query(`SELECT ` + alertCols + ` FROM alerts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}

// AppendAudit inserts one audit row. Rows are never updated or deleted;
// no UPDATE or DELETE statement for this table exists in the codebase.
func (t *sqlTx) AppendAudit(e *model.AuditLogEntry) error {
	_, err := t.tx.Exec(`INSERT INTO audit_log_entries
		(id, actor_id, ts, entity_type, entity_id, action, before_json, after_json, source, correlation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), fmtIDPtr(e.ActorID), fmtTime(e.Timestamp), e.EntityType,
		fmtIDPtr(e.EntityID), e.Action, e.BeforeJSON, e.AfterJSON, e.Source,
		e.CorrelationID)
	return err
}

func (t *sqlTx) AuditEntries(limit int) ([]model.AuditLogEntry, error) {
	q := `SELECT id, actor_id, ts, entity_type, entity_id, action, before_json,
		after_json, source, correlation_id FROM audit_log_entries ORDER BY ts DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := t.tx.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.AuditLogEntry
	for rows.Next() {
		var (
			e                  model.AuditLogEntry
			id                 string
			actorID, entityID  sql.NullString
			ts                 string
		)
		if err := rows.Scan(&id, &actorID, &ts, &e.EntityType, &entityID,
			&e.Action, &e.BeforeJSON, &e.AfterJSON, &e.Source, &e.CorrelationID); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if e.ActorID, err = parseIDPtr(actorID); err != nil {
			return nil, err
		}
		if e.EntityID, err = parseIDPtr(entityID); err != nil {
			return nil, err
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
