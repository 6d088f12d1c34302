package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

func TestSnapshotIsDeepCopy(t *testing.T) {
	driverID := uuid.New()
	job := &model.Job{
		ID:       uuid.New(),
		JobCode:  "JOB-00017",
		Status:   model.JobUnassigned,
		DriverID: &driverID,
	}
	snap := Snapshot(job)

	job.Status = model.JobAssigned
	job.JobCode = "JOB-99999"
	*job.DriverID = uuid.New()

	if snap["status"] != "unassigned" {
		t.Errorf("snapshot status = %v, mutated after capture", snap["status"])
	}
	if snap["job_code"] != "JOB-00017" {
		t.Errorf("snapshot job_code = %v", snap["job_code"])
	}
	if snap["driver_id"] != driverID.String() {
		t.Errorf("snapshot driver_id = %v", snap["driver_id"])
	}
}

func TestSnapshotNil(t *testing.T) {
	if got := Snapshot(nil); got != nil {
		t.Errorf("Snapshot(nil) = %v, want nil", got)
	}
}

func TestRecordDefaultsAndStamps(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	rec := NewRecorderAt(func() time.Time { return at })
	st := store.NewMemoryStore()
	entityID := uuid.New()

	err := st.Update(context.Background(), func(tx store.Tx) error {
		return rec.Record(tx, Entry{
			EntityType: "job",
			EntityID:   &entityID,
			Action:     "job.status_change",
			Before:     map[string]any{"status": "assigned"},
			After:      map[string]any{"status": "in_progress"},
		})
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	var rows []model.AuditLogEntry
	err = st.View(context.Background(), func(tx store.Tx) error {
		var err error
		rows, err = tx.AuditEntries(0)
		return err
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	e := rows[0]
	if e.Source != "web" {
		t.Errorf("source = %s, want web default", e.Source)
	}
	if !e.Timestamp.Equal(at) {
		t.Errorf("timestamp = %v, want %v", e.Timestamp, at)
	}
	if e.ActorID != nil {
		t.Errorf("actor = %v, want nil", e.ActorID)
	}
	var after map[string]any
	if err := json.Unmarshal([]byte(e.AfterJSON), &after); err != nil {
		t.Fatalf("after json: %v", err)
	}
	if after["status"] != "in_progress" {
		t.Errorf("after = %v", after)
	}
}

func TestRecordFailureAbortsMutation(t *testing.T) {
	rec := NewRecorder()
	st := store.NewMemoryStore()
	jobID := uuid.New()

	err := st.Update(context.Background(), func(tx store.Tx) error {
		if err := tx.InsertJob(&model.Job{ID: jobID, JobCode: "JOB-1"}); err != nil {
			return err
		}
		// A snapshot that cannot serialize must abort the transaction.
		return rec.Record(tx, Entry{
			EntityType: "job",
			Action:     "job.created",
			After:      map[string]any{"bad": make(chan int)},
		})
	})
	if err == nil {
		t.Fatalf("expected serialization error")
	}

	viewErr := st.View(context.Background(), func(tx store.Tx) error {
		j, err := tx.JobByID(jobID)
		if err != nil {
			return err
		}
		if j != nil {
			t.Errorf("job visible despite aborted transaction")
		}
		return nil
	})
	if viewErr != nil {
		t.Fatalf("view: %v", viewErr)
	}
}
