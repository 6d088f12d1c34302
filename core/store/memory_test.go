package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
)

func TestUpdateRollsBackOnError(t *testing.T) {
	st := NewMemoryStore()
	jobID := uuid.New()
	driverID := uuid.New()
	st.Seed(nil, []model.Driver{{ID: driverID, Status: model.DriverOnDuty}}, nil)

	boom := errors.New("boom")
	err := st.Update(context.Background(), func(tx Tx) error {
		if err := tx.InsertJob(&model.Job{ID: jobID, JobCode: "JOB-1"}); err != nil {
			return err
		}
		d, err := tx.DriverByID(driverID)
		if err != nil {
			return err
		}
		d.Status = model.DriverOnJob
		if err := tx.PutDriver(d); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	viewErr := st.View(context.Background(), func(tx Tx) error {
		j, err := tx.JobByID(jobID)
		if err != nil {
			return err
		}
		if j != nil {
			t.Errorf("insert survived rollback")
		}
		d, err := tx.DriverByID(driverID)
		if err != nil {
			return err
		}
		if d.Status != model.DriverOnDuty {
			t.Errorf("driver write survived rollback: %s", d.Status)
		}
		return nil
	})
	if viewErr != nil {
		t.Fatalf("view: %v", viewErr)
	}
}

func TestTxReadsSeeOwnWrites(t *testing.T) {
	st := NewMemoryStore()
	jobID := uuid.New()

	err := st.Update(context.Background(), func(tx Tx) error {
		if err := tx.InsertJob(&model.Job{ID: jobID, JobCode: "JOB-7"}); err != nil {
			return err
		}
		j, err := tx.JobByCode("JOB-7")
		if err != nil {
			return err
		}
		if j == nil || j.ID != jobID {
			t.Errorf("uncommitted insert not visible inside tx")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestInsertJobDuplicateCode(t *testing.T) {
	st := NewMemoryStore()
	st.Seed([]model.Job{{ID: uuid.New(), JobCode: "JOB-42"}}, nil, nil)

	err := st.Update(context.Background(), func(tx Tx) error {
		return tx.InsertJob(&model.Job{ID: uuid.New(), JobCode: "JOB-42"})
	})
	var dup *DuplicateJobCodeError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateJobCodeError", err)
	}
	if dup.Code != "JOB-42" {
		t.Errorf("code = %s", dup.Code)
	}
}

func TestLookupsReturnNilWhenAbsent(t *testing.T) {
	st := NewMemoryStore()
	err := st.View(context.Background(), func(tx Tx) error {
		j, err := tx.JobByID(uuid.New())
		if err != nil || j != nil {
			t.Errorf("JobByID = %v, %v", j, err)
		}
		d, err := tx.DriverByID(uuid.New())
		if err != nil || d != nil {
			t.Errorf("DriverByID = %v, %v", d, err)
		}
		v, err := tx.VehicleByID(uuid.New())
		if err != nil || v != nil {
			t.Errorf("VehicleByID = %v, %v", v, err)
		}
		a, err := tx.AlertByID(uuid.New())
		if err != nil || a != nil {
			t.Errorf("AlertByID = %v, %v", a, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	jobID := uuid.New()
	st.Seed([]model.Job{{ID: jobID, JobCode: "JOB-9", Status: model.JobUnassigned}}, nil, nil)

	err := st.View(context.Background(), func(tx Tx) error {
		j, err := tx.JobByID(jobID)
		if err != nil {
			return err
		}
		j.Status = model.JobCancelled
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	err = st.View(context.Background(), func(tx Tx) error {
		j, err := tx.JobByID(jobID)
		if err != nil {
			return err
		}
		if j.Status != model.JobUnassigned {
			t.Errorf("read-side mutation leaked into the store")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestAuditEntriesNewestFirstWithLimit(t *testing.T) {
	st := NewMemoryStore()
	err := st.Update(context.Background(), func(tx Tx) error {
		for _, action := range []string{"job.created", "job.assign", "job.status_change"} {
			if err := tx.AppendAudit(&model.AuditLogEntry{ID: uuid.New(), Action: action}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	var rows []model.AuditLogEntry
	err = st.View(context.Background(), func(tx Tx) error {
		var err error
		rows, err = tx.AuditEntries(2)
		return err
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Action != "job.status_change" || rows[1].Action != "job.assign" {
		t.Errorf("order = %s, %s; want newest first", rows[0].Action, rows[1].Action)
	}
}
