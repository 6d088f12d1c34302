package fleet

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

func newServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	mux := http.NewServeMux()
	NewHandler(st).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

func TestListDriversFilters(t *testing.T) {
	srv, st := newServer(t)
	st.Seed(nil, []model.Driver{
		{ID: uuid.New(), Name: "R. Calloway", Depot: "Leeds", Status: model.DriverOnDuty, ComplianceState: model.ComplianceOK},
		{ID: uuid.New(), Name: "M. Osei", Depot: "York", Status: model.DriverOffDuty, ComplianceState: model.ComplianceBlocked},
	}, nil)

	resp, err := http.Get(srv.URL + "/drivers?depot=Leeds")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var page struct {
		Items []model.Driver `json:"items"`
		Total int            `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if page.Total != 1 || page.Items[0].Name != "R. Calloway" {
		t.Errorf("depot filter = %+v", page)
	}

	resp, err = http.Get(srv.URL + "/drivers?compliance_state=blocked")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if page.Total != 1 || page.Items[0].Name != "M. Osei" {
		t.Errorf("compliance filter = %+v", page)
	}
}

func TestGetDriverWithCurrentJob(t *testing.T) {
	srv, st := newServer(t)
	driver := model.Driver{ID: uuid.New(), Name: "R. Calloway", Status: model.DriverOnJob, ComplianceState: model.ComplianceOK}
	old := model.Job{ID: uuid.New(), JobCode: "JOB-1", DriverID: &driver.ID, LastUpdateAt: time.Now().Add(-time.Hour)}
	current := model.Job{ID: uuid.New(), JobCode: "JOB-2", DriverID: &driver.ID, LastUpdateAt: time.Now()}
	st.Seed([]model.Job{old, current}, []model.Driver{driver}, nil)

	resp, err := http.Get(srv.URL + "/drivers/" + driver.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body struct {
		Driver     *model.Driver `json:"driver"`
		CurrentJob *model.Job    `json:"current_job"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if body.Driver == nil || body.Driver.ID != driver.ID {
		t.Fatalf("driver missing")
	}
	if body.CurrentJob == nil || body.CurrentJob.JobCode != "JOB-2" {
		t.Errorf("current job = %+v, want most recent", body.CurrentJob)
	}
}

func TestGetVehicleNotFound(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/vehicles/" + uuid.NewString())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
