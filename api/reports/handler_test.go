package reports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
	corereports "github.com/fleetops/dispatchd/core/reports"
	"github.com/fleetops/dispatchd/core/store"
)

func TestJobsReportEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	st.Seed([]model.Job{
		{ID: uuid.New(), JobCode: "JOB-1", Customer: "Acme", Priority: model.PriorityNormal, Status: model.JobCompleted, CreatedAt: now.AddDate(0, 0, -2), LastUpdateAt: now.AddDate(0, 0, -2).Add(time.Hour)},
		{ID: uuid.New(), JobCode: "JOB-2", Customer: "Acme", Priority: model.PriorityHigh, Status: model.JobInProgress, CreatedAt: now.AddDate(0, 0, -1), LastUpdateAt: now},
	}, nil, nil)

	h := NewHandler(st)
	h.now = func() time.Time { return now }
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/reports/jobs?days=90")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var rep corereports.JobsReport
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if rep.WindowDays != 90 {
		t.Errorf("window = %d, want 90", rep.WindowDays)
	}
	if rep.Totals.AllJobs != 2 || rep.Totals.CompletedJobs != 1 {
		t.Errorf("totals = %+v", rep.Totals)
	}
	if len(rep.TopCustomers) != 1 || rep.TopCustomers[0].Customer != "Acme" {
		t.Errorf("top customers = %+v", rep.TopCustomers)
	}
}
