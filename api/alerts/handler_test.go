package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/dispatch"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

func newServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	eng := dispatch.NewEngine(st, nil, nil, nil)
	mux := http.NewServeMux()
	NewHandler(st, eng).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

func TestListAlertsFilters(t *testing.T) {
	srv, st := newServer(t)
	st.SeedAlerts([]model.Alert{
		{ID: uuid.New(), Severity: model.SeverityHigh, AlertType: "sla_breach", EntityType: "job", Status: model.AlertOpen, CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), Severity: model.SeverityLow, AlertType: "service_due", EntityType: "vehicle", Status: model.AlertResolved, CreatedAt: time.Now().UTC()},
	})

	resp, err := http.Get(srv.URL + "/alerts?status=open")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var page struct {
		Items []model.Alert `json:"items"`
		Total int           `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if page.Total != 1 || page.Items[0].AlertType != "sla_breach" {
		t.Errorf("filtered page = %+v", page)
	}
}

func TestAckAndResolveEndpoints(t *testing.T) {
	srv, st := newServer(t)
	alert := model.Alert{ID: uuid.New(), Severity: model.SeverityHigh, AlertType: "sla_breach", EntityType: "job", Status: model.AlertOpen, CreatedAt: time.Now().UTC()}
	st.SeedAlerts([]model.Alert{alert})

	resp, err := http.Post(srv.URL+"/alerts/"+alert.ID.String()+"/ack", "application/json", nil)
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	var out struct {
		Alert *model.Alert `json:"alert"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if out.Alert.Status != model.AlertAcknowledged {
		t.Errorf("status = %s, want acknowledged", out.Alert.Status)
	}

	resp, err = http.Post(srv.URL+"/alerts/"+alert.ID.String()+"/resolve", "application/json",
		strings.NewReader(`{"reason":"duplicate"}`))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if out.Alert.Status != model.AlertResolved {
		t.Errorf("status = %s, want resolved", out.Alert.Status)
	}
}

func TestAckUnknownAlert(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Post(srv.URL+"/alerts/"+uuid.NewString()+"/ack", "application/json", nil)
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
