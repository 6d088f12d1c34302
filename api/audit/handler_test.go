package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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

func seedTrail(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	entries := []model.AuditLogEntry{
		{ID: uuid.New(), EntityType: "job", Action: "job.created", Source: "n8n.crm.webhook"},
		{ID: uuid.New(), EntityType: "job", Action: "job.assign", Source: "web"},
		{ID: uuid.New(), EntityType: "alert", Action: "alert.ack", Source: "web"},
	}
	err := st.Update(context.Background(), func(tx store.Tx) error {
		for i := range entries {
			if err := tx.AppendAudit(&entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestListAuditFilters(t *testing.T) {
	srv, st := newServer(t)
	seedTrail(t, st)

	resp, err := http.Get(srv.URL + "/audit")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body struct {
		Items []model.AuditLogEntry `json:"items"`
		Count int                   `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if body.Count != 3 {
		t.Fatalf("count = %d, want 3", body.Count)
	}
	// Newest first.
	if body.Items[0].Action != "alert.ack" {
		t.Errorf("first = %s", body.Items[0].Action)
	}

	resp, err = http.Get(srv.URL + "/audit?entity_type=job&source=web")
	if err != nil {
		t.Fatalf("get filtered: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if body.Count != 1 || body.Items[0].Action != "job.assign" {
		t.Errorf("filtered = %+v", body)
	}
}

func TestListAuditLimit(t *testing.T) {
	srv, st := newServer(t)
	seedTrail(t, st)

	resp, err := http.Get(srv.URL + "/audit?limit=2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body struct {
		Items []model.AuditLogEntry `json:"items"`
		Count int                   `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
}
