package webhooks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fleetops/dispatchd/core/dispatch"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

func newServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	eng := dispatch.NewEngine(st, nil, nil, nil)
	mux := http.NewServeMux()
	NewHandler(eng, nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

func post(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/webhooks/crm/job", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestCRMJobCreateThenUpdate(t *testing.T) {
	srv, _ := newServer(t)

	resp := post(t, srv, `{"job_code":"JOB-00099","customer":"Acme Haulage"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var out struct {
		Created bool       `json:"created"`
		Job     *model.Job `json:"job"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if !out.Created || out.Job.Customer != "Acme Haulage" {
		t.Errorf("first push: %+v", out)
	}

	resp = post(t, srv, `{"job_code":"JOB-00099","status":"in_progress"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if out.Created {
		t.Errorf("replay reported created")
	}
	if out.Job.Status != model.JobInProgress {
		t.Errorf("status = %s", out.Job.Status)
	}
	if out.Job.Customer != "Acme Haulage" {
		t.Errorf("customer lost on merge: %s", out.Job.Customer)
	}
}

func TestCRMJobRejectsMalformed(t *testing.T) {
	srv, _ := newServer(t)
	for _, body := range []string{`not json`, `{"customer":"x"}`, `{"job_code":"J","priority":"urgent"}`} {
		resp := post(t, srv, body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, resp.StatusCode)
		}
	}
}
