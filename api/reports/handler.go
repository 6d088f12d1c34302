// Package reports serves aggregated job statistics.
package reports

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fleetops/dispatchd/api/respond"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/reports"
	"github.com/fleetops/dispatchd/core/store"
)

const defaultWindowDays = 365

// Handler serves the /reports routes.
type Handler struct {
	store store.Store
	now   func() time.Time
}

// NewHandler wires the handler.
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st, now: time.Now}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /reports/jobs", h.jobs)
}

func (h *Handler) jobs(w http.ResponseWriter, r *http.Request) {
	days := defaultWindowDays
	if v, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && v > 0 {
		days = v
	}
	var jobs []model.Job
	err := h.store.View(r.Context(), func(tx store.Tx) error {
		var err error
		jobs, err = tx.Jobs()
		return err
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, reports.Build(jobs, h.now(), days))
}
