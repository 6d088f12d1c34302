// Package alerts exposes the alerts board and the acknowledge/resolve
// transitions.
package alerts

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/api/respond"
	"github.com/fleetops/dispatchd/core/dispatch"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

// Handler serves the /alerts routes.
type Handler struct {
	store  store.Store
	engine *dispatch.Engine
}

// NewHandler wires the handler.
func NewHandler(st store.Store, eng *dispatch.Engine) *Handler {
	return &Handler{store: st, engine: eng}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /alerts", h.list)
	mux.HandleFunc("POST /alerts/{id}/ack", h.ack)
	mux.HandleFunc("POST /alerts/{id}/resolve", h.resolve)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var alerts []model.Alert
	err := h.store.View(r.Context(), func(tx store.Tx) error {
		var err error
		alerts, err = tx.Alerts()
		return err
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	q := r.URL.Query()
	status, severity, entityType := q.Get("status"), q.Get("severity"), q.Get("entity_type")
	filtered := alerts[:0:0]
	for _, a := range alerts {
		if status != "" && string(a.Status) != status {
			continue
		}
		if severity != "" && string(a.Severity) != severity {
			continue
		}
		if entityType != "" && a.EntityType != entityType {
			continue
		}
		filtered = append(filtered, a)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	page, size := respond.Paging(r)
	respond.JSON(w, http.StatusOK, respond.Page{
		Items:    respond.Slice(filtered, page, size),
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
	})
}

func (h *Handler) ack(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "id", Reason: "must be a valid UUID"})
		return
	}
	alert, err := h.engine.AckAlert(r.Context(), id, nil)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"alert": alert})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "id", Reason: "must be a valid UUID"})
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	// Body is optional for resolve.
	_ = json.NewDecoder(r.Body).Decode(&body)
	alert, err := h.engine.ResolveAlert(r.Context(), id, body.Reason, nil)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"alert": alert})
}
