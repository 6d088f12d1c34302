// Package audit exposes the read-only audit trail.
package audit

import (
	"net/http"
	"strconv"

	"github.com/fleetops/dispatchd/api/respond"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

const defaultLimit = 200

// Handler serves the /audit routes.
type Handler struct {
	store store.Store
}

// NewHandler wires the handler.
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /audit", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultLimit
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 1000 {
		limit = v
	}
	entityType, action, source := q.Get("entity_type"), q.Get("action"), q.Get("source")

	var entries []model.AuditLogEntry
	err := h.store.View(r.Context(), func(tx store.Tx) error {
		// Fetch unbounded when filtering so the limit applies after the
		// filter, matching the board behavior.
		fetch := limit
		if entityType != "" || action != "" || source != "" {
			fetch = 0
		}
		var err error
		entries, err = tx.AuditEntries(fetch)
		return err
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	filtered := entries[:0:0]
	for _, e := range entries {
		if entityType != "" && e.EntityType != entityType {
			continue
		}
		if action != "" && e.Action != action {
			continue
		}
		if source != "" && e.Source != source {
			continue
		}
		filtered = append(filtered, e)
		if len(filtered) == limit {
			break
		}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"items": filtered,
		"count": len(filtered),
	})
}
