// Package jobs exposes the job board and the assignment/status mutation
// endpoints. Handlers stay thin: parameter parsing and response shaping
// only, with the dispatch engine doing the actual work.
package jobs

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/api/respond"
	"github.com/fleetops/dispatchd/core/dispatch"
	"github.com/fleetops/dispatchd/core/logger"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

// Handler serves the /jobs routes.
type Handler struct {
	store  store.Store
	engine *dispatch.Engine
	log    logger.Logger
}

// NewHandler wires the handler. A nil logger falls back to the no-op
// implementation.
func NewHandler(st store.Store, eng *dispatch.Engine, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{store: st, engine: eng, log: log}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /jobs", h.list)
	mux.HandleFunc("GET /jobs/{id}", h.get)
	mux.HandleFunc("POST /jobs/{id}/assign", h.assign)
	mux.HandleFunc("POST /jobs/{id}/status", h.setStatus)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
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

	q := r.URL.Query()
	status, customer, priority := q.Get("status"), q.Get("customer"), q.Get("priority")
	filtered := jobs[:0:0]
	for _, j := range jobs {
		if status != "" && string(j.Status) != status {
			continue
		}
		if customer != "" && j.Customer != customer {
			continue
		}
		if priority != "" && string(j.Priority) != priority {
			continue
		}
		filtered = append(filtered, j)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].LastUpdateAt.After(filtered[j].LastUpdateAt)
	})

	page, size := respond.Paging(r)
	respond.JSON(w, http.StatusOK, respond.Page{
		Items:    respond.Slice(filtered, page, size),
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "id", Reason: "must be a valid UUID"})
		return
	}
	var (
		job     *model.Job
		driver  *model.Driver
		vehicle *model.Vehicle
	)
	err = h.store.View(r.Context(), func(tx store.Tx) error {
		var err error
		if job, err = tx.JobByID(id); err != nil || job == nil {
			return err
		}
		if job.DriverID != nil {
			if driver, err = tx.DriverByID(*job.DriverID); err != nil {
				return err
			}
		}
		if job.VehicleID != nil {
			if vehicle, err = tx.VehicleByID(*job.VehicleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	if job == nil {
		respond.Error(w, &dispatch.NotFoundError{Entity: "job", ID: id.String()})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"job":     job,
		"driver":  driver,
		"vehicle": vehicle,
	})
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "id", Reason: "must be a valid UUID"})
		return
	}
	var body struct {
		DriverID       string `json:"driver_id"`
		VehicleID      string `json:"vehicle_id"`
		Override       bool   `json:"override"`
		OverrideReason string `json:"override_reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "body", Reason: "not a JSON object"})
		return
	}
	driverID, err := optionalID(body.DriverID, "driver_id")
	if err != nil {
		respond.Error(w, err)
		return
	}
	vehicleID, err := optionalID(body.VehicleID, "vehicle_id")
	if err != nil {
		respond.Error(w, err)
		return
	}
	job, err := h.engine.Assign(r.Context(), dispatch.AssignRequest{
		JobID:          id,
		DriverID:       driverID,
		VehicleID:      vehicleID,
		Override:       body.Override,
		OverrideReason: body.OverrideReason,
		Source:         "web",
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	h.log.Debugw("job assigned", map[string]any{
		"job_code": job.JobCode,
		"override": body.Override,
	})
	respond.JSON(w, http.StatusOK, map[string]any{"job": job})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "id", Reason: "must be a valid UUID"})
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "body", Reason: "not a JSON object"})
		return
	}
	job, err := h.engine.SetStatus(r.Context(), id, body.Status, nil, "web")
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"job": job})
}

func optionalID(s, field string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, &dispatch.ValidationError{Field: field, Reason: "must be a valid UUID"}
	}
	return &id, nil
}
