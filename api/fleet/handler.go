// Package fleet exposes read-only driver and vehicle views.
package fleet

import (
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/api/respond"
	"github.com/fleetops/dispatchd/core/dispatch"
	"github.com/fleetops/dispatchd/core/model"
	"github.com/fleetops/dispatchd/core/store"
)

// Handler serves the /drivers and /vehicles routes.
type Handler struct {
	store store.Store
}

// NewHandler wires the handler.
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /drivers", h.listDrivers)
	mux.HandleFunc("GET /drivers/{id}", h.getDriver)
	mux.HandleFunc("GET /vehicles", h.listVehicles)
	mux.HandleFunc("GET /vehicles/{id}", h.getVehicle)
}

func (h *Handler) listDrivers(w http.ResponseWriter, r *http.Request) {
	var drivers []model.Driver
	err := h.store.View(r.Context(), func(tx store.Tx) error {
		var err error
		drivers, err = tx.Drivers()
		return err
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	q := r.URL.Query()
	status, depot, region, compliance := q.Get("status"), q.Get("depot"), q.Get("region"), q.Get("compliance_state")
	filtered := drivers[:0:0]
	for _, d := range drivers {
		if status != "" && string(d.Status) != status {
			continue
		}
		if depot != "" && d.Depot != depot {
			continue
		}
		if region != "" && d.Region != region {
			continue
		}
		if compliance != "" && string(d.ComplianceState) != compliance {
			continue
		}
		filtered = append(filtered, d)
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

func (h *Handler) getDriver(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "id", Reason: "must be a valid UUID"})
		return
	}
	var (
		driver  *model.Driver
		current *model.Job
	)
	err = h.store.View(r.Context(), func(tx store.Tx) error {
		var err error
		if driver, err = tx.DriverByID(id); err != nil || driver == nil {
			return err
		}
		current, err = currentJob(tx, func(j *model.Job) bool {
			return j.DriverID != nil && *j.DriverID == id
		})
		return err
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	if driver == nil {
		respond.Error(w, &dispatch.NotFoundError{Entity: "driver", ID: id.String()})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"driver": driver, "current_job": current})
}

func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	var vehicles []model.Vehicle
	err := h.store.View(r.Context(), func(tx store.Tx) error {
		var err error
		vehicles, err = tx.Vehicles()
		return err
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	q := r.URL.Query()
	status, depot, region, class, compliance := q.Get("status"), q.Get("depot"), q.Get("region"), q.Get("vehicle_class"), q.Get("compliance_state")
	filtered := vehicles[:0:0]
	for _, v := range vehicles {
		if status != "" && string(v.Status) != status {
			continue
		}
		if depot != "" && v.Depot != depot {
			continue
		}
		if region != "" && v.Region != region {
			continue
		}
		if class != "" && v.VehicleClass != class {
			continue
		}
		if compliance != "" && string(v.ComplianceState) != compliance {
			continue
		}
		filtered = append(filtered, v)
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

func (h *Handler) getVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "id", Reason: "must be a valid UUID"})
		return
	}
	var (
		vehicle *model.Vehicle
		current *model.Job
	)
	err = h.store.View(r.Context(), func(tx store.Tx) error {
		var err error
		if vehicle, err = tx.VehicleByID(id); err != nil || vehicle == nil {
			return err
		}
		current, err = currentJob(tx, func(j *model.Job) bool {
			return j.VehicleID != nil && *j.VehicleID == id
		})
		return err
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	if vehicle == nil {
		respond.Error(w, &dispatch.NotFoundError{Entity: "vehicle", ID: id.String()})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"vehicle": vehicle, "current_job": current})
}

// currentJob returns the most recently updated job matching the
// predicate.
func currentJob(tx store.Tx, match func(*model.Job) bool) (*model.Job, error) {
	jobs, err := tx.Jobs()
	if err != nil {
		return nil, err
	}
	var best *model.Job
	for i := range jobs {
		j := &jobs[i]
		if !match(j) {
			continue
		}
		if best == nil || j.LastUpdateAt.After(best.LastUpdateAt) {
			best = j
		}
	}
	return best, nil
}
