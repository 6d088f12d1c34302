// Package webhooks receives job-feed pushes from the CRM automation and
// feeds them through the reconciler.
package webhooks

import (
	"io"
	"net/http"

	"github.com/fleetops/dispatchd/api/respond"
	"github.com/fleetops/dispatchd/core/dispatch"
	"github.com/fleetops/dispatchd/core/logger"
)

const crmSource = "n8n.crm.webhook"

// 1 MiB is plenty for a single job payload.
const maxBodyBytes = 1 << 20

// Handler serves the /webhooks routes.
type Handler struct {
	engine *dispatch.Engine
	log    logger.Logger
}

// NewHandler wires the handler. A nil logger falls back to the no-op
// implementation.
func NewHandler(eng *dispatch.Engine, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{engine: eng, log: log}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/crm/job", h.crmJob)
}

func (h *Handler) crmJob(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respond.Error(w, &dispatch.ValidationError{Field: "body", Reason: "unreadable"})
		return
	}
	payload, err := dispatch.ParseJobFeedPayload(body)
	if err != nil {
		respond.Error(w, err)
		return
	}
	res, err := h.engine.Reconcile(r.Context(), payload, nil, crmSource)
	if err != nil {
		respond.Error(w, err)
		return
	}
	h.log.Debugw("webhook reconciled", map[string]any{
		"job_code": payload.JobCode,
		"created":  res.Created,
	})
	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	respond.JSON(w, code, map[string]any{"created": res.Created, "job": res.Job})
}
