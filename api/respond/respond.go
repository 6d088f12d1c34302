// Package respond shapes HTTP responses for the api handlers and maps the
// core error taxonomy onto status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fleetops/dispatchd/core/dispatch"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps a core error to its HTTP status: NotFound 404,
// ComplianceBlocked and DuplicateJobCode 409, Validation 400, anything
// else 500.
func Error(w http.ResponseWriter, err error) {
	var (
		notFound  *dispatch.NotFoundError
		blocked   *dispatch.ComplianceBlockedError
		invalid   *dispatch.ValidationError
		duplicate *dispatch.DuplicateJobCodeError
	)
	code := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		code = http.StatusNotFound
	case errors.As(err, &blocked), errors.As(err, &duplicate):
		code = http.StatusConflict
	case errors.As(err, &invalid):
		code = http.StatusBadRequest
	}
	JSON(w, code, map[string]string{"error": err.Error()})
}
