package dispatch

import (
	"fmt"

	"github.com/fleetops/dispatchd/core/compliance"
	"github.com/fleetops/dispatchd/core/store"
)

// The mutation error taxonomy. All four surface to the caller unchanged;
// none triggers a retry, and the first two are raised before any write so
// persisted state is untouched.

// NotFoundError reports a missing job, driver or vehicle where one was
// required.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ValidationError reports malformed input: a bad id format, an
// unrecognized enum value, or a missing required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ComplianceBlockedError is raised by the compliance gate; it names the
// entity that refused the assignment.
type ComplianceBlockedError = compliance.BlockedError

// DuplicateJobCodeError is raised on insert of an already-used job code.
type DuplicateJobCodeError = store.DuplicateJobCodeError
