// Package compliance decides whether a driver or vehicle may be assigned
// to a job. The gate is a pure function over the candidate's compliance
// state; it performs no reads or writes of its own.
package compliance

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
)

// BlockedError names the entity that refused the assignment.
type BlockedError struct {
	Entity string
	ID     uuid.UUID
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("assignment blocked: %s %s compliance not ok", e.Entity, e.ID)
}

// Check returns nil when the assignment may proceed. A nil candidate is
// always allowed: it represents unassignment. With override set the gate
// never blocks; the caller records the override in the audit trail.
func Check(d *model.Driver, v *model.Vehicle, override bool) error {
	if override {
		return nil
	}
	if d != nil && d.ComplianceState != model.ComplianceOK {
		return &BlockedError{Entity: "driver", ID: d.ID}
	}
	if v != nil && v.ComplianceState != model.ComplianceOK {
		return &BlockedError{Entity: "vehicle", ID: v.ID}
	}
	return nil
}
