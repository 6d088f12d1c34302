package dispatch

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
)

// JobFeedPayload is the strict schema of one external job event. Pointer
// fields are nil when the feed omitted them; partial updates are the norm.
// DriverSet/VehicleSet distinguish "field absent" from "field present and
// null": an explicit null (or empty string) clears the reference.
type JobFeedPayload struct {
	JobCode    string
	Customer   *string
	Priority   *model.JobPriority
	Status     *model.JobStatus
	PickupSite *string
	DropSite   *string
	Exceptions *string

	DriverID   *uuid.UUID
	DriverSet  bool
	VehicleID  *uuid.UUID
	VehicleSet bool
}

// ParseJobFeedPayload validates raw feed data into a JobFeedPayload.
// Validation happens before any entity is touched; a malformed field
// rejects the whole payload.
func ParseJobFeedPayload(data []byte) (*JobFeedPayload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Field: "payload", Reason: "not a JSON object"}
	}

	p := &JobFeedPayload{}
	code, err := stringField(raw, "job_code")
	if err != nil {
		return nil, err
	}
	if code == nil || *code == "" {
		return nil, &ValidationError{Field: "job_code", Reason: "required"}
	}
	p.JobCode = *code

	if p.Customer, err = stringField(raw, "customer"); err != nil {
		return nil, err
	}
	if p.PickupSite, err = stringField(raw, "pickup_site"); err != nil {
		return nil, err
	}
	if p.DropSite, err = stringField(raw, "drop_site"); err != nil {
		return nil, err
	}
	if p.Exceptions, err = stringField(raw, "exceptions"); err != nil {
		return nil, err
	}

	if s, err := stringField(raw, "priority"); err != nil {
		return nil, err
	} else if s != nil {
		pr, ok := model.ParseJobPriority(*s)
		if !ok {
			return nil, &ValidationError{Field: "priority", Reason: "unrecognized priority " + *s}
		}
		p.Priority = &pr
	}
	if s, err := stringField(raw, "status"); err != nil {
		return nil, err
	} else if s != nil {
		st, ok := model.ParseJobStatus(*s)
		if !ok {
			return nil, &ValidationError{Field: "status", Reason: "unrecognized status " + *s}
		}
		p.Status = &st
	}

	if v, ok := raw["driver_id"]; ok {
		p.DriverSet = true
		if p.DriverID, err = idField(v, "driver_id"); err != nil {
			return nil, err
		}
	}
	if v, ok := raw["vehicle_id"]; ok {
		p.VehicleSet = true
		if p.VehicleID, err = idField(v, "vehicle_id"); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// stringField returns nil for both absent keys and explicit nulls; the
// feed treats them the same for plain fields.
func stringField(raw map[string]json.RawMessage, key string) (*string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var s *string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, &ValidationError{Field: key, Reason: "must be a string"}
	}
	return s, nil
}

func idField(v json.RawMessage, field string) (*uuid.UUID, error) {
	var s *string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, &ValidationError{Field: field, Reason: "must be a UUID string"}
	}
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, &ValidationError{Field: field, Reason: "must be a valid UUID"}
	}
	return &id, nil
}
