package compliance

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/model"
)

func TestCheck(t *testing.T) {
	okDriver := &model.Driver{ID: uuid.New(), ComplianceState: model.ComplianceOK}
	badDriver := &model.Driver{ID: uuid.New(), ComplianceState: model.ComplianceBlocked}
	okVehicle := &model.Vehicle{ID: uuid.New(), ComplianceState: model.ComplianceOK}
	badVehicle := &model.Vehicle{ID: uuid.New(), ComplianceState: model.ComplianceBlocked}

	cases := []struct {
		name       string
		d          *model.Driver
		v          *model.Vehicle
		override   bool
		wantEntity string
	}{
		{"both nil", nil, nil, false, ""},
		{"both ok", okDriver, okVehicle, false, ""},
		{"driver blocked", badDriver, okVehicle, false, "driver"},
		{"vehicle blocked", okDriver, badVehicle, false, "vehicle"},
		{"driver checked first", badDriver, badVehicle, false, "driver"},
		{"override skips gate", badDriver, badVehicle, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.d, tc.v, tc.override)
			if tc.wantEntity == "" {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}
			var blocked *BlockedError
			if !errors.As(err, &blocked) {
				t.Fatalf("err = %v, want BlockedError", err)
			}
			if blocked.Entity != tc.wantEntity {
				t.Errorf("entity = %s, want %s", blocked.Entity, tc.wantEntity)
			}
		})
	}
}
