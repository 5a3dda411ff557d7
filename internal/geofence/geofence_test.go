package geofence

import (
	"errors"
	"strings"
	"testing"

	"presensi/internal/geo"
)

func ptr(f float64) *float64 { return &f }

func TestValidateNotConfigured(t *testing.T) {
	fix := geo.PositionFix{Lat: 13.0827, Lng: 80.2707}

	cases := []AssignedLocation{
		{},
		{Lat: ptr(13.0827)},
		{Lng: ptr(80.2707)},
	}
	for _, a := range cases {
		if _, err := Validate(fix, a); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("Validate with assignment %+v: err = %v, want ErrNotConfigured", a, err)
		}
	}
}

func TestValidateDefaultRadius(t *testing.T) {
	assigned := AssignedLocation{Lat: ptr(13.0827), Lng: ptr(80.2707)} // no radius
	if got := assigned.Radius(); got != DefaultRadiusM {
		t.Fatalf("Radius() = %v, want %v", got, DefaultRadiusM)
	}

	// ~95m east of the assigned point: inside the default 100m radius.
	fix := geo.PositionFix{Lat: 13.0827, Lng: 80.27158}
	res, err := Validate(fix, assigned)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Errorf("fix %dm away should pass default 100m radius", res.DistanceM)
	}

	negative := AssignedLocation{Lat: ptr(13.0827), Lng: ptr(80.2707), RadiusM: -5}
	if got := negative.Radius(); got != DefaultRadiusM {
		t.Errorf("non-positive radius should default, got %v", got)
	}
}

func TestValidateOutsideRadius(t *testing.T) {
	assigned := AssignedLocation{
		Lat: ptr(13.0827), Lng: ptr(80.2707), RadiusM: 150, Label: "HQ",
	}
	// ~155m east.
	fix := geo.PositionFix{Lat: 13.0827, Lng: 80.2721}

	res, err := Validate(fix, assigned)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("expected fix outside 150m radius to be rejected")
	}
	if res.DistanceM < 150 || res.DistanceM > 165 {
		t.Errorf("DistanceM = %d, want in [150,165]", res.DistanceM)
	}
	if !strings.Contains(res.Reason, "150m") {
		t.Errorf("reason must include the radius: %q", res.Reason)
	}
	if !strings.Contains(res.Reason, "HQ") {
		t.Errorf("reason must include the label: %q", res.Reason)
	}
}

func TestValidateIdenticalCoordinates(t *testing.T) {
	assigned := AssignedLocation{Lat: ptr(13.0827), Lng: ptr(80.2707), RadiusM: 150}
	fix := geo.PositionFix{Lat: 13.0827, Lng: 80.2707}

	res, err := Validate(fix, assigned)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid || res.DistanceM != 0 {
		t.Errorf("identical coordinates: got valid=%v distance=%d, want valid=true distance=0", res.Valid, res.DistanceM)
	}
	if res.Reason != "" {
		t.Errorf("no reason expected on valid result, got %q", res.Reason)
	}
}

func TestValidateBoundaryIsInclusive(t *testing.T) {
	assigned := AssignedLocation{Lat: ptr(0), Lng: ptr(0), RadiusM: 100}
	// ~100m north of the origin (rounds to exactly 100).
	fix := geo.PositionFix{Lat: 0.0008993, Lng: 0}

	res, err := Validate(fix, assigned)
	if err != nil {
		t.Fatal(err)
	}
	if res.DistanceM != 100 {
		t.Fatalf("DistanceM = %d, want 100", res.DistanceM)
	}
	if !res.Valid {
		t.Error("distance equal to the radius must be accepted")
	}
}
