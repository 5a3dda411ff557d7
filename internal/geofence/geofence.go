package geofence

import (
	"errors"
	"fmt"
	"math"

	"presensi/internal/geo"
)

const (
	// DefaultRadiusM is applied when an assignment has no radius configured.
	DefaultRadiusM = 100.0
	// MinRadiusM / MaxRadiusM bound what managers may configure.
	MinRadiusM = 25.0
	MaxRadiusM = 1000.0
)

// ErrNotConfigured: the employee has no usable assigned location. Fatal for
// the current attempt, nothing the employee can do about it.
var ErrNotConfigured = errors.New("assigned location not set. Please contact your manager")

// AssignedLocation is the employer-side work-site record for an employee.
// Lat/Lng are pointers because the record may exist with the coordinates
// still unset. Read-only here.
type AssignedLocation struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	RadiusM float64  `json:"radius_m"`
	Label   string   `json:"label"`
}

// Radius returns the effective radius, defaulting when absent or non-positive.
func (a AssignedLocation) Radius() float64 {
	if a.RadiusM <= 0 {
		return DefaultRadiusM
	}
	return a.RadiusM
}

// Result of one validation call. Never persisted by this package.
type Result struct {
	Valid     bool   `json:"valid"`
	DistanceM int    `json:"distance_m"`
	Reason    string `json:"reason,omitempty"`
}

// Validate decides whether fix is inside the assignment's geofence.
// Returns ErrNotConfigured when the assignment has no coordinates.
func Validate(fix geo.PositionFix, assigned AssignedLocation) (Result, error) {
	if assigned.Lat == nil || assigned.Lng == nil {
		return Result{}, ErrNotConfigured
	}

	dist := geo.DistanceMeters(fix.Point(), geo.GeoPoint{Lat: *assigned.Lat, Lng: *assigned.Lng})
	distM := int(math.Round(dist))
	radius := assigned.Radius()

	res := Result{DistanceM: distM, Valid: float64(distM) <= radius}
	if !res.Valid {
		label := assigned.Label
		if label == "" {
			label = "your assigned location"
		}
		res.Reason = fmt.Sprintf("You are %dm away from %s. Must be within %.0fm to mark attendance.", distM, label, radius)
	}
	return res, nil
}
