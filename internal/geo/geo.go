package geo

import (
	"math"
	"time"
)

const earthRadiusM = 6371000.0

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PositionFix is a single device-reported position. AccuracyM is the
// device-reported 1-sigma horizontal uncertainty; nil when the device
// did not report one.
type PositionFix struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

func (f PositionFix) Point() GeoPoint { return GeoPoint{Lat: f.Lat, Lng: f.Lng} }

// Accuracy returns the reported accuracy, or ok=false when absent.
func (f PositionFix) Accuracy() (float64, bool) {
	if f.AccuracyM == nil {
		return 0, false
	}
	return *f.AccuracyM, true
}

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }

// DistanceMeters returns the haversine great-circle distance between a and b.
// Geofence radii are compared against true ground distance, so no planar
// approximation here. Inputs are not range-validated.
func DistanceMeters(a, b GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// ValidPoint reports whether lat/lng are inside the WGS84 ranges.
func ValidPoint(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
