package repo

import (
	"context"
	"database/sql"

	"presensi/internal/geofence"
)

type AssignmentRepo struct{ DB *sql.DB }

func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{DB: db} }

// AssignedLocation returns the work site assigned to the user. A missing row
// or a row without coordinates is geofence.ErrNotConfigured: the employee
// cannot fix that, a manager has to.
func (r *AssignmentRepo) AssignedLocation(ctx context.Context, userID string) (geofence.AssignedLocation, error) {
	const q = `
		SELECT lat, lng, radius_m, label
		FROM assigned_locations
		WHERE user_id = $1;
	`
	var (
		lat, lng sql.NullFloat64
		radius   float64
		label    string
	)
	err := r.DB.QueryRowContext(ctx, q, userID).Scan(&lat, &lng, &radius, &label)
	if err == sql.ErrNoRows {
		return geofence.AssignedLocation{}, geofence.ErrNotConfigured
	}
	if err != nil {
		return geofence.AssignedLocation{}, err
	}

	var a geofence.AssignedLocation
	a.RadiusM = radius
	a.Label = label
	if lat.Valid {
		a.Lat = &lat.Float64
	}
	if lng.Valid {
		a.Lng = &lng.Float64
	}
	return a, nil
}

// Upsert sets the assignment for a user. Radius 0 keeps the column default.
func (r *AssignmentRepo) Upsert(ctx context.Context, userID string, lat, lng, radiusM float64, label string) error {
	const q = `
		INSERT INTO assigned_locations (user_id, lat, lng, radius_m, label, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET lat=EXCLUDED.lat, lng=EXCLUDED.lng, radius_m=EXCLUDED.radius_m,
		              label=EXCLUDED.label, updated_at=NOW();
	`
	if radiusM <= 0 {
		radiusM = geofence.DefaultRadiusM
	}
	_, err := r.DB.ExecContext(ctx, q, userID, lat, lng, radiusM, label)
	return err
}
