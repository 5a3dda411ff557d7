package repo

import (
	"context"
	"database/sql"
	"time"

	"presensi/internal/geo"
)

type LocationLogRepo struct{ DB *sql.DB }

func NewLocationLogRepo(db *sql.DB) *LocationLogRepo { return &LocationLogRepo{DB: db} }

type LocationSample struct {
	ID         string
	UserID     string
	Lat        float64
	Lng        float64
	AccuracyM  sql.NullFloat64
	Source     string
	CapturedAt time.Time
}

// SaveSample appends one sample. source is "live" (tracking sampler) or
// "employee" (one-shot attendance path).
func (r *LocationLogRepo) SaveSample(ctx context.Context, userID string, fix geo.PositionFix, source string) error {
	const q = `
		INSERT INTO location_samples (user_id, lat, lng, accuracy_m, source, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	var acc sql.NullFloat64
	if v, ok := fix.Accuracy(); ok {
		acc = sql.NullFloat64{Float64: v, Valid: true}
	}
	capturedAt := fix.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, q, userID, fix.Lat, fix.Lng, acc, source, capturedAt)
	return err
}

// LatestByUser returns the newest sample for a user, zero value when none.
func (r *LocationLogRepo) LatestByUser(ctx context.Context, userID string) (LocationSample, error) {
	const q = `
		SELECT id::text, user_id, lat, lng, accuracy_m, source, captured_at
		FROM location_samples
		WHERE user_id = $1
		ORDER BY captured_at DESC
		LIMIT 1;
	`
	var s LocationSample
	err := r.DB.QueryRowContext(ctx, q, userID).
		Scan(&s.ID, &s.UserID, &s.Lat, &s.Lng, &s.AccuracyM, &s.Source, &s.CapturedAt)
	if err == sql.ErrNoRows {
		return LocationSample{}, nil
	}
	return s, err
}
