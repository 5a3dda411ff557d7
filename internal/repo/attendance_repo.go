package repo

import (
	"context"
	"database/sql"
	"time"

	"presensi/internal/geo"
	"presensi/internal/util"
)

type AttendanceRepo struct{ DB *sql.DB }

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{DB: db} }

type AttendanceDay struct {
	ID        string
	UserID    string
	Date      time.Time // 00:00 local anchor, stored as DATE
	MarkedAt  time.Time
	Lat       float64
	Lng       float64
	AccuracyM sql.NullFloat64
	DistanceM int
	Status    string
}

// SaveAttendance upserts the record keyed by (user_id, date of at in the
// company timezone). A repeated successful mark on the same day overwrites
// rather than duplicates.
func (r *AttendanceRepo) SaveAttendance(ctx context.Context, userID string, at time.Time, fix geo.PositionFix, distanceM int) error {
	const q = `
		INSERT INTO attendance_days (user_id, date, marked_at, lat, lng, accuracy_m, distance_m, status)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, 'present')
		ON CONFLICT (user_id, date)
		DO UPDATE SET
			marked_at = EXCLUDED.marked_at,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			accuracy_m = EXCLUDED.accuracy_m,
			distance_m = EXCLUDED.distance_m,
			status = EXCLUDED.status,
			updated_at = NOW();
	`
	var acc sql.NullFloat64
	if v, ok := fix.Accuracy(); ok {
		acc = sql.NullFloat64{Float64: v, Valid: true}
	}
	date := util.WorkDate(at).Format("2006-01-02")
	_, err := r.DB.ExecContext(ctx, q, userID, date, at, fix.Lat, fix.Lng, acc, distanceM)
	return err
}

// AttachSelfie stores the normalized selfie for an existing mark.
func (r *AttendanceRepo) AttachSelfie(ctx context.Context, userID string, date time.Time, selfieB64 string) error {
	const q = `
		UPDATE attendance_days
		SET selfie_base64 = $3, updated_at = NOW()
		WHERE user_id = $1 AND date = $2::date;
	`
	_, err := r.DB.ExecContext(ctx, q, userID, date.Format("2006-01-02"), selfieB64)
	return err
}

// GetByUserAndDate returns the record for one day, zero value when absent.
func (r *AttendanceRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (AttendanceDay, error) {
	const q = `
		SELECT id::text, user_id, date, marked_at, lat, lng, accuracy_m, distance_m, status
		FROM attendance_days
		WHERE user_id=$1 AND date=$2::date;
	`
	var ad AttendanceDay
	err := r.DB.QueryRowContext(ctx, q, userID, date.Format("2006-01-02")).
		Scan(&ad.ID, &ad.UserID, &ad.Date, &ad.MarkedAt, &ad.Lat, &ad.Lng, &ad.AccuracyM, &ad.DistanceM, &ad.Status)
	if err == sql.ErrNoRows {
		return AttendanceDay{}, nil
	}
	return ad, err
}

// ListMarkedDays returns the dates inside [from, to) with a mark.
func (r *AttendanceRepo) ListMarkedDays(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	const q = `
		SELECT date
		FROM attendance_days
		WHERE user_id = $1
		  AND date >= $2::date
		  AND date <  $3::date
		ORDER BY date;
	`
	rows, err := r.DB.QueryContext(ctx, q,
		userID,
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListRecent returns the newest records first, for the history table.
func (r *AttendanceRepo) ListRecent(ctx context.Context, userID string, limit int) ([]AttendanceDay, error) {
	if limit <= 0 {
		limit = 30
	}
	const q = `
		SELECT id::text, user_id, date, marked_at, lat, lng, accuracy_m, distance_m, status
		FROM attendance_days
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2;
	`
	rows, err := r.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceDay
	for rows.Next() {
		var ad AttendanceDay
		if err := rows.Scan(&ad.ID, &ad.UserID, &ad.Date, &ad.MarkedAt, &ad.Lat, &ad.Lng, &ad.AccuracyM, &ad.DistanceM, &ad.Status); err != nil {
			return nil, err
		}
		out = append(out, ad)
	}
	return out, rows.Err()
}
