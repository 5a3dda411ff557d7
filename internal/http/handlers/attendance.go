package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"presensi/internal/attendance"
	"presensi/internal/geo"
	"presensi/internal/geofence"
	"presensi/internal/location"
	"presensi/internal/repo"
	"presensi/internal/util"
	"presensi/internal/util/imgutil"
)

// CredentialSource reads the registered biometric credential for a user.
type CredentialSource interface {
	CredentialID(ctx context.Context, userID string) (string, error)
}

// SelfieStore attaches the optional selfie to an existing mark.
type SelfieStore interface {
	AttachSelfie(ctx context.Context, userID string, date time.Time, selfieB64 string) error
}

type AttendanceHandler struct {
	Assignments attendance.AssignmentSource
	Store       attendance.Store
	Samples     attendance.SampleLog
	Creds       CredentialSource
	Selfies     SelfieStore

	// Read side (status, calendar); same repo object as Store in practice.
	Days *repo.AttendanceRepo
}

type fixPayload struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	CapturedAt time.Time `json:"captured_at,omitempty"`
}

func (p fixPayload) toFix() geo.PositionFix {
	at := p.CapturedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return geo.PositionFix{Lat: p.Lat, Lng: p.Lng, AccuracyM: p.AccuracyM, CapturedAt: at}
}

// markReq is what the browser reports about its positioning hardware. The
// device runs client-side; the payload replays its output through the same
// acquisition pipeline a local provider would feed.
type markReq struct {
	Permission         string       `json:"permission"` // granted | prompt | denied | unsupported
	Fix                *fixPayload  `json:"fix,omitempty"`
	FixError           string       `json:"fix_error,omitempty"` // unavailable | timeout
	RefinementFixes    []fixPayload `json:"refinement_fixes,omitempty"`
	BiometricAssertion string       `json:"biometric_assertion"`
	SelfieBase64       string       `json:"selfie_base64,omitempty"`
}

func (req markReq) provider() (*location.Replay, error) {
	rp := &location.Replay{Supported: req.Permission != "unsupported"}

	switch req.Permission {
	case "granted", "":
		rp.State = location.PermissionGranted
	case "prompt":
		rp.State = location.PermissionPrompt
	case "denied":
		rp.State = location.PermissionDenied
	case "unsupported":
	default:
		return nil, errors.New("unknown permission state")
	}

	switch req.FixError {
	case "":
	case "unavailable":
		rp.FixErr = location.ErrUnavailable
	case "timeout":
		rp.FixErr = location.ErrTimeout
	default:
		return nil, errors.New("unknown fix_error")
	}

	if req.Fix != nil {
		if !geo.ValidPoint(req.Fix.Lat, req.Fix.Lng) {
			return nil, errors.New("fix coordinates out of range")
		}
		f := req.Fix.toFix()
		rp.Fix = &f
	}
	for _, p := range req.RefinementFixes {
		if !geo.ValidPoint(p.Lat, p.Lng) {
			return nil, errors.New("refinement coordinates out of range")
		}
		rp.WatchFixes = append(rp.WatchFixes, p.toFix())
	}
	return rp, nil
}

// assertionGate adapts the stored credential into the opaque pass/fail
// biometric gate: the posted assertion must match the registered credential.
type assertionGate struct {
	creds     CredentialSource
	assertion string
}

func (g *assertionGate) Verify(ctx context.Context, subjectID string) (bool, error) {
	stored, err := g.creds.CredentialID(ctx, subjectID)
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, errors.New("no fingerprint registered for this account")
	}
	return g.assertion != "" && g.assertion == stored, nil
}

// Mark runs the whole attendance workflow for the caller.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	var req markReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	provider, err := req.provider()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	marker := &attendance.Marker{
		Location:    location.NewService(provider),
		Assignments: h.Assignments,
		Biometric:   &assertionGate{creds: h.Creds, assertion: req.BiometricAssertion},
		Store:       h.Store,
		Samples:     h.Samples,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := marker.Mark(ctx, uid)
	if err != nil {
		var oor *attendance.OutOfRangeError
		switch {
		case errors.As(err, &oor):
			writeErrCode(w, http.StatusUnprocessableEntity, "outside_radius", oor.Error(), map[string]any{
				"distance_m": oor.Result.DistanceM,
			})
		case errors.Is(err, geofence.ErrNotConfigured):
			writeErrCode(w, http.StatusUnprocessableEntity, "assignment_missing", err.Error(), nil)
		default:
			writeErrCode(w, http.StatusBadRequest, "attendance_failed", err.Error(), nil)
		}
		return
	}

	// Selfie is decoration on the record, never a gate.
	if strings.TrimSpace(req.SelfieBase64) != "" && h.Selfies != nil {
		if normB64, err := imgutil.NormalizeBase64(req.SelfieBase64); err != nil {
			log.Printf("attendance: selfie normalize failed for %s: %v", uid, err)
		} else if err := h.Selfies.AttachSelfie(ctx, uid, util.WorkDate(res.MarkedAt), normB64); err != nil {
			log.Printf("attendance: selfie store failed for %s: %v", uid, err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"result":     "marked",
		"date":       util.WorkDate(res.MarkedAt).Format("2006-01-02"),
		"marked_at":  res.MarkedAt.Format(time.RFC3339),
		"distance_m": res.DistanceM,
		"fix":        res.Fix,
	})
}

// Status returns today's record, if any.
func (h *AttendanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	today := util.WorkDate(time.Now())
	day, err := h.Days.GetByUserAndDate(ctx, uid, today)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"date":   today.Format("2006-01-02"),
		"marked": day.ID != "",
	}
	if day.ID != "" {
		resp["marked_at"] = day.MarkedAt.UTC().Format(time.RFC3339)
		resp["distance_m"] = day.DistanceM
		resp["status"] = day.Status
	}
	writeJSON(w, http.StatusOK, resp)
}

type marksResp struct {
	Month       string   `json:"month"`
	DaysPresent []string `json:"days_present"`
}

// GetMarks: GET /attendance/marks?month=YYYY-MM
func (h *AttendanceHandler) GetMarks(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	month := r.URL.Query().Get("month")
	var start time.Time
	var err error
	if month == "" {
		now := time.Now().In(util.WorkTZ)
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, util.WorkTZ)
	} else {
		start, err = time.ParseInLocation("2006-01", month, util.WorkTZ)
		if err != nil {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
	}
	end := start.AddDate(0, 1, 0)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dates, err := h.Days.ListMarkedDays(ctx, uid, start, end)
	if err != nil {
		http.Error(w, "query failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	out := marksResp{
		Month:       start.Format("2006-01"),
		DaysPresent: make([]string, 0, len(dates)),
	}
	for _, d := range dates {
		out.DaysPresent = append(out.DaysPresent, d.Format("2006-01-02"))
	}
	writeJSON(w, http.StatusOK, out)
}

// History: GET /attendance/history — newest records first.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	days, err := h.Days.ListRecent(ctx, uid, 60)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	type row struct {
		Date      string   `json:"date"`
		MarkedAt  string   `json:"marked_at"`
		Lat       float64  `json:"lat"`
		Lng       float64  `json:"lng"`
		DistanceM int      `json:"distance_m"`
		AccuracyM *float64 `json:"accuracy_m,omitempty"`
		Status    string   `json:"status"`
	}
	out := make([]row, 0, len(days))
	for _, d := range days {
		rw := row{
			Date:      d.Date.Format("2006-01-02"),
			MarkedAt:  d.MarkedAt.UTC().Format(time.RFC3339),
			Lat:       d.Lat,
			Lng:       d.Lng,
			DistanceM: d.DistanceM,
			Status:    d.Status,
		}
		if d.AccuracyM.Valid {
			rw.AccuracyM = &d.AccuracyM.Float64
		}
		out = append(out, rw)
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}
