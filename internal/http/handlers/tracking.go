package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"presensi/internal/geo"
	"presensi/internal/models"
	"presensi/internal/repo"
	"presensi/internal/tracking"
)

type TrackingHandler struct {
	Manager *tracking.Manager
	Log     *repo.LocationLogRepo
}

// Start: POST /tracking/start — open the caller's live-tracking session.
func (h *TrackingHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	sessionID, err := h.Manager.StartSession(uid)
	if err != nil {
		if errors.Is(err, tracking.ErrAlreadyTracking) {
			writeErrCode(w, http.StatusConflict, "already_tracking", err.Error(), nil)
			return
		}
		http.Error(w, "failed to start tracking", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session_id": sessionID})
}

// Ingest: POST /tracking/samples — one raw device sample through the throttle.
func (h *TrackingHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	var p fixPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !geo.ValidPoint(p.Lat, p.Lng) {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	accepted, err := h.Manager.Offer(ctx, uid, p.toFix())
	if err != nil {
		if errors.Is(err, tracking.ErrNoSession) {
			writeErrCode(w, http.StatusNotFound, "no_session", err.Error(), nil)
			return
		}
		http.Error(w, "failed to record sample", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accepted": accepted})
}

// Stop: POST /tracking/stop — end the caller's session.
func (h *TrackingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}
	stopped := h.Manager.StopSession(uid)
	writeJSON(w, http.StatusOK, map[string]any{"stopped": stopped})
}

// Latest: GET /tracking/latest?user_id= — manager view of an employee's
// newest persisted sample.
func (h *TrackingHandler) Latest(w http.ResponseWriter, r *http.Request) {
	uid, _, role, ok := mustAuth(w, r)
	if !ok {
		return
	}

	target := r.URL.Query().Get("user_id")
	if target == "" {
		target = uid
	}
	if target != uid && !models.CanManage(role) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Log.LatestByUser(ctx, target)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if s.ID == "" {
		writeJSON(w, http.StatusOK, map[string]any{"sample": nil, "tracking": h.Manager.Active(target)})
		return
	}

	resp := map[string]any{
		"user_id":     s.UserID,
		"lat":         s.Lat,
		"lng":         s.Lng,
		"source":      s.Source,
		"captured_at": s.CapturedAt.UTC().Format(time.RFC3339),
	}
	if s.AccuracyM.Valid {
		resp["accuracy_m"] = s.AccuracyM.Float64
	}
	writeJSON(w, http.StatusOK, map[string]any{"sample": resp, "tracking": h.Manager.Active(target)})
}
