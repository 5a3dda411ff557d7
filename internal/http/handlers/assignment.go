package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"presensi/internal/geo"
	"presensi/internal/geofence"
	"presensi/internal/models"
	"presensi/internal/repo"
)

type AssignmentHandler struct {
	Assignments *repo.AssignmentRepo
}

// My: GET /assignment — the caller's assigned work site.
func (h *AssignmentHandler) My(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, err := h.Assignments.AssignedLocation(ctx, uid)
	if err != nil {
		if errors.Is(err, geofence.ErrNotConfigured) {
			writeJSON(w, http.StatusOK, map[string]any{"assigned_location": nil})
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assigned_location": a})
}

type assignReq struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM float64 `json:"radius_m,omitempty"`
	Label   string  `json:"label,omitempty"`
}

// Set: PUT /assignment/{userID} — managers only.
func (h *AssignmentHandler) Set(w http.ResponseWriter, r *http.Request) {
	_, _, role, ok := mustAuth(w, r)
	if !ok {
		return
	}
	if !models.CanManage(role) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	targetID := r.PathValue("userID")
	if targetID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	var req assignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !geo.ValidPoint(req.Lat, req.Lng) {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}
	if req.RadiusM == 0 {
		req.RadiusM = geofence.DefaultRadiusM
	}
	if req.RadiusM < geofence.MinRadiusM || req.RadiusM > geofence.MaxRadiusM {
		http.Error(w, "radius out of range", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Assignments.Upsert(ctx, targetID, req.Lat, req.Lng, req.RadiusM, req.Label); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "assignment updated"})
}
