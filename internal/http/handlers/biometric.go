package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"presensi/internal/repo"
)

type BiometricHandler struct {
	Creds *repo.BiometricRepo
}

type biometricRegisterReq struct {
	CredentialID string `json:"credential_id"`
}

// Register stores the opaque credential id produced by the client-side
// ceremony. The ceremony itself is not this backend's business.
func (h *BiometricHandler) Register(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	var req biometricRegisterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.CredentialID) == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Creds.Register(ctx, uid, strings.TrimSpace(req.CredentialID)); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "fingerprint registered"})
}

// Status reports whether the caller has a registered credential.
func (h *BiometricHandler) Status(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := mustAuth(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, err := h.Creds.CredentialID(ctx, uid)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registered": id != ""})
}
