package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"presensi/internal/util"
)

// mustAuth parses the bearer token and writes 401 itself on failure.
func mustAuth(w http.ResponseWriter, r *http.Request) (userID, username, role string, ok bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return "", "", "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	uid, usr, rl, err := util.ParseAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return "", "", "", false
	}
	return uid, usr, rl, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrCode(w http.ResponseWriter, code int, errCode, message string, details map[string]any) {
	body := map[string]any{"code": errCode}
	if message != "" {
		body["message"] = message
	}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, code, map[string]any{"error": body})
}
