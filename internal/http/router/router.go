package router

import (
	"database/sql"
	"net/http"

	"presensi/internal/http/handlers"
	"presensi/internal/repo"
	"presensi/internal/tracking"
	"presensi/internal/ws"
)

// Deps is everything the routes need beyond the database.
type Deps struct {
	DB      *sql.DB
	Hub     *ws.Hub
	Tracker *tracking.Manager
}

func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	uh := &handlers.AuthHandler{
		Users:       repo.NewUserRepo(d.DB),
		RefreshRepo: repo.NewRefreshRepo(d.DB),
	}
	mux.HandleFunc("POST /register", uh.Register)
	mux.HandleFunc("POST /login", uh.Login)
	mux.HandleFunc("POST /refresh", uh.RefreshToken)
	mux.HandleFunc("POST /logout", uh.Logout)
	mux.HandleFunc("GET /get-user", uh.GetUser)

	attRepo := repo.NewAttendanceRepo(d.DB)
	ah := &handlers.AttendanceHandler{
		Assignments: repo.NewAssignmentRepo(d.DB),
		Store:       attRepo,
		Samples:     repo.NewLocationLogRepo(d.DB),
		Creds:       repo.NewBiometricRepo(d.DB),
		Selfies:     attRepo,
		Days:        attRepo,
	}
	mux.HandleFunc("POST /attendance/mark", ah.Mark)
	mux.HandleFunc("GET /attendance/status", ah.Status)
	mux.HandleFunc("GET /attendance/marks", ah.GetMarks)
	mux.HandleFunc("GET /attendance/history", ah.History)

	lh := &handlers.AssignmentHandler{Assignments: repo.NewAssignmentRepo(d.DB)}
	mux.HandleFunc("GET /assignment", lh.My)
	mux.HandleFunc("PUT /assignment/{userID}", lh.Set)

	bh := &handlers.BiometricHandler{Creds: repo.NewBiometricRepo(d.DB)}
	mux.HandleFunc("POST /biometric/register", bh.Register)
	mux.HandleFunc("GET /biometric/status", bh.Status)

	th := &handlers.TrackingHandler{Manager: d.Tracker, Log: repo.NewLocationLogRepo(d.DB)}
	mux.HandleFunc("POST /tracking/start", th.Start)
	mux.HandleFunc("POST /tracking/samples", th.Ingest)
	mux.HandleFunc("POST /tracking/stop", th.Stop)
	mux.HandleFunc("GET /tracking/latest", th.Latest)

	if d.Hub != nil {
		mux.HandleFunc("GET /ws/live", d.Hub.ServeWS)
	}

	return mux
}
