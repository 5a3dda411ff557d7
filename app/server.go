package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"presensi/internal/db"
	"presensi/internal/geo"
	"presensi/internal/http/router"
	"presensi/internal/mq"
	"presensi/internal/repo"
	"presensi/internal/tracking"
	"presensi/internal/util"
	"presensi/internal/ws"
)

type Server struct {
	DB      *sql.DB
	Hub     *ws.Hub
	Tracker *tracking.Manager
	MQ      *mq.Publisher // nil when AMQP_URL is unset
	Handler http.Handler
}

// NewFromEnv wires the whole service from environment variables.
func NewFromEnv() (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	sqlDB, err := db.Connect(dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	hub := ws.NewHub(func(token string) (string, string, error) {
		uid, _, role, err := util.ParseAccessToken(token)
		return uid, role, err
	})

	var pub *mq.Publisher
	if url := os.Getenv("AMQP_URL"); url != "" {
		pub, err = mq.NewPublisher(url)
		if err != nil {
			// The feed and the log still work without the bus.
			log.Printf("amqp disabled: %v", err)
			pub = nil
		}
	}

	locLog := repo.NewLocationLogRepo(sqlDB)
	persist := func(ctx context.Context, userID string, fix geo.PositionFix) error {
		if err := locLog.SaveSample(ctx, userID, fix, "live"); err != nil {
			return err
		}
		hub.BroadcastJSON(map[string]any{
			"type":        "location_sample",
			"user_id":     userID,
			"lat":         fix.Lat,
			"lng":         fix.Lng,
			"accuracy_m":  fix.AccuracyM,
			"captured_at": fix.CapturedAt.UTC().Format(time.RFC3339),
		})
		if pub != nil {
			if err := pub.PublishSample(ctx, userID, fix, "live"); err != nil {
				log.Printf("amqp publish failed: %v", err)
			}
		}
		return nil
	}
	tracker := tracking.NewManager(persist, tracking.Options{})

	return &Server{
		DB:      sqlDB,
		Hub:     hub,
		Tracker: tracker,
		MQ:      pub,
		Handler: router.New(router.Deps{DB: sqlDB, Hub: hub, Tracker: tracker}),
	}, nil
}

func (s *Server) Close() {
	if s.MQ != nil {
		s.MQ.Close()
	}
	_ = s.DB.Close()
}
