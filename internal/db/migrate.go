package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate bootstraps the schema. Idempotent; safe to run on every start.
func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

		`CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'employee',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token      TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS assigned_locations (
			user_id    UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			lat        DOUBLE PRECISION,
			lng        DOUBLE PRECISION,
			radius_m   DOUBLE PRECISION NOT NULL DEFAULT 100,
			label      TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS attendance_days (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id       UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			date          DATE NOT NULL,
			marked_at     TIMESTAMPTZ NOT NULL,
			lat           DOUBLE PRECISION NOT NULL,
			lng           DOUBLE PRECISION NOT NULL,
			accuracy_m    DOUBLE PRECISION,
			distance_m    INTEGER NOT NULL,
			status        TEXT NOT NULL DEFAULT 'present',
			selfie_base64 TEXT,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS location_samples (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			lat         DOUBLE PRECISION NOT NULL,
			lng         DOUBLE PRECISION NOT NULL,
			accuracy_m  DOUBLE PRECISION,
			source      TEXT NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_location_samples_user_captured
			ON location_samples (user_id, captured_at DESC)`,

		`CREATE TABLE IF NOT EXISTS biometric_credentials (
			user_id       UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			credential_id TEXT NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, q := range stmts {
		if _, err := sqlDB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
