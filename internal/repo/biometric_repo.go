package repo

import (
	"context"
	"database/sql"
)

type BiometricRepo struct{ DB *sql.DB }

func NewBiometricRepo(db *sql.DB) *BiometricRepo { return &BiometricRepo{DB: db} }

// Register stores (or replaces) the opaque credential id for a user.
func (r *BiometricRepo) Register(ctx context.Context, userID, credentialID string) error {
	const q = `
		INSERT INTO biometric_credentials (user_id, credential_id, registered_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET credential_id = EXCLUDED.credential_id, registered_at = NOW();
	`
	_, err := r.DB.ExecContext(ctx, q, userID, credentialID)
	return err
}

// CredentialID returns the stored credential, "" when none registered.
func (r *BiometricRepo) CredentialID(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx,
		`SELECT credential_id FROM biometric_credentials WHERE user_id = $1`, userID).
		Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}
