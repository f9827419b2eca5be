package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.VerificationStore = (*VerificationRepo)(nil)

// VerificationRepo is the SQLite implementation of the VerificationStore port
// interface. One row per verification attempt, append-only.
type VerificationRepo struct {
	db *DB
}

// NewVerificationRepo creates a new VerificationRepo backed by the given DB.
func NewVerificationRepo(db *DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

// Append inserts one proof-verification row.
func (r *VerificationRepo) Append(ctx context.Context, v model.ProofVerification) error {
	const query = `
		INSERT INTO proof_verifications (credential_id, verified, zk_proof, tx_hash, error_message, simulated, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	verifiedAt := v.VerifiedAt
	if verifiedAt.IsZero() {
		verifiedAt = time.Now().UTC()
	}

	var errMsg any
	if v.ErrorMessage != "" {
		errMsg = v.ErrorMessage
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		v.CredentialID, v.Verified, v.ZKProof, v.TxHash, errMsg, v.Simulated, formatTime(verifiedAt),
	)
	if err != nil {
		return fmt.Errorf("append verification for credential %s: %w", v.CredentialID, err)
	}

	return nil
}

// ListByCredential returns all verification attempts for the credential,
// newest first.
func (r *VerificationRepo) ListByCredential(ctx context.Context, credentialID string) ([]model.ProofVerification, error) {
	const query = `
		SELECT id, credential_id, verified, zk_proof, tx_hash, error_message, simulated, verified_at
		FROM proof_verifications WHERE credential_id = ?
		ORDER BY verified_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("list verifications for credential %s: %w", credentialID, err)
	}
	defer rows.Close()

	verifications := []model.ProofVerification{}
	for rows.Next() {
		var v model.ProofVerification
		var errMsg sql.NullString
		var verifiedAt string

		if err := rows.Scan(&v.ID, &v.CredentialID, &v.Verified, &v.ZKProof,
			&v.TxHash, &errMsg, &v.Simulated, &verifiedAt); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}

		v.ErrorMessage = errMsg.String
		if v.VerifiedAt, err = parseTime(verifiedAt); err != nil {
			return nil, fmt.Errorf("parse verified_at: %w", err)
		}

		verifications = append(verifications, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}

	return verifications, nil
}
