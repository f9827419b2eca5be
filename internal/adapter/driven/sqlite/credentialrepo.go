package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port
// interface. It persists issuance bookkeeping only; agent secrets never
// reach this layer, only the commitment hash derived from them.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// RecordIssuance inserts the credential row and its audit-log entry inside a
// single transaction. Either both rows land or neither does.
func (r *CredentialRepo) RecordIssuance(ctx context.Context, cred model.Credential, entry model.AuditLog) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record issuance %s: begin: %w", cred.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	issuedAt := cred.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	const insertCred = `
		INSERT INTO credentials (id, agent_id, credential_hash, zk_proof, tx_hash, status, simulated, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertCred,
		cred.ID, cred.AgentID, cred.CredentialHash, cred.ZKProof, cred.TxHash,
		string(cred.Status), cred.Simulated, formatTime(issuedAt),
	); err != nil {
		return fmt.Errorf("record issuance %s: insert credential: %w", cred.ID, err)
	}

	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("record issuance %s: insert audit: %w", cred.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record issuance %s: commit: %w", cred.ID, err)
	}

	return nil
}

// GetByID returns the credential with the given id, or ErrCredentialNotFound.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (*model.Credential, error) {
	const query = `
		SELECT id, agent_id, credential_hash, zk_proof, tx_hash, status, simulated, issued_at, revoked_at
		FROM credentials WHERE id = ?`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	return cred, nil
}

// ListByAgent returns all credentials issued to the agent, newest first.
func (r *CredentialRepo) ListByAgent(ctx context.Context, agentID string) ([]model.Credential, error) {
	const query = `
		SELECT id, agent_id, credential_hash, zk_proof, tx_hash, status, simulated, issued_at, revoked_at
		FROM credentials WHERE agent_id = ? ORDER BY issued_at DESC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("list credentials for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Revoke flips the credential to revoked and stamps revoked_at. Revoking an
// already-revoked credential is a no-op that still succeeds.
func (r *CredentialRepo) Revoke(ctx context.Context, id string) error {
	const query = `
		UPDATE credentials SET status = ?, revoked_at = COALESCE(revoked_at, ?)
		WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		string(model.CredentialStatusRevoked), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("revoke credential %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke credential %s: rows affected: %w", id, err)
	}
	if rowsAffected == 0 {
		return driven.ErrCredentialNotFound
	}

	return nil
}

func scanCredential(row rowScanner) (*model.Credential, error) {
	var cred model.Credential
	var status, issuedAt string
	var revokedAt sql.NullString

	if err := row.Scan(
		&cred.ID, &cred.AgentID, &cred.CredentialHash, &cred.ZKProof, &cred.TxHash,
		&status, &cred.Simulated, &issuedAt, &revokedAt,
	); err != nil {
		return nil, err
	}

	cred.Status = model.CredentialStatus(status)

	var err error
	if cred.IssuedAt, err = parseTime(issuedAt); err != nil {
		return nil, fmt.Errorf("parse issued_at: %w", err)
	}
	if revokedAt.Valid {
		t, err := parseTime(revokedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse revoked_at: %w", err)
		}
		cred.RevokedAt = &t
	}

	return &cred, nil
}
