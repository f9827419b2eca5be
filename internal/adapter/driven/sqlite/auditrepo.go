package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuditStore = (*AuditRepo)(nil)

// AuditRepo is the SQLite implementation of the AuditStore port interface.
// Rows are append-only; the repo exposes no update or delete.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates a new AuditRepo backed by the given DB.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append inserts one audit-log row.
func (r *AuditRepo) Append(ctx context.Context, entry model.AuditLog) error {
	if err := insertAudit(ctx, r.db.Writer, entry); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// ListByWallet returns the newest-first audit entries attributed to agents
// owned by the wallet, up to limit rows.
func (r *AuditRepo) ListByWallet(ctx context.Context, walletAddress string, limit int) ([]model.AuditLog, error) {
	const query = `
		SELECT a.id, a.agent_id, a.action, a.resource, a.result, a.tx_hash, a.metadata, a.created_at
		FROM audit_logs a
		JOIN agents ag ON ag.id = a.agent_id
		WHERE ag.wallet_address = ?
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, walletAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs for %s: %w", walletAddress, err)
	}
	defer rows.Close()

	entries := []model.AuditLog{}
	for rows.Next() {
		var entry model.AuditLog
		var agentID sql.NullString
		var result, metadata, createdAt string

		if err := rows.Scan(&entry.ID, &agentID, &entry.Action, &entry.Resource,
			&result, &entry.TxHash, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		if agentID.Valid {
			id := agentID.String
			entry.AgentID = &id
		}
		entry.Result = model.AuditResult(result)
		if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}

	return entries, nil
}

// execer abstracts *sql.DB and *sql.Tx so the audit insert can run inside the
// issuance transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAudit(ctx context.Context, ex execer, entry model.AuditLog) error {
	const query = `
		INSERT INTO audit_logs (agent_id, action, resource, result, tx_hash, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	metadata, err := marshalJSON(entry.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var agentID any
	if entry.AgentID != nil {
		agentID = *entry.AgentID
	}

	_, err = ex.ExecContext(ctx, query,
		agentID, entry.Action, entry.Resource, string(entry.Result),
		entry.TxHash, metadata, formatTime(createdAt),
	)
	return err
}

func insertAuditTx(ctx context.Context, tx *sql.Tx, entry model.AuditLog) error {
	return insertAudit(ctx, tx, entry)
}
