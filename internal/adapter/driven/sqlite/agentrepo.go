package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AgentStore = (*AgentRepo)(nil)

// AgentRepo is the SQLite implementation of the AgentStore port interface.
type AgentRepo struct {
	db *DB
}

// NewAgentRepo creates a new AgentRepo backed by the given DB.
func NewAgentRepo(db *DB) *AgentRepo {
	return &AgentRepo{db: db}
}

// Create inserts a new agent row. Capabilities, scope, and metadata are
// stored as JSON text columns.
func (r *AgentRepo) Create(ctx context.Context, agent model.Agent) error {
	const query = `
		INSERT INTO agents (id, wallet_address, name, description, type, status,
			capabilities, rate_limit, expiry_hours, scope, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	capabilities, err := marshalJSON(agent.Capabilities, "[]")
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}
	scope, err := marshalJSON(agent.Scope, "{}")
	if err != nil {
		return fmt.Errorf("marshal scope: %w", err)
	}
	metadata, err := marshalJSON(agent.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	now := time.Now().UTC()
	createdAt := agent.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := agent.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		agent.ID, agent.WalletAddress, agent.Name, agent.Description, agent.Type,
		string(agent.Status), capabilities, agent.RateLimit, agent.ExpiryHours,
		scope, metadata, formatTime(createdAt), formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("create agent %s: %w", agent.ID, err)
	}

	return nil
}

// GetByID returns the agent with the given id, or (nil, nil) semantics via
// ErrAgentNotFound when no row exists.
func (r *AgentRepo) GetByID(ctx context.Context, id string) (*model.Agent, error) {
	const query = `
		SELECT id, wallet_address, name, description, type, status,
			capabilities, rate_limit, expiry_hours, scope, metadata, created_at, updated_at
		FROM agents WHERE id = ?`

	agent, err := scanAgent(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agent %s: %w", id, err)
	}

	return agent, nil
}

// ListByWallet returns all agents owned by the given wallet address, newest first.
func (r *AgentRepo) ListByWallet(ctx context.Context, walletAddress string) ([]model.Agent, error) {
	const query = `
		SELECT id, wallet_address, name, description, type, status,
			capabilities, rate_limit, expiry_hours, scope, metadata, created_at, updated_at
		FROM agents WHERE wallet_address = ? ORDER BY created_at DESC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("list agents for %s: %w", walletAddress, err)
	}
	defer rows.Close()

	agents := []model.Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, *agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}

	return agents, nil
}

// Update rewrites the mutable agent columns and bumps updated_at.
func (r *AgentRepo) Update(ctx context.Context, agent model.Agent) error {
	const query = `
		UPDATE agents SET name = ?, description = ?, type = ?, status = ?,
			capabilities = ?, rate_limit = ?, expiry_hours = ?, scope = ?, metadata = ?,
			updated_at = ?
		WHERE id = ?`

	capabilities, err := marshalJSON(agent.Capabilities, "[]")
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}
	scope, err := marshalJSON(agent.Scope, "{}")
	if err != nil {
		return fmt.Errorf("marshal scope: %w", err)
	}
	metadata, err := marshalJSON(agent.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		agent.Name, agent.Description, agent.Type, string(agent.Status),
		capabilities, agent.RateLimit, agent.ExpiryHours, scope, metadata,
		formatTime(time.Now().UTC()), agent.ID,
	)
	if err != nil {
		return fmt.Errorf("update agent %s: %w", agent.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update agent %s: rows affected: %w", agent.ID, err)
	}
	if rowsAffected == 0 {
		return driven.ErrAgentNotFound
	}

	return nil
}

// Delete removes the agent. Credentials and verification rows go with it via
// foreign key cascade; audit rows keep a NULL agent reference.
func (r *AgentRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM agents WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete agent %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete agent %s: rows affected: %w", id, err)
	}
	if rowsAffected == 0 {
		return driven.ErrAgentNotFound
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*model.Agent, error) {
	var agent model.Agent
	var status, capabilities, scope, metadata, createdAt, updatedAt string

	if err := row.Scan(
		&agent.ID, &agent.WalletAddress, &agent.Name, &agent.Description, &agent.Type,
		&status, &capabilities, &agent.RateLimit, &agent.ExpiryHours,
		&scope, &metadata, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	agent.Status = model.AgentStatus(status)
	if err := json.Unmarshal([]byte(capabilities), &agent.Capabilities); err != nil {
		return nil, fmt.Errorf("unmarshal capabilities: %w", err)
	}
	if err := json.Unmarshal([]byte(scope), &agent.Scope); err != nil {
		return nil, fmt.Errorf("unmarshal scope: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &agent.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	var err error
	if agent.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if agent.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &agent, nil
}

// marshalJSON marshals v, substituting the given empty literal for nil so the
// columns never hold SQL-visible NULL JSON.
func marshalJSON(v any, empty string) (string, error) {
	if v == nil {
		return empty, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
