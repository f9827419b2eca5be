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
var _ driven.WalletStore = (*WalletRepo)(nil)

// WalletRepo is the SQLite implementation of the WalletStore port interface.
type WalletRepo struct {
	db *DB
}

// NewWalletRepo creates a new WalletRepo backed by the given DB.
func NewWalletRepo(db *DB) *WalletRepo {
	return &WalletRepo{db: db}
}

// Upsert creates the wallet row on first connect; subsequent connects refresh
// the display name and last-login timestamp but keep connected_at.
func (r *WalletRepo) Upsert(ctx context.Context, wallet model.Wallet) error {
	const query = `
		INSERT INTO wallets (address, name, connected_at, last_login_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET name = excluded.name, last_login_at = excluded.last_login_at`

	now := time.Now().UTC()
	connectedAt := wallet.ConnectedAt
	if connectedAt.IsZero() {
		connectedAt = now
	}
	lastLogin := wallet.LastLoginAt
	if lastLogin.IsZero() {
		lastLogin = now
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		wallet.Address, wallet.Name, formatTime(connectedAt), formatTime(lastLogin))
	if err != nil {
		return fmt.Errorf("upsert wallet %s: %w", wallet.Address, err)
	}

	return nil
}

// GetByAddress returns the wallet row, or ErrWalletNotFound.
func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*model.Wallet, error) {
	const query = `SELECT address, name, connected_at, last_login_at FROM wallets WHERE address = ?`

	var wallet model.Wallet
	var connectedAt, lastLogin string

	err := r.db.Reader.QueryRowContext(ctx, query, address).
		Scan(&wallet.Address, &wallet.Name, &connectedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet %s: %w", address, err)
	}

	if wallet.ConnectedAt, err = parseTime(connectedAt); err != nil {
		return nil, fmt.Errorf("parse connected_at: %w", err)
	}
	if wallet.LastLoginAt, err = parseTime(lastLogin); err != nil {
		return nil, fmt.Errorf("parse last_login_at: %w", err)
	}

	return &wallet, nil
}

// Stats aggregates the wallet's dashboard counters across the agent,
// credential and verification tables in one query.
func (r *WalletRepo) Stats(ctx context.Context, address string) (model.WalletStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM agents WHERE wallet_address = ?),
			(SELECT COUNT(*) FROM agents WHERE wallet_address = ? AND status = 'active'),
			(SELECT COUNT(*) FROM credentials c JOIN agents a ON a.id = c.agent_id WHERE a.wallet_address = ?),
			(SELECT COUNT(*) FROM proof_verifications v JOIN credentials c ON c.id = v.credential_id
				JOIN agents a ON a.id = c.agent_id WHERE a.wallet_address = ?),
			(SELECT COUNT(*) FROM proof_verifications v JOIN credentials c ON c.id = v.credential_id
				JOIN agents a ON a.id = c.agent_id WHERE a.wallet_address = ? AND v.verified = 1),
			(SELECT COUNT(*) FROM proof_verifications v JOIN credentials c ON c.id = v.credential_id
				JOIN agents a ON a.id = c.agent_id WHERE a.wallet_address = ? AND v.verified = 0)`

	var stats model.WalletStats
	err := r.db.Reader.QueryRowContext(ctx, query,
		address, address, address, address, address, address).
		Scan(&stats.Agents, &stats.ActiveAgents, &stats.Credentials,
			&stats.Verifications, &stats.SuccessfulProofs, &stats.BlockedAttempts)
	if err != nil {
		return model.WalletStats{}, fmt.Errorf("wallet stats %s: %w", address, err)
	}

	return stats, nil
}
