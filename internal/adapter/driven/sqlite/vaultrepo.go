package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
	"github.com/agentforge/zkcred/internal/secretbox"
)

// Compile-time interface satisfaction check.
var _ driven.VaultStore = (*VaultRepo)(nil)

// VaultRepo is the SQLite implementation of the VaultStore port interface.
// Secret values are encrypted with the secretbox before write and decrypted
// after read; the key comes from process configuration and is never stored
// next to the ciphertext.
type VaultRepo struct {
	db  *DB
	box *secretbox.Box // nil when encryption is disabled.
}

// NewVaultRepo creates a new VaultRepo. box may be nil to disable the vault
// (all operations return ErrEncryptionKeyNotSet).
func NewVaultRepo(db *DB, box *secretbox.Box) *VaultRepo {
	return &VaultRepo{db: db, box: box}
}

// Set encrypts and stores or replaces the named secret.
func (r *VaultRepo) Set(ctx context.Context, name, plaintext, serviceURL, provider string) error {
	if r.box == nil {
		return driven.ErrEncryptionKeyNotSet
	}

	ciphertext, nonce, err := r.box.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt secret %q: %w", name, err)
	}

	const query = `
		INSERT INTO vault_secrets (name, ciphertext, nonce, service_url, provider, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			nonce = excluded.nonce,
			service_url = excluded.service_url,
			provider = excluded.provider,
			updated_at = excluded.updated_at`

	now := formatTime(time.Now().UTC())
	if _, err := r.db.Writer.ExecContext(ctx, query,
		name, ciphertext, nonce, serviceURL, provider, now, now); err != nil {
		return fmt.Errorf("set secret %q: %w", name, err)
	}

	return nil
}

// GetPlaintext retrieves and decrypts the named secret, returning its
// metadata in the same read. Callers hold the plaintext in memory only; it
// must never reach a response payload or a log.
func (r *VaultRepo) GetPlaintext(ctx context.Context, name string) (string, model.VaultSecret, error) {
	if r.box == nil {
		return "", model.VaultSecret{}, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT ciphertext, nonce, service_url, provider FROM vault_secrets WHERE name = ?`

	var ciphertext, nonce string
	meta := model.VaultSecret{Name: name}
	err := r.db.Reader.QueryRowContext(ctx, query, name).
		Scan(&ciphertext, &nonce, &meta.ServiceURL, &meta.Provider)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.VaultSecret{}, driven.ErrSecretNotFound
	}
	if err != nil {
		return "", model.VaultSecret{}, fmt.Errorf("get secret %q: %w", name, err)
	}

	plaintext, err := r.box.Decrypt(ciphertext, nonce)
	if err != nil {
		return "", model.VaultSecret{}, fmt.Errorf("decrypt secret %q: %w", name, err)
	}

	return plaintext, meta, nil
}

// List returns metadata for all stored secrets. Values stay encrypted.
func (r *VaultRepo) List(ctx context.Context) ([]model.VaultSecret, error) {
	const query = `
		SELECT name, ciphertext, nonce, service_url, provider, created_at, updated_at
		FROM vault_secrets ORDER BY name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	defer rows.Close()

	var secrets []model.VaultSecret
	for rows.Next() {
		var s model.VaultSecret
		var createdAt, updatedAt string

		if err := rows.Scan(&s.Name, &s.Ciphertext, &s.Nonce, &s.ServiceURL,
			&s.Provider, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan secret: %w", err)
		}

		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for secret %q: %w", s.Name, err)
		}
		if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at for secret %q: %w", s.Name, err)
		}

		secrets = append(secrets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate secrets: %w", err)
	}

	return secrets, nil
}

// Delete removes the named secret. Deleting a nonexistent secret is a no-op.
func (r *VaultRepo) Delete(ctx context.Context, name string) error {
	const query = `DELETE FROM vault_secrets WHERE name = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("delete secret %q: %w", name, err)
	}

	return nil
}
