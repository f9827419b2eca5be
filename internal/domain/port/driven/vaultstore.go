package driven

import (
	"context"
	"errors"

	"github.com/agentforge/zkcred/internal/domain/model"
)

// Sentinel errors returned by VaultStore implementations.
var (
	// ErrSecretNotFound indicates no vault secret exists with that name.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrEncryptionKeyNotSet is returned by VaultStore operations when
	// ZKCRED_SECRET_KEY has not been configured.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set ZKCRED_SECRET_KEY")
)

// VaultStore defines the driven port for encrypted vault secrets. The adapter
// owns encryption and decryption; this interface carries plaintext values at
// the domain boundary and callers must never let them reach a response or log.
type VaultStore interface {
	// Set encrypts and stores or replaces the named secret.
	Set(ctx context.Context, name, plaintext, serviceURL, provider string) error

	// GetPlaintext retrieves and decrypts the named secret, along with its
	// metadata (the value fields of the returned VaultSecret stay empty).
	// Returns ErrSecretNotFound if no secret exists with that name.
	GetPlaintext(ctx context.Context, name string) (string, model.VaultSecret, error)

	// List returns secret metadata only; values stay encrypted at rest.
	List(ctx context.Context) ([]model.VaultSecret, error)

	Delete(ctx context.Context, name string) error
}
