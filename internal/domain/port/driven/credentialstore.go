package driven

import (
	"context"
	"errors"

	"github.com/agentforge/zkcred/internal/domain/model"
)

// Sentinel errors returned by CredentialStore implementations.
var (
	// ErrCredentialNotFound indicates the requested credential does not exist.
	ErrCredentialNotFound = errors.New("credential not found")
)

// CredentialStore defines the driven port for credential bookkeeping rows.
type CredentialStore interface {
	// RecordIssuance inserts the credential row and its audit-log entry in a
	// single transaction so a partial provisioning failure leaves no trace.
	RecordIssuance(ctx context.Context, cred model.Credential, entry model.AuditLog) error

	GetByID(ctx context.Context, id string) (*model.Credential, error)
	ListByAgent(ctx context.Context, agentID string) ([]model.Credential, error)

	// Revoke flips the credential status to revoked and stamps revoked_at.
	// Returns ErrCredentialNotFound if no row matched.
	Revoke(ctx context.Context, id string) error
}
