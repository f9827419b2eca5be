package driven

import (
	"context"

	"github.com/agentforge/zkcred/internal/domain/model"
)

// VerificationStore defines the driven port for proof-verification records.
// The table is append-only: there is no update or delete operation.
type VerificationStore interface {
	Append(ctx context.Context, v model.ProofVerification) error
	ListByCredential(ctx context.Context, credentialID string) ([]model.ProofVerification, error)
}
