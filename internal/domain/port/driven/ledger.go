package driven

import (
	"context"
	"errors"

	"github.com/agentforge/zkcred/internal/domain/model"
)

// Sentinel errors returned by Ledger implementations.
var (
	// ErrEmptySecret indicates an issue or verify call with an empty agent secret.
	ErrEmptySecret = errors.New("agent secret must not be empty")

	// ErrLedgerUnavailable indicates the external subsystem could not be reached
	// and no fallback was in play.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)

// Ledger defines the driven port for the external verification subsystem.
// Calls may block for multiple seconds while the subsystem generates proofs;
// callers cancel only through the context.
type Ledger interface {
	// IssueCredential submits the issue circuit for the agent's secret and
	// returns the transaction handle plus the commitment hash it recorded.
	IssueCredential(ctx context.Context, agentID, agentSecret string) (model.IssueResult, error)

	// VerifyAuthorization proves that agentSecret corresponds to
	// expectedHash. A verification that completes with Verified=false is not
	// an error.
	VerifyAuthorization(ctx context.Context, agentID, agentSecret, expectedHash string) (model.VerifyResult, error)

	// ReportBlocked records a blocked access attempt on the ledger and
	// returns the transaction handle. It is the only mutator of the
	// blocked-attempts counter.
	ReportBlocked(ctx context.Context) (string, error)

	// Stats returns the current ledger counters.
	Stats(ctx context.Context) (model.LedgerStats, error)

	// Available is a health probe. It never returns an error; any
	// connectivity failure reports false.
	Available(ctx context.Context) bool
}
