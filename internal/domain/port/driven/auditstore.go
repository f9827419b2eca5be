package driven

import (
	"context"

	"github.com/agentforge/zkcred/internal/domain/model"
)

// AuditStore defines the driven port for the append-only audit log.
type AuditStore interface {
	Append(ctx context.Context, entry model.AuditLog) error

	// ListByWallet returns the newest-first audit entries attributed to
	// agents owned by the given wallet, up to limit rows.
	ListByWallet(ctx context.Context, walletAddress string, limit int) ([]model.AuditLog, error)
}
