package application

import (
	"context"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// defaultFeedLimit caps the activity feed when the caller does not ask for a
// specific size.
const defaultFeedLimit = 50

// ActivityService serves the dashboard's per-wallet stats and activity feed.
type ActivityService struct {
	wallets driven.WalletStore
	audits  driven.AuditStore
}

// NewActivityService creates an ActivityService.
func NewActivityService(wallets driven.WalletStore, audits driven.AuditStore) *ActivityService {
	return &ActivityService{wallets: wallets, audits: audits}
}

// WalletStats aggregates the wallet's dashboard counters.
func (s *ActivityService) WalletStats(ctx context.Context, address string) (model.WalletStats, error) {
	return s.wallets.Stats(ctx, address)
}

// ActivityFeed returns the wallet's newest audit entries, capped at limit
// (or defaultFeedLimit when limit is not positive).
func (s *ActivityService) ActivityFeed(ctx context.Context, address string, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	return s.audits.ListByWallet(ctx, address, limit)
}
