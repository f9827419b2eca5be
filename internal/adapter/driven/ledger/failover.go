package ledger

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Ledger = (*Failover)(nil)

// Mode labels which path the failover adapter last used.
type Mode string

const (
	ModeConnected Mode = "connected"
	ModeSimulated Mode = "simulated"
)

// Failover routes ledger calls to the real proof server when it is reachable
// and silently re-runs them on the local simulator when it is not. Malformed
// input (an empty secret) is rejected before either path runs; every other
// client failure degrades to the simulator rather than surfacing.
type Failover struct {
	client    driven.Ledger
	simulator driven.Ledger
	logger    *slog.Logger
	simulated atomic.Bool
}

// NewFailover wraps the real client with the simulator fallback.
func NewFailover(client, simulator driven.Ledger, logger *slog.Logger) *Failover {
	return &Failover{
		client:    client,
		simulator: simulator,
		logger:    logger,
	}
}

// Mode reports which path served the most recent call.
func (f *Failover) Mode() Mode {
	if f.simulated.Load() {
		return ModeSimulated
	}
	return ModeConnected
}

// IssueCredential issues on the proof server, falling back to the simulator.
func (f *Failover) IssueCredential(ctx context.Context, agentID, agentSecret string) (model.IssueResult, error) {
	if agentSecret == "" {
		return model.IssueResult{}, driven.ErrEmptySecret
	}

	if f.client.Available(ctx) {
		result, err := f.client.IssueCredential(ctx, agentID, agentSecret)
		if err == nil {
			f.setSimulated(false)
			return result, nil
		}
		f.logger.Warn("ledger issue failed, falling back to simulator", "error", err)
	}

	f.setSimulated(true)
	return f.simulator.IssueCredential(ctx, agentID, agentSecret)
}

// VerifyAuthorization verifies on the proof server, falling back to the
// simulator's hash-equality check.
func (f *Failover) VerifyAuthorization(ctx context.Context, agentID, agentSecret, expectedHash string) (model.VerifyResult, error) {
	if agentSecret == "" {
		return model.VerifyResult{}, driven.ErrEmptySecret
	}

	if f.client.Available(ctx) {
		result, err := f.client.VerifyAuthorization(ctx, agentID, agentSecret, expectedHash)
		if err == nil {
			f.setSimulated(false)
			return result, nil
		}
		f.logger.Warn("ledger verify failed, falling back to simulator", "error", err)
	}

	f.setSimulated(true)
	return f.simulator.VerifyAuthorization(ctx, agentID, agentSecret, expectedHash)
}

// ReportBlocked records the blocked attempt on whichever path is serving.
func (f *Failover) ReportBlocked(ctx context.Context) (string, error) {
	if f.client.Available(ctx) {
		txHash, err := f.client.ReportBlocked(ctx)
		if err == nil {
			f.setSimulated(false)
			return txHash, nil
		}
		f.logger.Warn("ledger report-blocked failed, falling back to simulator", "error", err)
	}

	f.setSimulated(true)
	return f.simulator.ReportBlocked(ctx)
}

// Stats reads counters from the serving path.
func (f *Failover) Stats(ctx context.Context) (model.LedgerStats, error) {
	if f.client.Available(ctx) {
		stats, err := f.client.Stats(ctx)
		if err == nil {
			f.setSimulated(false)
			return stats, nil
		}
		f.logger.Warn("ledger stats failed, falling back to simulator", "error", err)
	}

	f.setSimulated(true)
	return f.simulator.Stats(ctx)
}

// Available always reports true: the failover can always serve, if only in
// simulated mode.
func (f *Failover) Available(_ context.Context) bool {
	return true
}

func (f *Failover) setSimulated(simulated bool) {
	if f.simulated.Swap(simulated) != simulated {
		if simulated {
			f.logger.Warn("ledger degraded to simulated mode")
		} else {
			f.logger.Info("ledger reconnected to proof server")
		}
	}
}
