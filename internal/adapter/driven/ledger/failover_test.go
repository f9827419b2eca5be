package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// fakeLedger is a scriptable Ledger for failover tests.
type fakeLedger struct {
	available bool
	failCalls bool
	issued    int
	verified  int
	blocked   int
}

func (f *fakeLedger) IssueCredential(_ context.Context, agentID, secret string) (model.IssueResult, error) {
	if f.failCalls {
		return model.IssueResult{}, errors.New("boom")
	}
	f.issued++
	return model.IssueResult{TxHash: "real-tx", CredentialHash: "real-hash"}, nil
}

func (f *fakeLedger) VerifyAuthorization(_ context.Context, agentID, secret, hash string) (model.VerifyResult, error) {
	if f.failCalls {
		return model.VerifyResult{}, errors.New("boom")
	}
	f.verified++
	return model.VerifyResult{Verified: true, TxHash: "real-tx"}, nil
}

func (f *fakeLedger) ReportBlocked(_ context.Context) (string, error) {
	if f.failCalls {
		return "", errors.New("boom")
	}
	f.blocked++
	return "real-tx", nil
}

func (f *fakeLedger) Stats(_ context.Context) (model.LedgerStats, error) {
	if f.failCalls {
		return model.LedgerStats{}, errors.New("boom")
	}
	return model.LedgerStats{TotalCredentials: 9}, nil
}

func (f *fakeLedger) Available(_ context.Context) bool { return f.available }

func TestFailover_UsesClientWhenAvailable(t *testing.T) {
	real := &fakeLedger{available: true}
	f := NewFailover(real, NewSimulator(), slog.Default())

	result, err := f.IssueCredential(context.Background(), "agent-1", "secret")
	require.NoError(t, err)
	assert.Equal(t, "real-tx", result.TxHash)
	assert.False(t, result.Simulated)
	assert.Equal(t, 1, real.issued)
	assert.Equal(t, ModeConnected, f.Mode())
}

func TestFailover_FallsBackWhenUnavailable(t *testing.T) {
	real := &fakeLedger{available: false}
	f := NewFailover(real, NewSimulator(), slog.Default())

	result, err := f.IssueCredential(context.Background(), "agent-1", "secret")
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.Equal(t, 0, real.issued)
	assert.Equal(t, ModeSimulated, f.Mode())
}

func TestFailover_FallsBackWhenCallFails(t *testing.T) {
	real := &fakeLedger{available: true, failCalls: true}
	f := NewFailover(real, NewSimulator(), slog.Default())

	result, err := f.VerifyAuthorization(context.Background(), "agent-1", "secret", CommitmentHash("agent-1", "secret"))
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.True(t, result.Verified)
	assert.Equal(t, ModeSimulated, f.Mode())
}

func TestFailover_EmptySecretRejectedWithoutFallback(t *testing.T) {
	real := &fakeLedger{available: true}
	f := NewFailover(real, NewSimulator(), slog.Default())

	_, err := f.IssueCredential(context.Background(), "agent-1", "")
	assert.ErrorIs(t, err, driven.ErrEmptySecret)

	_, err = f.VerifyAuthorization(context.Background(), "agent-1", "", "hash")
	assert.ErrorIs(t, err, driven.ErrEmptySecret)
}

func TestFailover_RecoversWhenClientReturns(t *testing.T) {
	real := &fakeLedger{available: false}
	f := NewFailover(real, NewSimulator(), slog.Default())

	_, err := f.ReportBlocked(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeSimulated, f.Mode())

	real.available = true
	stats, err := f.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(9), stats.TotalCredentials)
	assert.Equal(t, ModeConnected, f.Mode())
}

func TestFailover_AlwaysAvailable(t *testing.T) {
	f := NewFailover(&fakeLedger{}, NewSimulator(), slog.Default())
	assert.True(t, f.Available(context.Background()))
}
