package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/zkcred/internal/domain/model"
)

func TestAuditRepo_AppendAndListByWallet(t *testing.T) {
	db := setupTestDB(t)
	seedWallet(t, db, "0xaaa")
	seedWallet(t, db, "0xbbb")
	mine := seedAgent(t, db, "0xaaa", "mine")
	theirs := seedAgent(t, db, "0xbbb", "theirs")
	repo := NewAuditRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, model.AuditLog{
		AgentID:  &mine,
		Action:   model.ActionAuthVerified,
		Resource: "credential:c1",
		Result:   model.AuditResultSuccess,
		TxHash:   "tx-1",
		Metadata: map[string]string{"mode": "simulated"},
	}))
	require.NoError(t, repo.Append(ctx, model.AuditLog{
		AgentID:  &theirs,
		Action:   model.ActionAuthBlocked,
		Resource: "credential:c2",
		Result:   model.AuditResultBlocked,
	}))

	mineLogs, err := repo.ListByWallet(ctx, "0xaaa", 50)
	require.NoError(t, err)
	require.Len(t, mineLogs, 1)
	assert.Equal(t, model.ActionAuthVerified, mineLogs[0].Action)
	assert.Equal(t, model.AuditResultSuccess, mineLogs[0].Result)
	assert.Equal(t, "simulated", mineLogs[0].Metadata["mode"])
	require.NotNil(t, mineLogs[0].AgentID)
	assert.Equal(t, mine, *mineLogs[0].AgentID)
}

func TestAuditRepo_ListRespectsLimit(t *testing.T) {
	db := setupTestDB(t)
	seedWallet(t, db, "0xaaa")
	agentID := seedAgent(t, db, "0xaaa", "chatty")
	repo := NewAuditRepo(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, model.AuditLog{
			AgentID: &agentID,
			Action:  model.ActionAuthVerified,
			Result:  model.AuditResultSuccess,
		}))
	}

	logs, err := repo.ListByWallet(ctx, "0xaaa", 3)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestAuditRepo_AgentDeleteKeepsAuditRowsUnattributed(t *testing.T) {
	db := setupTestDB(t)
	seedWallet(t, db, "0xaaa")
	agentID := seedAgent(t, db, "0xaaa", "short-lived")
	repo := NewAuditRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, model.AuditLog{
		AgentID: &agentID,
		Action:  model.ActionCredentialIssued,
		Result:  model.AuditResultSuccess,
	}))

	require.NoError(t, NewAgentRepo(db).Delete(ctx, agentID))

	// The row survives with a NULL agent reference; the wallet-scoped feed
	// no longer attributes it because the join key is gone.
	logs, err := repo.ListByWallet(ctx, "0xaaa", 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	var count int
	err = db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE agent_id IS NULL`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWalletRepo_UpsertAndStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWalletRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.Wallet{Address: "0xccc", Name: "first"}))
	require.NoError(t, repo.Upsert(ctx, model.Wallet{Address: "0xccc", Name: "renamed"}))

	got, err := repo.GetByAddress(ctx, "0xccc")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	agentID := seedAgent(t, db, "0xccc", "stat-agent")
	credID := seedCredential(t, db, agentID)
	require.NoError(t, NewVerificationRepo(db).Append(ctx, model.ProofVerification{
		CredentialID: credID,
		Verified:     true,
	}))
	require.NoError(t, NewVerificationRepo(db).Append(ctx, model.ProofVerification{
		CredentialID: credID,
		Verified:     false,
	}))

	stats, err := repo.Stats(ctx, "0xccc")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Agents)
	assert.Equal(t, 1, stats.ActiveAgents)
	assert.Equal(t, 1, stats.Credentials)
	assert.Equal(t, 2, stats.Verifications)
	assert.Equal(t, 1, stats.SuccessfulProofs)
	assert.Equal(t, 1, stats.BlockedAttempts)
}
