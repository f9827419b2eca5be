package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/agentforge/zkcred/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters in the "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// seedWallet inserts a wallet row so agent foreign keys resolve.
func seedWallet(t *testing.T, db *DB, address string) {
	t.Helper()

	repo := NewWalletRepo(db)
	if err := repo.Upsert(context.Background(), model.Wallet{Address: address, Name: "test wallet"}); err != nil {
		t.Fatalf("seed wallet %s: %v", address, err)
	}
}

// seedAgent inserts an active agent under the given wallet and returns its id.
func seedAgent(t *testing.T, db *DB, walletAddress, name string) string {
	t.Helper()

	id := uuid.NewString()
	repo := NewAgentRepo(db)
	err := repo.Create(context.Background(), model.Agent{
		ID:            id,
		WalletAddress: walletAddress,
		Name:          name,
		Status:        model.AgentStatusActive,
	})
	if err != nil {
		t.Fatalf("seed agent %s: %v", name, err)
	}
	return id
}

// seedCredential inserts an active credential for the agent and returns its id.
func seedCredential(t *testing.T, db *DB, agentID string) string {
	t.Helper()

	id := uuid.NewString()
	agent := agentID
	repo := NewCredentialRepo(db)
	err := repo.RecordIssuance(context.Background(),
		model.Credential{
			ID:             id,
			AgentID:        agentID,
			CredentialHash: "deadbeef",
			Status:         model.CredentialStatusActive,
		},
		model.AuditLog{
			AgentID:  &agent,
			Action:   model.ActionCredentialIssued,
			Resource: "credential:" + id,
			Result:   model.AuditResultSuccess,
		},
	)
	if err != nil {
		t.Fatalf("seed credential for agent %s: %v", agentID, err)
	}
	return id
}
