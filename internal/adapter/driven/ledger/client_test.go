package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTPClient(srv.URL, srv.Client(), slog.Default())
}

func TestClient_IssueCredential(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/circuit/issueCredential", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "agent-1", req["agent_id"])
		assert.Equal(t, "s3cret", req["agent_secret"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"tx_hash":         "0xtx",
			"credential_hash": "0xhash",
			"zk_proof":        "proof-blob",
		})
	})

	result, err := client.IssueCredential(context.Background(), "agent-1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "0xtx", result.TxHash)
	assert.Equal(t, "0xhash", result.CredentialHash)
	assert.Equal(t, "proof-blob", result.ZKProof)
	assert.False(t, result.Simulated)
}

func TestClient_IssueEmptySecret(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty secret")
	})

	_, err := client.IssueCredential(context.Background(), "agent-1", "")
	assert.ErrorIs(t, err, driven.ErrEmptySecret)
}

func TestClient_VerifyAuthorization(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/circuit/proveAuthorization", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"tx_hash": "0xtx", "verified": true, "zk_proof": "proof-blob"})
	})

	result, err := client.VerifyAuthorization(context.Background(), "agent-1", "s3cret", "0xhash")
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, "0xtx", result.TxHash)
	assert.Equal(t, "proof-blob", result.ZKProof)
}

func TestClient_ServerErrorIsUnavailable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node down", http.StatusBadGateway)
	})

	_, err := client.IssueCredential(context.Background(), "agent-1", "s3cret")
	assert.ErrorIs(t, err, driven.ErrLedgerUnavailable)

	_, err = client.Stats(context.Background())
	assert.ErrorIs(t, err, driven.ErrLedgerUnavailable)
}

func TestClient_CircuitErrorPayload(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "circuit rejected input"})
	})

	_, err := client.ReportBlocked(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit rejected input")
}

func TestClient_Stats(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ledger/state", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total_credentials": 7,
			"successful_auths":  5,
			"blocked_attempts":  2,
		})
	})

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), stats.TotalCredentials)
	assert.Equal(t, uint64(5), stats.SuccessfulAuths)
	assert.Equal(t, uint64(2), stats.BlockedAttempts)
	assert.False(t, stats.Simulated)
}

func TestClient_AvailableProbe(t *testing.T) {
	up := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.True(t, up.Available(context.Background()))

	down := NewClientWithHTTPClient("http://127.0.0.1:1", http.DefaultClient, slog.Default())
	assert.False(t, down.Available(context.Background()))
}
