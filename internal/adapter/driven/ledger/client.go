// Package ledger implements the Ledger port against the external
// zero-knowledge proof server, with a local simulator used as a fallback
// whenever the server is unreachable.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Ledger = (*Client)(nil)

// Client speaks the proof server's named-circuit convention over JSON/HTTP:
// POST /circuit/{name} submits a circuit call and returns a transaction
// handle, GET /ledger/state returns the counter snapshot, GET /health probes
// liveness. Circuit calls can block for several seconds while the server
// generates proofs; cancellation is via the request context only.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a proof-server client. timeout bounds every request,
// including proof generation.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// Intended for tests injecting an httptest server.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

type circuitRequest struct {
	AgentID      string `json:"agent_id,omitempty"`
	AgentSecret  string `json:"agent_secret,omitempty"`
	ExpectedHash string `json:"expected_hash,omitempty"`
}

type circuitResponse struct {
	TxHash         string `json:"tx_hash"`
	CredentialHash string `json:"credential_hash,omitempty"`
	ZKProof        string `json:"zk_proof,omitempty"`
	Verified       bool   `json:"verified,omitempty"`
	Error          string `json:"error,omitempty"`
}

type ledgerStateResponse struct {
	TotalCredentials uint64 `json:"total_credentials"`
	SuccessfulAuths  uint64 `json:"successful_auths"`
	BlockedAttempts  uint64 `json:"blocked_attempts"`
}

// IssueCredential submits the issueCredential circuit and returns the
// transaction handle plus the commitment the ledger recorded.
func (c *Client) IssueCredential(ctx context.Context, agentID, agentSecret string) (model.IssueResult, error) {
	if agentSecret == "" {
		return model.IssueResult{}, driven.ErrEmptySecret
	}

	var resp circuitResponse
	err := c.callCircuit(ctx, "issueCredential", circuitRequest{
		AgentID:     agentID,
		AgentSecret: agentSecret,
	}, &resp)
	if err != nil {
		return model.IssueResult{}, err
	}

	return model.IssueResult{
		TxHash:         resp.TxHash,
		CredentialHash: resp.CredentialHash,
		ZKProof:        resp.ZKProof,
	}, nil
}

// VerifyAuthorization submits the proveAuthorization circuit. The server's
// answer is ground truth; a Verified=false completion is not an error.
func (c *Client) VerifyAuthorization(ctx context.Context, agentID, agentSecret, expectedHash string) (model.VerifyResult, error) {
	if agentSecret == "" {
		return model.VerifyResult{}, driven.ErrEmptySecret
	}

	var resp circuitResponse
	err := c.callCircuit(ctx, "proveAuthorization", circuitRequest{
		AgentID:      agentID,
		AgentSecret:  agentSecret,
		ExpectedHash: expectedHash,
	}, &resp)
	if err != nil {
		return model.VerifyResult{}, err
	}

	return model.VerifyResult{
		Verified: resp.Verified,
		TxHash:   resp.TxHash,
		ZKProof:  resp.ZKProof,
	}, nil
}

// ReportBlocked submits the reportBlocked circuit.
func (c *Client) ReportBlocked(ctx context.Context) (string, error) {
	var resp circuitResponse
	if err := c.callCircuit(ctx, "reportBlocked", circuitRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.TxHash, nil
}

// Stats reads the current ledger counter snapshot.
func (c *Client) Stats(ctx context.Context) (model.LedgerStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ledger/state", nil)
	if err != nil {
		return model.LedgerStats{}, fmt.Errorf("build ledger state request: %w", err)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return model.LedgerStats{}, fmt.Errorf("%w: %v", driven.ErrLedgerUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return model.LedgerStats{}, fmt.Errorf("%w: ledger state returned %d", driven.ErrLedgerUnavailable, httpResp.StatusCode)
	}

	var state ledgerStateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&state); err != nil {
		return model.LedgerStats{}, fmt.Errorf("decode ledger state: %w", err)
	}

	return model.LedgerStats{
		TotalCredentials: state.TotalCredentials,
		SuccessfulAuths:  state.SuccessfulAuths,
		BlockedAttempts:  state.BlockedAttempts,
	}, nil
}

// Available probes GET /health. It never returns an error; any failure or
// non-200 response reports false.
func (c *Client) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

func (c *Client) callCircuit(ctx context.Context, circuit string, reqBody circuitRequest, out *circuitResponse) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", circuit, err)
	}

	url := c.baseURL + "/circuit/" + circuit
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", circuit, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", driven.ErrLedgerUnavailable, circuit, err)
	}
	defer httpResp.Body.Close()

	c.logger.Debug("circuit call completed",
		"circuit", circuit,
		"status", httpResp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", circuit, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d: %s", driven.ErrLedgerUnavailable, circuit, httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", circuit, err)
	}
	if out.Error != "" {
		return fmt.Errorf("%s: %s", circuit, out.Error)
	}

	return nil
}
