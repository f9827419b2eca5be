package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentforge/zkcred/internal/adapter/driving/web"
	"github.com/agentforge/zkcred/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// AgentResponse is the JSON representation of an agent.
type AgentResponse struct {
	ID            string   `json:"id"`
	WalletAddress string   `json:"wallet_address"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	// DescriptionHTML is the sanitized markdown rendering of Description.
	DescriptionHTML string               `json:"description_html"`
	Type            string               `json:"type"`
	Status          string               `json:"status"`
	Capabilities    []string             `json:"capabilities"`
	RateLimit       int                  `json:"rate_limit"`
	ExpiryHours     int                  `json:"expiry_hours"`
	Scope           model.AccessScope    `json:"scope"`
	Metadata        map[string]string    `json:"metadata"`
	Credentials     []CredentialResponse `json:"credentials,omitempty"`
	CreatedAt       string               `json:"created_at"`
	UpdatedAt       string               `json:"updated_at"`
}

// CredentialResponse is the JSON representation of an issued credential row.
// It never carries the agent secret.
type CredentialResponse struct {
	ID             string  `json:"id"`
	AgentID        string  `json:"agent_id"`
	CredentialHash string  `json:"credential_hash"`
	TxHash         string  `json:"tx_hash"`
	Status         string  `json:"status"`
	Simulated      bool    `json:"simulated"`
	IssuedAt       string  `json:"issued_at"`
	RevokedAt      *string `json:"revoked_at,omitempty"`
}

// IssuedCredentialResponse is returned exactly once, at issuance. AgentSecret
// is shown to the caller here and never again.
type IssuedCredentialResponse struct {
	CredentialID   string `json:"credential_id"`
	CredentialHash string `json:"credential_hash"`
	ZKProof        string `json:"zk_proof"`
	TxHash         string `json:"tx_hash"`
	AgentSecret    string `json:"agent_secret"`
	Simulated      bool   `json:"simulated"`
}

// CreateAgentResponse pairs the new agent with its one-time credential.
type CreateAgentResponse struct {
	Agent      AgentResponse            `json:"agent"`
	Credential IssuedCredentialResponse `json:"credential"`
}

// VerifyResponse is the outcome of an authorization proof.
type VerifyResponse struct {
	Verified bool `json:"verified"`
}

// SessionResponse describes the connected wallet.
type SessionResponse struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	ConnectedAt string `json:"connected_at"`
	LastLoginAt string `json:"last_login_at"`
}

// WalletStatsResponse aggregates the wallet's dashboard counters.
type WalletStatsResponse struct {
	Agents           int `json:"agents"`
	ActiveAgents     int `json:"active_agents"`
	Credentials      int `json:"credentials"`
	Verifications    int `json:"verifications"`
	SuccessfulProofs int `json:"successful_proofs"`
	BlockedAttempts  int `json:"blocked_attempts"`
}

// LedgerStatsResponse mirrors the on-ledger counters.
type LedgerStatsResponse struct {
	TotalCredentials uint64 `json:"total_credentials"`
	SuccessfulAuths  uint64 `json:"successful_auths"`
	BlockedAttempts  uint64 `json:"blocked_attempts"`
	Simulated        bool   `json:"simulated"`
}

// AuditLogResponse is one activity feed entry.
type AuditLogResponse struct {
	ID        int64             `json:"id"`
	AgentID   *string           `json:"agent_id"`
	Action    string            `json:"action"`
	Resource  string            `json:"resource"`
	Result    string            `json:"result"`
	TxHash    string            `json:"tx_hash,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
}

// VaultSecretResponse is vault metadata; the value stays encrypted at rest
// and is never serialized.
type VaultSecretResponse struct {
	Name       string `json:"name"`
	ServiceURL string `json:"service_url"`
	Provider   string `json:"provider"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// VaultAccessResponse is the gate's answer to an access request. On denial
// Error is a stable machine-readable code.
type VaultAccessResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action,omitempty"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status     string `json:"status"`
	LedgerMode string `json:"ledger_mode"`
	Time       string `json:"time"`
}

func toAgentResponse(a model.Agent) AgentResponse {
	return AgentResponse{
		ID:              a.ID,
		WalletAddress:   a.WalletAddress,
		Name:            a.Name,
		Description:     a.Description,
		DescriptionHTML: web.RenderMarkdown(a.Description),
		Type:            a.Type,
		Status:          string(a.Status),
		Capabilities:    a.Capabilities,
		RateLimit:       a.RateLimit,
		ExpiryHours:     a.ExpiryHours,
		Scope:           a.Scope,
		Metadata:        a.Metadata,
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toCredentialResponse(c model.Credential) CredentialResponse {
	resp := CredentialResponse{
		ID:             c.ID,
		AgentID:        c.AgentID,
		CredentialHash: c.CredentialHash,
		TxHash:         c.TxHash,
		Status:         string(c.Status),
		Simulated:      c.Simulated,
		IssuedAt:       c.IssuedAt.UTC().Format(time.RFC3339),
	}
	if c.RevokedAt != nil {
		revoked := c.RevokedAt.UTC().Format(time.RFC3339)
		resp.RevokedAt = &revoked
	}
	return resp
}

func toIssuedCredentialResponse(ic model.IssuedCredential) IssuedCredentialResponse {
	return IssuedCredentialResponse{
		CredentialID:   ic.CredentialID,
		CredentialHash: ic.CredentialHash,
		ZKProof:        ic.ZKProof,
		TxHash:         ic.TxHash,
		AgentSecret:    ic.AgentSecret,
		Simulated:      ic.Simulated,
	}
}

func toSessionResponse(w model.Wallet) SessionResponse {
	return SessionResponse{
		Address:     w.Address,
		Name:        w.Name,
		ConnectedAt: w.ConnectedAt.UTC().Format(time.RFC3339),
		LastLoginAt: w.LastLoginAt.UTC().Format(time.RFC3339),
	}
}

func toAuditLogResponse(entry model.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:        entry.ID,
		AgentID:   entry.AgentID,
		Action:    entry.Action,
		Resource:  entry.Resource,
		Result:    string(entry.Result),
		TxHash:    entry.TxHash,
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toVaultSecretResponse(s model.VaultSecret) VaultSecretResponse {
	return VaultSecretResponse{
		Name:       s.Name,
		ServiceURL: s.ServiceURL,
		Provider:   s.Provider,
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
