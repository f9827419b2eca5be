package model

import "time"

// AuditResult classifies the outcome of a security-relevant action.
type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultBlocked AuditResult = "blocked"
	AuditResultFailed  AuditResult = "failed"
)

// Audit action names used across the services.
const (
	ActionCredentialIssued  = "credential_issued"
	ActionCredentialRevoked = "credential_revoked"
	ActionAuthVerified      = "authorization_verified"
	ActionAuthBlocked       = "authorization_blocked"
	ActionVaultAccess       = "vault_access"
)

// AuditLog is one append-only row per security-relevant action. AgentID is
// nil when the action could not be attributed to an agent.
type AuditLog struct {
	ID        int64
	AgentID   *string
	Action    string
	Resource  string
	Result    AuditResult
	TxHash    string
	Metadata  map[string]string
	CreatedAt time.Time
}
