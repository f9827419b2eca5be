package model

import "time"

// CredentialStatus is the lifecycle state of an issued credential.
type CredentialStatus string

const (
	CredentialStatusActive  CredentialStatus = "active"
	CredentialStatusRevoked CredentialStatus = "revoked"
)

// Credential is the bookkeeping row for one issuance. The raw agent secret is
// never part of this record; only the commitment hash derived from it is.
type Credential struct {
	ID             string
	AgentID        string
	CredentialHash string
	ZKProof        string
	TxHash         string
	Status         CredentialStatus
	// Simulated marks credentials issued while the ledger was in fallback mode.
	Simulated bool
	IssuedAt  time.Time
	RevokedAt *time.Time
}

// IsActive reports whether the credential can still be used for verification.
func (c Credential) IsActive() bool {
	return c.Status == CredentialStatusActive
}

// IssuedCredential is the one-time issuance response. AgentSecret is returned
// to the caller exactly once and is never persisted or looked up again.
type IssuedCredential struct {
	CredentialID   string
	CredentialHash string
	ZKProof        string
	TxHash         string
	AgentSecret    string
	Simulated      bool
}
