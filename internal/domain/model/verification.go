package model

import "time"

// ProofVerification records one verification attempt against a credential.
// Rows are append-only; they are never updated or deleted except by the
// cascade when the owning agent is removed.
type ProofVerification struct {
	ID           int64
	CredentialID string
	Verified     bool
	ZKProof      string
	TxHash       string
	ErrorMessage string
	Simulated    bool
	VerifiedAt   time.Time
}
