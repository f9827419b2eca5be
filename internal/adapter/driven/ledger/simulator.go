package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Ledger = (*Simulator)(nil)

// Simulator is the local fallback ledger. Commitments are plain SHA-256
// hashes of "agentID:agentSecret" and verification is hash equality, so the
// zero-knowledge property of the real subsystem does not hold here. Every
// result it produces is marked Simulated so callers can surface the degraded
// mode instead of hiding it.
type Simulator struct {
	mu               sync.Mutex
	totalCredentials uint64
	successfulAuths  uint64
	blockedAttempts  uint64
}

// NewSimulator creates a Simulator with zeroed counters.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// CommitmentHash computes the fallback commitment for an agent secret:
// hex(SHA-256("agentID:agentSecret")).
func CommitmentHash(agentID, agentSecret string) string {
	sum := sha256.Sum256([]byte(agentID + ":" + agentSecret))
	return hex.EncodeToString(sum[:])
}

// IssueCredential computes the commitment locally and increments the
// credential counter.
func (s *Simulator) IssueCredential(_ context.Context, agentID, agentSecret string) (model.IssueResult, error) {
	if agentSecret == "" {
		return model.IssueResult{}, driven.ErrEmptySecret
	}

	hash := CommitmentHash(agentID, agentSecret)

	s.mu.Lock()
	s.totalCredentials++
	s.mu.Unlock()

	return model.IssueResult{
		TxHash:         simulatedTxHash(),
		CredentialHash: hash,
		ZKProof:        mockProof(hash),
		Simulated:      true,
	}, nil
}

// VerifyAuthorization recomputes the commitment and compares for exact
// equality. Success increments the successful-auth counter; failure mutates
// nothing here, the blocked counter moves only through ReportBlocked.
func (s *Simulator) VerifyAuthorization(_ context.Context, agentID, agentSecret, expectedHash string) (model.VerifyResult, error) {
	if agentSecret == "" {
		return model.VerifyResult{}, driven.ErrEmptySecret
	}

	hash := CommitmentHash(agentID, agentSecret)
	verified := hash == expectedHash
	if verified {
		s.mu.Lock()
		s.successfulAuths++
		s.mu.Unlock()
	}

	return model.VerifyResult{
		Verified:  verified,
		TxHash:    simulatedTxHash(),
		ZKProof:   mockProof(hash),
		Simulated: true,
	}, nil
}

// ReportBlocked increments the blocked-attempts counter.
func (s *Simulator) ReportBlocked(_ context.Context) (string, error) {
	s.mu.Lock()
	s.blockedAttempts++
	s.mu.Unlock()

	return simulatedTxHash(), nil
}

// Stats returns the simulator's counter snapshot.
func (s *Simulator) Stats(_ context.Context) (model.LedgerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.LedgerStats{
		TotalCredentials: s.totalCredentials,
		SuccessfulAuths:  s.successfulAuths,
		BlockedAttempts:  s.blockedAttempts,
		Simulated:        true,
	}, nil
}

// Available always reports true; the simulator cannot be unreachable.
func (s *Simulator) Available(_ context.Context) bool {
	return true
}

// mockProof produces an opaque proof blob in the shape the real subsystem
// returns. It is a placeholder, not an actual proof.
func mockProof(input string) string {
	sum := sha256.Sum256([]byte("proof:" + input))
	return "zk_snark_" + hex.EncodeToString(sum[:])
}

func simulatedTxHash() string {
	return "sim-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
