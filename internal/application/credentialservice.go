// Package application contains use-case orchestration services.
package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// agentSecretBytes is the entropy of a generated agent secret (256 bits).
const agentSecretBytes = 32

// CredentialService orchestrates the issuance and verification workflows,
// gluing the ledger adapter to the relational store.
type CredentialService struct {
	ledger        driven.Ledger
	credentials   driven.CredentialStore
	verifications driven.VerificationStore
	audits        driven.AuditStore
	logger        *slog.Logger
}

// NewCredentialService creates a CredentialService with all required dependencies.
func NewCredentialService(
	ledger driven.Ledger,
	credentials driven.CredentialStore,
	verifications driven.VerificationStore,
	audits driven.AuditStore,
	logger *slog.Logger,
) *CredentialService {
	return &CredentialService{
		ledger:        ledger,
		credentials:   credentials,
		verifications: verifications,
		audits:        audits,
		logger:        logger,
	}
}

// IssueAgentCredential generates a fresh agent secret, records it on the
// ledger, and persists the credential plus its audit entry in one
// transaction. The secret is returned to the caller exactly once; it is
// never persisted and cannot be looked up again. A store failure is fatal to
// the caller; issuance is a fire-once provisioning operation with no retry.
func (s *CredentialService) IssueAgentCredential(ctx context.Context, agentID string) (*model.IssuedCredential, error) {
	secret, err := generateAgentSecret()
	if err != nil {
		return nil, fmt.Errorf("generate agent secret: %w", err)
	}

	result, err := s.ledger.IssueCredential(ctx, agentID, secret)
	if err != nil {
		return nil, fmt.Errorf("issue credential for agent %s: %w", agentID, err)
	}

	credID := uuid.NewString()
	cred := model.Credential{
		ID:             credID,
		AgentID:        agentID,
		CredentialHash: result.CredentialHash,
		ZKProof:        result.ZKProof,
		TxHash:         result.TxHash,
		Status:         model.CredentialStatusActive,
		Simulated:      result.Simulated,
		IssuedAt:       time.Now().UTC(),
	}
	entry := model.AuditLog{
		AgentID:  &agentID,
		Action:   model.ActionCredentialIssued,
		Resource: "credential:" + credID,
		Result:   model.AuditResultSuccess,
		TxHash:   result.TxHash,
		Metadata: ledgerModeMetadata(result.Simulated),
	}
	if err := s.credentials.RecordIssuance(ctx, cred, entry); err != nil {
		return nil, fmt.Errorf("record issuance for agent %s: %w", agentID, err)
	}

	s.logger.Info("credential issued",
		"agent_id", agentID,
		"credential_id", credID,
		"tx_hash", result.TxHash,
		"simulated", result.Simulated,
	)

	return &model.IssuedCredential{
		CredentialID:   credID,
		CredentialHash: result.CredentialHash,
		ZKProof:        result.ZKProof,
		TxHash:         result.TxHash,
		AgentSecret:    secret,
		Simulated:      result.Simulated,
	}, nil
}

// VerifyAgentAuthorization checks agentSecret against the credential's
// commitment. A missing or non-active credential short-circuits to false
// without touching the ledger. Every completed ledger check appends a
// proof-verification row; a failed check additionally reports the blocked
// attempt to the ledger. Store failures after the ledger call are logged and
// converted to a false result rather than surfaced.
func (s *CredentialService) VerifyAgentAuthorization(ctx context.Context, credentialID, agentSecret string) (bool, error) {
	if agentSecret == "" {
		return false, fmt.Errorf("%w: agent secret required", ErrValidation)
	}

	cred, err := s.credentials.GetByID(ctx, credentialID)
	if errors.Is(err, driven.ErrCredentialNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up credential %s: %w", credentialID, err)
	}
	if !cred.IsActive() {
		return false, nil
	}

	result, err := s.ledger.VerifyAuthorization(ctx, cred.AgentID, agentSecret, cred.CredentialHash)
	if err != nil {
		return false, fmt.Errorf("verify credential %s: %w", credentialID, err)
	}

	row := model.ProofVerification{
		CredentialID: credentialID,
		Verified:     result.Verified,
		ZKProof:      result.ZKProof,
		TxHash:       result.TxHash,
		Simulated:    result.Simulated,
		VerifiedAt:   time.Now().UTC(),
	}
	if !result.Verified {
		row.ErrorMessage = "authorization proof failed"
	}
	if err := s.verifications.Append(ctx, row); err != nil {
		s.logger.Error("failed to record verification, failing closed",
			"credential_id", credentialID, "error", err)
		return false, nil
	}

	if result.Verified {
		s.audit(ctx, cred.AgentID, model.ActionAuthVerified, "credential:"+credentialID,
			model.AuditResultSuccess, result.TxHash, result.Simulated)
		return true, nil
	}

	blockedTx, err := s.ledger.ReportBlocked(ctx)
	if err != nil {
		s.logger.Error("failed to report blocked attempt",
			"credential_id", credentialID, "error", err)
	}
	s.audit(ctx, cred.AgentID, model.ActionAuthBlocked, "credential:"+credentialID,
		model.AuditResultBlocked, blockedTx, result.Simulated)

	return false, nil
}

// RevokeCredential flips the credential to revoked and records the action.
func (s *CredentialService) RevokeCredential(ctx context.Context, credentialID string) error {
	cred, err := s.credentials.GetByID(ctx, credentialID)
	if err != nil {
		return err
	}

	if err := s.credentials.Revoke(ctx, credentialID); err != nil {
		return err
	}

	s.audit(ctx, cred.AgentID, model.ActionCredentialRevoked, "credential:"+credentialID,
		model.AuditResultSuccess, "", false)

	s.logger.Info("credential revoked", "credential_id", credentialID, "agent_id", cred.AgentID)
	return nil
}

// audit appends an audit row, logging rather than failing on store errors:
// the primary operation already completed.
func (s *CredentialService) audit(ctx context.Context, agentID, action, resource string, result model.AuditResult, txHash string, simulated bool) {
	entry := model.AuditLog{
		AgentID:  &agentID,
		Action:   action,
		Resource: resource,
		Result:   result,
		TxHash:   txHash,
		Metadata: ledgerModeMetadata(simulated),
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit log",
			"action", action, "agent_id", agentID, "error", err)
	}
}

func ledgerModeMetadata(simulated bool) map[string]string {
	mode := "connected"
	if simulated {
		mode = "simulated"
	}
	return map[string]string{"ledger_mode": mode}
}

// generateAgentSecret returns a hex-encoded 256-bit random secret.
func generateAgentSecret() (string, error) {
	buf := make([]byte, agentSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
