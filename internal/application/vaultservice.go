package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// CredentialVerifier is the slice of CredentialService the vault gate needs.
type CredentialVerifier interface {
	VerifyAgentAuthorization(ctx context.Context, credentialID, agentSecret string) (bool, error)
}

// AccessRequest asks the vault gate to run an action with a stored secret.
type AccessRequest struct {
	CredentialID string
	AgentSecret  string
	SecretName   string
	Action       string
}

// AccessResult is the gate's answer. It carries only the downstream action's
// result; the decrypted secret never appears here or in any log line.
type AccessResult struct {
	Action string
	Result string
}

// VaultService gates access to stored secrets behind successful credential
// verification. An unverified caller is told only that it is unauthorized,
// never whether the secret it asked for exists.
type VaultService struct {
	verifier    CredentialVerifier
	credentials driven.CredentialStore
	agents      driven.AgentStore
	vault       driven.VaultStore
	audits      driven.AuditStore
	runner      driven.ActionRunner
	logger      *slog.Logger
}

// NewVaultService creates a VaultService with all required dependencies.
func NewVaultService(
	verifier CredentialVerifier,
	credentials driven.CredentialStore,
	agents driven.AgentStore,
	vault driven.VaultStore,
	audits driven.AuditStore,
	runner driven.ActionRunner,
	logger *slog.Logger,
) *VaultService {
	return &VaultService{
		verifier:    verifier,
		credentials: credentials,
		agents:      agents,
		vault:       vault,
		audits:      audits,
		runner:      runner,
		logger:      logger,
	}
}

// RequestAccess verifies the caller's credential, enforces the agent's access
// scope, decrypts the named secret in-memory, and runs the requested action
// with it. Only the action's result is returned.
func (s *VaultService) RequestAccess(ctx context.Context, req AccessRequest) (*AccessResult, error) {
	if req.CredentialID == "" || req.AgentSecret == "" {
		return nil, fmt.Errorf("%w: credential id and agent secret required", ErrValidation)
	}
	if req.SecretName == "" {
		return nil, fmt.Errorf("%w: secret name required", ErrValidation)
	}

	verified, err := s.verifier.VerifyAgentAuthorization(ctx, req.CredentialID, req.AgentSecret)
	if err != nil {
		return nil, err
	}
	if !verified {
		// The verifier already reported the blocked attempt; record the vault
		// side without revealing existence to the caller.
		s.auditAccess(ctx, nil, req.SecretName, model.AuditResultBlocked)
		return nil, ErrUnauthorized
	}

	agentID, err := s.lookupAgentID(ctx, req.CredentialID)
	if err != nil {
		return nil, err
	}

	if allowed, err := s.scopeAllows(ctx, agentID, req.SecretName); err != nil {
		return nil, err
	} else if !allowed {
		s.auditAccess(ctx, &agentID, req.SecretName, model.AuditResultBlocked)
		return nil, ErrUnauthorized
	}

	secret, meta, err := s.vault.GetPlaintext(ctx, req.SecretName)
	if errors.Is(err, driven.ErrSecretNotFound) {
		s.auditAccess(ctx, &agentID, req.SecretName, model.AuditResultFailed)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("vault access %q: %w", req.SecretName, err)
	}

	result, err := s.runner.Run(ctx, req.Action, meta.ServiceURL, secret)
	if err != nil {
		s.auditAccess(ctx, &agentID, req.SecretName, model.AuditResultFailed)
		return nil, fmt.Errorf("vault action %q: %w", req.Action, err)
	}

	s.auditAccess(ctx, &agentID, req.SecretName, model.AuditResultSuccess)
	s.logger.Info("vault access granted",
		"agent_id", agentID,
		"secret_name", req.SecretName,
		"action", req.Action,
	)

	return &AccessResult{Action: req.Action, Result: result}, nil
}

// StoreSecret encrypts and stores a vault secret.
func (s *VaultService) StoreSecret(ctx context.Context, name, value, serviceURL, provider string) error {
	if name == "" || value == "" {
		return fmt.Errorf("%w: secret name and value required", ErrValidation)
	}
	return s.vault.Set(ctx, name, value, serviceURL, provider)
}

// ListSecrets returns vault secret metadata; values stay encrypted.
func (s *VaultService) ListSecrets(ctx context.Context) ([]model.VaultSecret, error) {
	return s.vault.List(ctx)
}

func (s *VaultService) lookupAgentID(ctx context.Context, credentialID string) (string, error) {
	cred, err := s.credentials.GetByID(ctx, credentialID)
	if err != nil {
		return "", fmt.Errorf("look up credential %s: %w", credentialID, err)
	}
	return cred.AgentID, nil
}

// scopeAllows enforces the agent's access scope. An empty secret list grants
// access to any secret, matching agents created without an explicit scope.
func (s *VaultService) scopeAllows(ctx context.Context, agentID, secretName string) (bool, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return false, fmt.Errorf("look up agent %s: %w", agentID, err)
	}
	if len(agent.Scope.Secrets) == 0 {
		return true, nil
	}
	return agent.Scope.AllowsSecret(secretName), nil
}

func (s *VaultService) auditAccess(ctx context.Context, agentID *string, secretName string, result model.AuditResult) {
	entry := model.AuditLog{
		AgentID:  agentID,
		Action:   model.ActionVaultAccess,
		Resource: "vault:" + secretName,
		Result:   result,
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append vault audit log",
			"secret_name", secretName, "error", err)
	}
}
