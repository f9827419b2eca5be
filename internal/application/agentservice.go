package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// CredentialIssuer is the slice of CredentialService agent creation needs.
type CredentialIssuer interface {
	IssueAgentCredential(ctx context.Context, agentID string) (*model.IssuedCredential, error)
}

// CreateAgentInput is the validated input for agent creation.
type CreateAgentInput struct {
	WalletAddress string
	Name          string
	Description   string
	Type          string
	Capabilities  []string
	RateLimit     int
	ExpiryHours   int
	Scope         model.AccessScope
	Metadata      map[string]string
}

// UpdateAgentInput is a partial agent patch; nil fields are left unchanged.
type UpdateAgentInput struct {
	Name         *string
	Description  *string
	Type         *string
	Status       *model.AgentStatus
	Capabilities *[]string
	RateLimit    *int
	ExpiryHours  *int
	Scope        *model.AccessScope
	Metadata     *map[string]string
}

// AgentService owns agent CRUD and enforces wallet tenancy: every read and
// write is scoped to the calling wallet, and an agent owned by another wallet
// is indistinguishable from one that does not exist.
type AgentService struct {
	agents driven.AgentStore
	issuer CredentialIssuer
	logger *slog.Logger
}

// NewAgentService creates an AgentService with all required dependencies.
func NewAgentService(agents driven.AgentStore, issuer CredentialIssuer, logger *slog.Logger) *AgentService {
	return &AgentService{agents: agents, issuer: issuer, logger: logger}
}

// CreateAgent validates the input, persists the agent, and immediately issues
// its first credential. The returned IssuedCredential carries the one-time
// agent secret.
func (s *AgentService) CreateAgent(ctx context.Context, input CreateAgentInput) (*model.Agent, *model.IssuedCredential, error) {
	if input.Name == "" {
		return nil, nil, fmt.Errorf("%w: agent name required", ErrValidation)
	}
	if input.WalletAddress == "" {
		return nil, nil, fmt.Errorf("%w: wallet address required", ErrValidation)
	}

	now := time.Now().UTC()
	agent := model.Agent{
		ID:            uuid.NewString(),
		WalletAddress: input.WalletAddress,
		Name:          input.Name,
		Description:   input.Description,
		Type:          input.Type,
		Status:        model.AgentStatusActive,
		Capabilities:  input.Capabilities,
		RateLimit:     input.RateLimit,
		ExpiryHours:   input.ExpiryHours,
		Scope:         input.Scope,
		Metadata:      input.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, nil, fmt.Errorf("create agent: %w", err)
	}

	issued, err := s.issuer.IssueAgentCredential(ctx, agent.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue credential for new agent %s: %w", agent.ID, err)
	}

	s.logger.Info("agent created",
		"agent_id", agent.ID,
		"wallet", agent.WalletAddress,
		"name", agent.Name,
	)

	return &agent, issued, nil
}

// GetAgent returns the agent if it exists and belongs to the wallet.
func (s *AgentService) GetAgent(ctx context.Context, id, walletAddress string) (*model.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !agent.OwnedBy(walletAddress) {
		return nil, driven.ErrAgentNotFound
	}
	return agent, nil
}

// ListAgents returns the wallet's agents.
func (s *AgentService) ListAgents(ctx context.Context, walletAddress string) ([]model.Agent, error) {
	return s.agents.ListByWallet(ctx, walletAddress)
}

// UpdateAgent applies the non-nil patch fields to an agent the wallet owns.
func (s *AgentService) UpdateAgent(ctx context.Context, id, walletAddress string, patch UpdateAgentInput) (*model.Agent, error) {
	agent, err := s.GetAgent(ctx, id, walletAddress)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: agent name required", ErrValidation)
		}
		agent.Name = *patch.Name
	}
	if patch.Description != nil {
		agent.Description = *patch.Description
	}
	if patch.Type != nil {
		agent.Type = *patch.Type
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *patch.Status)
		}
		agent.Status = *patch.Status
	}
	if patch.Capabilities != nil {
		agent.Capabilities = *patch.Capabilities
	}
	if patch.RateLimit != nil {
		agent.RateLimit = *patch.RateLimit
	}
	if patch.ExpiryHours != nil {
		agent.ExpiryHours = *patch.ExpiryHours
	}
	if patch.Scope != nil {
		agent.Scope = *patch.Scope
	}
	if patch.Metadata != nil {
		agent.Metadata = *patch.Metadata
	}

	if err := s.agents.Update(ctx, *agent); err != nil {
		return nil, fmt.Errorf("update agent %s: %w", id, err)
	}

	return s.agents.GetByID(ctx, id)
}

// DeleteAgent removes an agent the wallet owns; credentials and verification
// rows cascade with it.
func (s *AgentService) DeleteAgent(ctx context.Context, id, walletAddress string) error {
	if _, err := s.GetAgent(ctx, id, walletAddress); err != nil {
		return err
	}

	if err := s.agents.Delete(ctx, id); err != nil {
		if errors.Is(err, driven.ErrAgentNotFound) {
			return err
		}
		return fmt.Errorf("delete agent %s: %w", id, err)
	}

	s.logger.Info("agent deleted", "agent_id", id, "wallet", walletAddress)
	return nil
}
