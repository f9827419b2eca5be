package driven

import (
	"context"
	"errors"

	"github.com/agentforge/zkcred/internal/domain/model"
)

// Sentinel errors returned by AgentStore implementations.
var (
	// ErrAgentNotFound indicates the requested agent does not exist.
	ErrAgentNotFound = errors.New("agent not found")
)

// AgentStore defines the driven port for agent persistence. List queries are
// always filtered by owning wallet address; there is deliberately no
// list-everything operation on this port.
type AgentStore interface {
	Create(ctx context.Context, agent model.Agent) error
	GetByID(ctx context.Context, id string) (*model.Agent, error)
	ListByWallet(ctx context.Context, walletAddress string) ([]model.Agent, error)
	Update(ctx context.Context, agent model.Agent) error

	// Delete removes the agent and, via foreign key cascade, its credentials
	// and their verification rows. Returns ErrAgentNotFound if no row matched.
	Delete(ctx context.Context, id string) error
}
