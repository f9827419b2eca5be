package model

import "time"

// AgentStatus is the lifecycle state of an agent.
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
	AgentStatusBlocked  AgentStatus = "blocked"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s AgentStatus) IsValid() bool {
	switch s {
	case AgentStatusActive, AgentStatusInactive, AgentStatusBlocked:
		return true
	}
	return false
}

// AccessScope names the vault secrets and downstream resources an agent is
// allowed to touch once its credential has been verified.
type AccessScope struct {
	Secrets   []string `json:"secrets"`
	Resources []string `json:"resources"`
}

// AllowsSecret reports whether the scope includes the named vault secret.
func (s AccessScope) AllowsSecret(name string) bool {
	for _, n := range s.Secrets {
		if n == name {
			return true
		}
	}
	return false
}

// Agent is an identity record owned by the wallet that created it.
type Agent struct {
	ID            string
	WalletAddress string
	Name          string
	Description   string
	Type          string
	Status        AgentStatus
	Capabilities  []string
	RateLimit     int
	// ExpiryHours is the credential-expiry window granted at issuance.
	ExpiryHours int
	Scope       AccessScope
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnedBy reports whether the agent belongs to the given wallet address.
func (a Agent) OwnedBy(address string) bool {
	return a.WalletAddress == address
}
