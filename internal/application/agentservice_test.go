package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// stubIssuer hands back a canned credential for whatever agent it is given.
type stubIssuer struct {
	lastAgentID string
	calls       int
}

func (i *stubIssuer) IssueAgentCredential(_ context.Context, agentID string) (*model.IssuedCredential, error) {
	i.calls++
	i.lastAgentID = agentID
	return &model.IssuedCredential{
		CredentialID: "cred-" + agentID,
		AgentSecret:  "one-time-secret",
	}, nil
}

func newAgentService(t *testing.T) (*AgentService, *memAgentStore, *stubIssuer) {
	t.Helper()
	agents := newMemAgentStore()
	issuer := &stubIssuer{}
	return NewAgentService(agents, issuer, slog.Default()), agents, issuer
}

func TestCreateAgent_IssuesCredential(t *testing.T) {
	svc, _, issuer := newAgentService(t)

	agent, issued, err := svc.CreateAgent(context.Background(), CreateAgentInput{
		WalletAddress: "0xabc",
		Name:          "ci-bot",
		Type:          "automation",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, model.AgentStatusActive, agent.Status)
	assert.Equal(t, 1, issuer.calls)
	assert.Equal(t, agent.ID, issuer.lastAgentID)
	assert.Equal(t, "one-time-secret", issued.AgentSecret)
}

func TestCreateAgent_Validation(t *testing.T) {
	svc, _, issuer := newAgentService(t)

	_, _, err := svc.CreateAgent(context.Background(), CreateAgentInput{WalletAddress: "0xabc"})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = svc.CreateAgent(context.Background(), CreateAgentInput{Name: "ci-bot"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 0, issuer.calls)
}

func TestGetAgent_WalletIsolation(t *testing.T) {
	svc, _, _ := newAgentService(t)

	agent, _, err := svc.CreateAgent(context.Background(), CreateAgentInput{
		WalletAddress: "0xabc",
		Name:          "ci-bot",
	})
	require.NoError(t, err)

	got, err := svc.GetAgent(context.Background(), agent.ID, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, got.ID)

	// Another wallet sees the same answer as for a nonexistent agent.
	_, err = svc.GetAgent(context.Background(), agent.ID, "0xother")
	assert.ErrorIs(t, err, driven.ErrAgentNotFound)
}

func TestUpdateAgent_PartialPatch(t *testing.T) {
	svc, _, _ := newAgentService(t)

	agent, _, err := svc.CreateAgent(context.Background(), CreateAgentInput{
		WalletAddress: "0xabc",
		Name:          "ci-bot",
		Description:   "runs the pipeline",
	})
	require.NoError(t, err)

	blocked := model.AgentStatusBlocked
	updated, err := svc.UpdateAgent(context.Background(), agent.ID, "0xabc", UpdateAgentInput{
		Status: &blocked,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AgentStatusBlocked, updated.Status)
	assert.Equal(t, "ci-bot", updated.Name)
	assert.Equal(t, "runs the pipeline", updated.Description)
}

func TestUpdateAgent_RejectsBadPatch(t *testing.T) {
	svc, _, _ := newAgentService(t)

	agent, _, err := svc.CreateAgent(context.Background(), CreateAgentInput{
		WalletAddress: "0xabc",
		Name:          "ci-bot",
	})
	require.NoError(t, err)

	empty := ""
	_, err = svc.UpdateAgent(context.Background(), agent.ID, "0xabc", UpdateAgentInput{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	bogus := model.AgentStatus("dormant")
	_, err = svc.UpdateAgent(context.Background(), agent.ID, "0xabc", UpdateAgentInput{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)

	name := "renamed"
	_, err = svc.UpdateAgent(context.Background(), agent.ID, "0xother", UpdateAgentInput{Name: &name})
	assert.ErrorIs(t, err, driven.ErrAgentNotFound)
}

func TestDeleteAgent(t *testing.T) {
	svc, agents, _ := newAgentService(t)

	agent, _, err := svc.CreateAgent(context.Background(), CreateAgentInput{
		WalletAddress: "0xabc",
		Name:          "ci-bot",
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteAgent(context.Background(), agent.ID, "0xother"), driven.ErrAgentNotFound)

	require.NoError(t, svc.DeleteAgent(context.Background(), agent.ID, "0xabc"))
	_, err = agents.GetByID(context.Background(), agent.ID)
	assert.ErrorIs(t, err, driven.ErrAgentNotFound)
}
