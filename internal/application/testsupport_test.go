package application

import (
	"context"
	"errors"
	"sync"

	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// In-memory port fakes shared by the service tests.

type memCredentialStore struct {
	mu     sync.Mutex
	creds  map[string]model.Credential
	audits *memAuditStore
	fail   bool
}

func newMemCredentialStore(audits *memAuditStore) *memCredentialStore {
	return &memCredentialStore{creds: map[string]model.Credential{}, audits: audits}
}

func (s *memCredentialStore) RecordIssuance(ctx context.Context, cred model.Credential, entry model.AuditLog) error {
	if s.fail {
		return errors.New("store failure")
	}
	s.mu.Lock()
	s.creds[cred.ID] = cred
	s.mu.Unlock()
	return s.audits.Append(ctx, entry)
}

func (s *memCredentialStore) GetByID(_ context.Context, id string) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return nil, driven.ErrCredentialNotFound
	}
	return &cred, nil
}

func (s *memCredentialStore) ListByAgent(_ context.Context, agentID string) ([]model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Credential
	for _, c := range s.creds {
		if c.AgentID == agentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memCredentialStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return driven.ErrCredentialNotFound
	}
	cred.Status = model.CredentialStatusRevoked
	s.creds[id] = cred
	return nil
}

type memVerificationStore struct {
	mu   sync.Mutex
	rows []model.ProofVerification
	fail bool
}

func (s *memVerificationStore) Append(_ context.Context, v model.ProofVerification) error {
	if s.fail {
		return errors.New("store failure")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, v)
	return nil
}

func (s *memVerificationStore) ListByCredential(_ context.Context, credentialID string) ([]model.ProofVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ProofVerification
	for _, v := range s.rows {
		if v.CredentialID == credentialID {
			out = append(out, v)
		}
	}
	return out, nil
}

type memAuditStore struct {
	mu   sync.Mutex
	rows []model.AuditLog
}

func (s *memAuditStore) Append(_ context.Context, entry model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, entry)
	return nil
}

func (s *memAuditStore) ListByWallet(_ context.Context, _ string, limit int) ([]model.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return append([]model.AuditLog{}, s.rows[:limit]...), nil
}

func (s *memAuditStore) byAction(action string) []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AuditLog
	for _, e := range s.rows {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type memAgentStore struct {
	mu     sync.Mutex
	agents map[string]model.Agent
}

func newMemAgentStore() *memAgentStore {
	return &memAgentStore{agents: map[string]model.Agent{}}
}

func (s *memAgentStore) Create(_ context.Context, agent model.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = agent
	return nil
}

func (s *memAgentStore) GetByID(_ context.Context, id string) (*model.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[id]
	if !ok {
		return nil, driven.ErrAgentNotFound
	}
	return &agent, nil
}

func (s *memAgentStore) ListByWallet(_ context.Context, walletAddress string) ([]model.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Agent{}
	for _, a := range s.agents {
		if a.WalletAddress == walletAddress {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memAgentStore) Update(_ context.Context, agent model.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[agent.ID]; !ok {
		return driven.ErrAgentNotFound
	}
	s.agents[agent.ID] = agent
	return nil
}

func (s *memAgentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return driven.ErrAgentNotFound
	}
	delete(s.agents, id)
	return nil
}

type memVaultStore struct {
	mu      sync.Mutex
	secrets map[string]model.VaultSecret
	values  map[string]string
}

func newMemVaultStore() *memVaultStore {
	return &memVaultStore{secrets: map[string]model.VaultSecret{}, values: map[string]string{}}
}

func (s *memVaultStore) Set(_ context.Context, name, plaintext, serviceURL, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[name] = model.VaultSecret{Name: name, ServiceURL: serviceURL, Provider: provider}
	s.values[name] = plaintext
	return nil
}

func (s *memVaultStore) GetPlaintext(_ context.Context, name string) (string, model.VaultSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	if !ok {
		return "", model.VaultSecret{}, driven.ErrSecretNotFound
	}
	return v, s.secrets[name], nil
}

func (s *memVaultStore) List(_ context.Context) ([]model.VaultSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.VaultSecret
	for _, sec := range s.secrets {
		out = append(out, sec)
	}
	return out, nil
}

func (s *memVaultStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, name)
	delete(s.values, name)
	return nil
}

// spyLedger wraps another Ledger and counts calls per operation.
type spyLedger struct {
	inner        driven.Ledger
	issueCalls   int
	verifyCalls  int
	blockedCalls int
}

func (s *spyLedger) IssueCredential(ctx context.Context, agentID, secret string) (model.IssueResult, error) {
	s.issueCalls++
	return s.inner.IssueCredential(ctx, agentID, secret)
}

func (s *spyLedger) VerifyAuthorization(ctx context.Context, agentID, secret, hash string) (model.VerifyResult, error) {
	s.verifyCalls++
	return s.inner.VerifyAuthorization(ctx, agentID, secret, hash)
}

func (s *spyLedger) ReportBlocked(ctx context.Context) (string, error) {
	s.blockedCalls++
	return s.inner.ReportBlocked(ctx)
}

func (s *spyLedger) Stats(ctx context.Context) (model.LedgerStats, error) {
	return s.inner.Stats(ctx)
}

func (s *spyLedger) Available(ctx context.Context) bool {
	return s.inner.Available(ctx)
}
