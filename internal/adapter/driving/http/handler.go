// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/agentforge/zkcred/internal/application"
	"github.com/agentforge/zkcred/internal/domain/model"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Stable error codes for the vault access endpoint. Clients branch on these,
// not on HTTP status text.
const (
	vaultErrUnauthorized   = "UNAUTHORIZED"
	vaultErrSecretNotFound = "SECRET_NOT_FOUND"
	vaultErrActionFailed   = "ACTION_FAILED"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	agentSvc    *application.AgentService
	credSvc     *application.CredentialService
	vaultSvc    *application.VaultService
	activitySvc *application.ActivityService
	wallets     driven.WalletStore
	credentials driven.CredentialStore
	ledger      driven.Ledger
	sessions    *SessionManager
	metrics     *Metrics
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	agentSvc *application.AgentService,
	credSvc *application.CredentialService,
	vaultSvc *application.VaultService,
	activitySvc *application.ActivityService,
	wallets driven.WalletStore,
	credentials driven.CredentialStore,
	ldg driven.Ledger,
	sessions *SessionManager,
	metrics *Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		agentSvc:    agentSvc,
		credSvc:     credSvc,
		vaultSvc:    vaultSvc,
		activitySvc: activitySvc,
		wallets:     wallets,
		credentials: credentials,
		ledger:      ldg,
		sessions:    sessions,
		metrics:     metrics,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all API routes registered and
// wrapped with metrics, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, h)
	return ApplyMiddleware(mux, h.metrics, logger)
}

// ApplyMiddleware wraps a fully-registered mux with the shared middleware
// chain, so callers can add routes from other adapters first.
func ApplyMiddleware(mux *http.ServeMux, metrics *Metrics, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = metricsMiddleware(metrics, mux, wrapped)
	return wrapped
}

// RegisterRoutes registers the API routes on the provided mux, leaving room
// for the caller to add the web GUI routes alongside.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", h.metrics.Handler())

	mux.HandleFunc("POST /api/auth/connect", h.ConnectWallet)
	mux.HandleFunc("POST /api/auth/disconnect", h.DisconnectWallet)
	mux.HandleFunc("GET /api/auth/session", h.requireWallet(h.Session))

	mux.HandleFunc("GET /api/agents", h.requireWallet(h.ListAgents))
	mux.HandleFunc("POST /api/agents", h.requireWallet(h.CreateAgent))
	mux.HandleFunc("GET /api/agents/{id}", h.requireWallet(h.GetAgent))
	mux.HandleFunc("PATCH /api/agents/{id}", h.requireWallet(h.UpdateAgent))
	mux.HandleFunc("DELETE /api/agents/{id}", h.requireWallet(h.DeleteAgent))
	mux.HandleFunc("POST /api/agents/{id}/verify", h.requireWallet(h.VerifyAgent))

	mux.HandleFunc("POST /api/credentials/{id}/revoke", h.requireWallet(h.RevokeCredential))

	mux.HandleFunc("GET /api/stats/wallet", h.requireWallet(h.WalletStats))
	mux.HandleFunc("GET /api/activity/wallet", h.requireWallet(h.ActivityFeed))
	mux.HandleFunc("GET /api/ledger/stats", h.LedgerStats)

	mux.HandleFunc("GET /api/vault/secrets", h.requireWallet(h.ListVaultSecrets))
	mux.HandleFunc("POST /api/vault/secrets", h.requireWallet(h.StoreVaultSecret))
	// Vault access authenticates by credential, not by wallet session: the
	// caller is an agent, not a dashboard user.
	mux.HandleFunc("POST /api/vault/access", h.VaultAccess)
}

// walletHandler is an API handler that requires a connected wallet.
type walletHandler func(w http.ResponseWriter, r *http.Request, wallet string)

// requireWallet rejects requests without a valid session cookie.
func (h *Handler) requireWallet(next walletHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet, err := h.sessions.walletFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "wallet not connected")
			return
		}
		next(w, r, wallet)
	}
}

// Health reports service liveness and which ledger path is serving calls.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	mode := "connected"
	stats, err := h.ledger.Stats(r.Context())
	if err != nil || stats.Simulated {
		mode = "simulated"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		LedgerMode: mode,
		Time:       time.Now().UTC().Format(time.RFC3339),
	})
}

// ConnectWallet upserts the wallet row and issues a session cookie.
func (h *Handler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "wallet address required")
		return
	}

	now := time.Now().UTC()
	wallet := model.Wallet{
		Address:     req.Address,
		Name:        req.Name,
		ConnectedAt: now,
		LastLoginAt: now,
	}
	if err := h.wallets.Upsert(r.Context(), wallet); err != nil {
		h.logger.Error("failed to upsert wallet", "address", req.Address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, err := h.sessions.Issue(req.Address)
	if err != nil {
		h.logger.Error("failed to issue session", "address", req.Address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.sessions.SetCookie(w, token)

	stored, err := h.wallets.GetByAddress(r.Context(), req.Address)
	if err != nil {
		// The upsert succeeded; answer from the request rather than failing.
		stored = &wallet
	}
	writeJSON(w, http.StatusOK, toSessionResponse(*stored))
}

// DisconnectWallet clears the session cookie.
func (h *Handler) DisconnectWallet(w http.ResponseWriter, _ *http.Request) {
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the connected wallet.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request, wallet string) {
	stored, err := h.wallets.GetByAddress(r.Context(), wallet)
	if errors.Is(err, driven.ErrWalletNotFound) {
		writeError(w, http.StatusUnauthorized, "wallet not connected")
		return
	}
	if err != nil {
		h.logger.Error("failed to load wallet", "address", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(*stored))
}

// ListAgents returns the wallet's agents with their credential history.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request, wallet string) {
	agents, err := h.agentSvc.ListAgents(r.Context(), wallet)
	if err != nil {
		h.logger.Error("failed to list agents", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]AgentResponse, 0, len(agents))
	for _, agent := range agents {
		resp = append(resp, h.agentWithCredentials(r, agent))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateAgent registers an agent and returns it together with its first
// credential. The agent secret in the response is shown exactly once.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request, wallet string) {
	var req struct {
		Name         string            `json:"name"`
		Description  string            `json:"description"`
		Type         string            `json:"type"`
		Capabilities []string          `json:"capabilities"`
		RateLimit    int               `json:"rate_limit"`
		ExpiryHours  int               `json:"expiry_hours"`
		Scope        model.AccessScope `json:"scope"`
		Metadata     map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent, issued, err := h.agentSvc.CreateAgent(r.Context(), application.CreateAgentInput{
		WalletAddress: wallet,
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		Capabilities:  req.Capabilities,
		RateLimit:     req.RateLimit,
		ExpiryHours:   req.ExpiryHours,
		Scope:         req.Scope,
		Metadata:      req.Metadata,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to create agent", "wallet", wallet)
		return
	}

	h.metrics.CredentialsIssued.Inc()
	writeJSON(w, http.StatusCreated, CreateAgentResponse{
		Agent:      toAgentResponse(*agent),
		Credential: toIssuedCredentialResponse(*issued),
	})
}

// GetAgent returns one of the wallet's agents.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request, wallet string) {
	agent, err := h.agentSvc.GetAgent(r.Context(), r.PathValue("id"), wallet)
	if err != nil {
		h.writeServiceError(w, err, "failed to get agent", "wallet", wallet)
		return
	}
	writeJSON(w, http.StatusOK, h.agentWithCredentials(r, *agent))
}

// UpdateAgent applies a partial patch to one of the wallet's agents.
func (h *Handler) UpdateAgent(w http.ResponseWriter, r *http.Request, wallet string) {
	var req struct {
		Name         *string            `json:"name"`
		Description  *string            `json:"description"`
		Type         *string            `json:"type"`
		Status       *string            `json:"status"`
		Capabilities *[]string          `json:"capabilities"`
		RateLimit    *int               `json:"rate_limit"`
		ExpiryHours  *int               `json:"expiry_hours"`
		Scope        *model.AccessScope `json:"scope"`
		Metadata     *map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := application.UpdateAgentInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Capabilities: req.Capabilities,
		RateLimit:    req.RateLimit,
		ExpiryHours:  req.ExpiryHours,
		Scope:        req.Scope,
		Metadata:     req.Metadata,
	}
	if req.Status != nil {
		status := model.AgentStatus(*req.Status)
		patch.Status = &status
	}

	agent, err := h.agentSvc.UpdateAgent(r.Context(), r.PathValue("id"), wallet, patch)
	if err != nil {
		h.writeServiceError(w, err, "failed to update agent", "wallet", wallet)
		return
	}
	writeJSON(w, http.StatusOK, toAgentResponse(*agent))
}

// DeleteAgent removes one of the wallet's agents.
func (h *Handler) DeleteAgent(w http.ResponseWriter, r *http.Request, wallet string) {
	if err := h.agentSvc.DeleteAgent(r.Context(), r.PathValue("id"), wallet); err != nil {
		h.writeServiceError(w, err, "failed to delete agent", "wallet", wallet)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyAgent runs an authorization proof for one of the wallet's agents.
// With no credential_id in the body, the agent's most recent active
// credential is used.
func (h *Handler) VerifyAgent(w http.ResponseWriter, r *http.Request, wallet string) {
	var req struct {
		CredentialID string `json:"credential_id"`
		AgentSecret  string `json:"agent_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent, err := h.agentSvc.GetAgent(r.Context(), r.PathValue("id"), wallet)
	if err != nil {
		h.writeServiceError(w, err, "failed to get agent", "wallet", wallet)
		return
	}

	credentialID := req.CredentialID
	if credentialID == "" {
		creds, err := h.credentials.ListByAgent(r.Context(), agent.ID)
		if err != nil {
			h.logger.Error("failed to list credentials", "agent_id", agent.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		for _, c := range creds {
			if c.IsActive() {
				credentialID = c.ID
				break
			}
		}
		if credentialID == "" {
			writeError(w, http.StatusNotFound, "agent has no active credential")
			return
		}
	}

	verified, err := h.credSvc.VerifyAgentAuthorization(r.Context(), credentialID, req.AgentSecret)
	if err != nil {
		h.writeServiceError(w, err, "failed to verify authorization", "credential_id", credentialID)
		return
	}

	if verified {
		h.metrics.ProofsVerified.Inc()
	} else {
		h.metrics.AttemptsBlocked.Inc()
	}
	writeJSON(w, http.StatusOK, VerifyResponse{Verified: verified})
}

// RevokeCredential revokes a credential after confirming the wallet owns the
// agent it was issued to. A credential belonging to another wallet is
// indistinguishable from one that does not exist.
func (h *Handler) RevokeCredential(w http.ResponseWriter, r *http.Request, wallet string) {
	id := r.PathValue("id")

	cred, err := h.credentials.GetByID(r.Context(), id)
	if errors.Is(err, driven.ErrCredentialNotFound) {
		writeError(w, http.StatusNotFound, "credential not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get credential", "credential_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if _, err := h.agentSvc.GetAgent(r.Context(), cred.AgentID, wallet); err != nil {
		writeError(w, http.StatusNotFound, "credential not found")
		return
	}

	if err := h.credSvc.RevokeCredential(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "failed to revoke credential", "credential_id", id)
		return
	}

	revoked, err := h.credentials.GetByID(r.Context(), id)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toCredentialResponse(*revoked))
}

// WalletStats returns the wallet's dashboard counters.
func (h *Handler) WalletStats(w http.ResponseWriter, r *http.Request, wallet string) {
	stats, err := h.activitySvc.WalletStats(r.Context(), wallet)
	if err != nil {
		h.logger.Error("failed to load wallet stats", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, WalletStatsResponse{
		Agents:           stats.Agents,
		ActiveAgents:     stats.ActiveAgents,
		Credentials:      stats.Credentials,
		Verifications:    stats.Verifications,
		SuccessfulProofs: stats.SuccessfulProofs,
		BlockedAttempts:  stats.BlockedAttempts,
	})
}

// ActivityFeed returns the wallet's most recent audit entries.
func (h *Handler) ActivityFeed(w http.ResponseWriter, r *http.Request, wallet string) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.activitySvc.ActivityFeed(r.Context(), wallet, limit)
	if err != nil {
		h.logger.Error("failed to load activity feed", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toAuditLogResponse(entry))
	}
	writeJSON(w, http.StatusOK, resp)
}

// LedgerStats returns the on-ledger counters. It is public: the counters
// reveal nothing per-wallet.
func (h *Handler) LedgerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to load ledger stats", "error", err)
		writeError(w, http.StatusServiceUnavailable, "ledger unavailable")
		return
	}
	writeJSON(w, http.StatusOK, LedgerStatsResponse{
		TotalCredentials: stats.TotalCredentials,
		SuccessfulAuths:  stats.SuccessfulAuths,
		BlockedAttempts:  stats.BlockedAttempts,
		Simulated:        stats.Simulated,
	})
}

// ListVaultSecrets returns vault metadata; values stay encrypted.
func (h *Handler) ListVaultSecrets(w http.ResponseWriter, r *http.Request, _ string) {
	secrets, err := h.vaultSvc.ListSecrets(r.Context())
	if err != nil {
		h.logger.Error("failed to list vault secrets", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]VaultSecretResponse, 0, len(secrets))
	for _, s := range secrets {
		resp = append(resp, toVaultSecretResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// StoreVaultSecret encrypts and stores a secret.
func (h *Handler) StoreVaultSecret(w http.ResponseWriter, r *http.Request, _ string) {
	var req struct {
		Name       string `json:"name"`
		Value      string `json:"value"`
		ServiceURL string `json:"service_url"`
		Provider   string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.vaultSvc.StoreSecret(r.Context(), req.Name, req.Value, req.ServiceURL, req.Provider); err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			writeError(w, http.StatusConflict, driven.ErrEncryptionKeyNotSet.Error())
			return
		}
		h.writeServiceError(w, err, "failed to store vault secret", "name", req.Name)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// VaultAccess verifies the caller's credential and runs the requested action
// with the decrypted secret. The response carries only the action's result.
func (h *Handler) VaultAccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CredentialID string `json:"credential_id"`
		AgentSecret  string `json:"agent_secret"`
		SecretName   string `json:"secret_name"`
		Action       string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.vaultSvc.RequestAccess(r.Context(), application.AccessRequest{
		CredentialID: req.CredentialID,
		AgentSecret:  req.AgentSecret,
		SecretName:   req.SecretName,
		Action:       req.Action,
	})
	switch {
	case err == nil:
		h.metrics.VaultAccessGranted.Inc()
		writeJSON(w, http.StatusOK, VaultAccessResponse{
			Success: true,
			Action:  result.Action,
			Result:  result.Result,
		})
	case errors.Is(err, application.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrUnauthorized):
		h.metrics.VaultAccessDenied.Inc()
		writeJSON(w, http.StatusUnauthorized, VaultAccessResponse{Success: false, Error: vaultErrUnauthorized})
	case errors.Is(err, driven.ErrSecretNotFound):
		writeJSON(w, http.StatusNotFound, VaultAccessResponse{Success: false, Error: vaultErrSecretNotFound})
	default:
		h.logger.Error("vault access failed", "secret_name", req.SecretName, "error", err)
		writeJSON(w, http.StatusBadGateway, VaultAccessResponse{Success: false, Error: vaultErrActionFailed})
	}
}

// agentWithCredentials builds an AgentResponse including credential history.
// A credential listing failure degrades to the bare agent.
func (h *Handler) agentWithCredentials(r *http.Request, agent model.Agent) AgentResponse {
	resp := toAgentResponse(agent)

	creds, err := h.credentials.ListByAgent(r.Context(), agent.ID)
	if err != nil {
		h.logger.Error("failed to list credentials", "agent_id", agent.ID, "error", err)
		return resp
	}
	resp.Credentials = make([]CredentialResponse, 0, len(creds))
	for _, c := range creds {
		resp.Credentials = append(resp.Credentials, toCredentialResponse(c))
	}
	return resp
}

// writeServiceError maps application and store errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string, logArgs ...any) {
	switch {
	case errors.Is(err, application.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, driven.ErrAgentNotFound):
		writeError(w, http.StatusNotFound, "agent not found")
	case errors.Is(err, driven.ErrCredentialNotFound):
		writeError(w, http.StatusNotFound, "credential not found")
	default:
		h.logger.Error(msg, append(logArgs, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
