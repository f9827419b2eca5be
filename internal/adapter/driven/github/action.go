// Package github implements the vault gate's ActionRunner for GitHub-backed
// secrets using the go-github library.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActionRunner = (*ActionRunner)(nil)

// Action names understood by this runner.
const (
	// ActionWhoami authenticates with the decrypted token and returns the
	// login of the user it belongs to. The token never appears in the result.
	ActionWhoami = "github_whoami"
)

// ActionRunner runs downstream GitHub actions on behalf of the vault gate.
// Each call builds a short-lived client from the decrypted secret with the
// same transport stack used for long-lived API clients:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
type ActionRunner struct {
	baseURL string // Empty in production; set to an httptest URL in tests.
}

// NewActionRunner creates a runner against the public GitHub API.
func NewActionRunner() *ActionRunner {
	return &ActionRunner{}
}

// NewActionRunnerWithBaseURL creates a runner against a custom API base URL.
// Intended for tests injecting an httptest server.
func NewActionRunnerWithBaseURL(baseURL string) *ActionRunner {
	return &ActionRunner{baseURL: baseURL}
}

// Run executes the named action using secret as the PAT. The returned string
// describes the action's result and never contains the secret.
func (r *ActionRunner) Run(ctx context.Context, action, serviceURL, secret string) (string, error) {
	switch action {
	case ActionWhoami:
		return r.whoami(ctx, secret)
	default:
		return "", fmt.Errorf("%w: %q", driven.ErrUnknownAction, action)
	}
}

func (r *ActionRunner) whoami(ctx context.Context, token string) (string, error) {
	client, err := r.newClient(token)
	if err != nil {
		return "", err
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("github whoami: %w", err)
	}

	return fmt.Sprintf("authenticated as %s", user.GetLogin()), nil
}

func (r *ActionRunner) newClient(token string) (*gh.Client, error) {
	transport := github_ratelimit.NewClient(httpcache.NewMemoryCacheTransport())
	client := gh.NewClient(transport).WithAuthToken(token)

	if r.baseURL != "" {
		u, err := url.Parse(r.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		// Plain transport in tests; the cache layer would bypass httptest.
		client = gh.NewClient(http.DefaultClient).WithAuthToken(token)
		client.BaseURL = u
	}

	return client, nil
}
