package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

func TestActionRunner_Whoami(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	}))
	t.Cleanup(srv.Close)

	runner := NewActionRunnerWithBaseURL(srv.URL + "/")
	result, err := runner.Run(context.Background(), ActionWhoami, "", "ghp_token123")
	require.NoError(t, err)

	assert.Equal(t, "authenticated as octocat", result)
	assert.Equal(t, "Bearer ghp_token123", gotAuth)
	assert.NotContains(t, result, "ghp_token123")
}

func TestActionRunner_UnknownAction(t *testing.T) {
	runner := NewActionRunner()

	_, err := runner.Run(context.Background(), "launch_missiles", "", "token")
	assert.ErrorIs(t, err, driven.ErrUnknownAction)
}

func TestActionRunner_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	runner := NewActionRunnerWithBaseURL(srv.URL + "/")
	_, err := runner.Run(context.Background(), ActionWhoami, "", "bad-token")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "bad-token")
}
