package driven

import (
	"context"
	"errors"
)

// ErrUnknownAction indicates the vault gate was asked to run an action no
// runner is registered for.
var ErrUnknownAction = errors.New("unknown vault action")

// ActionRunner executes a downstream action on behalf of the vault gate using
// a decrypted secret. Implementations must return only the action's result;
// the secret itself must never appear in the returned string or in logs.
type ActionRunner interface {
	// Run performs the named action against serviceURL using secret for
	// authentication and returns a short, secret-free result description.
	Run(ctx context.Context, action, serviceURL, secret string) (string, error)
}
