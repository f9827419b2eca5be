package driven

import (
	"context"
	"errors"

	"github.com/agentforge/zkcred/internal/domain/model"
)

// Sentinel errors returned by WalletStore implementations.
var (
	// ErrWalletNotFound indicates no wallet row exists for the address.
	ErrWalletNotFound = errors.New("wallet not found")
)

// WalletStore defines the driven port for wallet session rows.
type WalletStore interface {
	// Upsert creates the wallet row on first connect and refreshes the
	// display name and last-login timestamp on every subsequent connect.
	Upsert(ctx context.Context, wallet model.Wallet) error

	GetByAddress(ctx context.Context, address string) (*model.Wallet, error)

	// Stats aggregates the wallet's dashboard counters from the agent,
	// credential and verification tables.
	Stats(ctx context.Context, address string) (model.WalletStats, error)
}
