package model

import "time"

// Wallet is one row per connecting external wallet address. It is the
// tenancy boundary: every agent belongs to exactly one wallet.
type Wallet struct {
	Address     string
	Name        string
	ConnectedAt time.Time
	LastLoginAt time.Time
}
