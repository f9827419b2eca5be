package model

import "time"

// VaultSecret is an encrypted secret at rest. Ciphertext and Nonce are the
// base64 outputs of the secretbox; the plaintext value is decrypted only
// in-memory during an authorized vault access and never leaves the process.
type VaultSecret struct {
	Name       string
	Ciphertext string
	Nonce      string
	ServiceURL string
	Provider   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
