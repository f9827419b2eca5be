// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	LedgerURL     string
	LedgerTimeout time.Duration
	// SecretKey is the 32-byte vault encryption key, or nil when unset. The
	// vault stays metadata-only until a key is configured.
	SecretKey  []byte
	SessionKey []byte
	SessionTTL time.Duration
}

// HasSecretKey returns true when a vault encryption key is configured.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) > 0
}

// Load reads configuration from environment variables and returns a validated Config.
// ZKCRED_SECRET_KEY (64 hex chars) is optional; without it the vault rejects
// writes and decryption. ZKCRED_SESSION_KEY is optional; when absent the server
// generates a per-process key, invalidating sessions on restart.
// Optional variables with defaults: ZKCRED_LISTEN_ADDR (127.0.0.1:8080),
// ZKCRED_DB_PATH (zkcred.db), ZKCRED_LEDGER_URL (http://127.0.0.1:6300),
// ZKCRED_LEDGER_TIMEOUT (30s), ZKCRED_SESSION_TTL (168h).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("ZKCRED_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "zkcred.db"
	if v, ok := os.LookupEnv("ZKCRED_DB_PATH"); ok {
		dbPath = v
	}

	ledgerURL := "http://127.0.0.1:6300"
	if v, ok := os.LookupEnv("ZKCRED_LEDGER_URL"); ok {
		ledgerURL = v
	}

	ledgerTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("ZKCRED_LEDGER_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ZKCRED_LEDGER_TIMEOUT has invalid duration %q: %w", v, err)
		}
		ledgerTimeout = parsed
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("ZKCRED_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("ZKCRED_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("ZKCRED_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		secretKey = key
	}

	var sessionKey []byte
	if v, ok := os.LookupEnv("ZKCRED_SESSION_KEY"); ok && v != "" {
		sessionKey = []byte(v)
	}

	sessionTTL := 168 * time.Hour
	if v, ok := os.LookupEnv("ZKCRED_SESSION_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ZKCRED_SESSION_TTL has invalid duration %q: %w", v, err)
		}
		sessionTTL = parsed
	}

	return &Config{
		ListenAddr:    listenAddr,
		DBPath:        dbPath,
		LedgerURL:     ledgerURL,
		LedgerTimeout: ledgerTimeout,
		SecretKey:     secretKey,
		SessionKey:    sessionKey,
		SessionTTL:    sessionTTL,
	}, nil
}
