package model

// LedgerStats is a snapshot of the ledger's credential counters. Each counter
// is monotonically non-decreasing; Simulated is true when the snapshot came
// from the local fallback rather than the external subsystem.
type LedgerStats struct {
	TotalCredentials uint64
	SuccessfulAuths  uint64
	BlockedAttempts  uint64
	Simulated        bool
}

// IssueResult is the ledger's answer to a credential issuance call.
type IssueResult struct {
	TxHash         string
	CredentialHash string
	ZKProof        string
	Simulated      bool
}

// VerifyResult is the ledger's answer to an authorization proof call.
type VerifyResult struct {
	Verified  bool
	TxHash    string
	ZKProof   string
	Simulated bool
}

// WalletStats aggregates per-wallet dashboard counters from the relational
// store, as opposed to LedgerStats which reflects on-ledger state.
type WalletStats struct {
	Agents           int
	ActiveAgents     int
	Credentials      int
	Verifications    int
	SuccessfulProofs int
	BlockedAttempts  int
}
