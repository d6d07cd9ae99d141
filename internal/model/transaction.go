package model

import "github.com/nkarimian/cardlab/internal/money"

// Transaction states as the platform simulator reports them.
const (
	TransactionPending = "PENDING"
	TransactionCleared = "CLEARED"
)

// Transaction is ephemeral: returned directly to the caller, never stored in
// the registry.
type Transaction struct {
	Token        string         `json:"token"`
	State        string         `json:"state"`
	Amount       money.Cents    `json:"amountCents"`
	ResponseCode string         `json:"responseCode,omitempty"`
	FundingOrder map[string]any `json:"fundingOrder,omitempty"`
	Raw          map[string]any `json:"-"`
}

// GPABalance is the cardholder's general-purpose account balance as reported
// by the platform.
type GPABalance struct {
	LedgerBalance    float64 `json:"ledger_balance"`
	AvailableBalance float64 `json:"available_balance"`
}
