package domain

import "time"

// Well-known ledger reasons. Free-form reasons are allowed; these are the
// ones the server itself writes.
const (
	ReasonStepReward   = "step_reward"
	ReasonShopPurchase = "shop_purchase"
	ReasonGiving       = "giving"
)

// LedgerEntry is one append-only row of the coin ledger. Amount is positive
// for earns and negative for spends; Balance is the running balance after
// the entry was applied.
type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// SpendResult reports the outcome of a spend attempt. A declined spend is
// an expected condition, not an error: Accepted is false and the balance
// is unchanged.
type SpendResult struct {
	Accepted bool  `json:"accepted"`
	Balance  int64 `json:"balance"`
}
