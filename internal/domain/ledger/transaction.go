// Package ledger defines the normalized transaction schema shared by the
// ingestion, storage and reconciliation layers.
//
// Rows arrive already normalized by the upstream export parsers: lowercase
// transaction types from a closed set, one row per event, institutions as
// free-form venue identifiers compared case-insensitively.
package ledger

import (
	"strings"
	"time"
)

// Type is a normalized transaction kind.
type Type string

// The closed set of normalized transaction types. Only TypeTransferOut and
// TypeTransferIn participate in transfer reconciliation; every other kind
// passes through untouched.
const (
	TypeBuy           Type = "buy"
	TypeSell          Type = "sell"
	TypeDeposit       Type = "deposit"
	TypeWithdrawal    Type = "withdrawal"
	TypeTransferOut   Type = "transfer_out"
	TypeTransferIn    Type = "transfer_in"
	TypeStakingReward Type = "staking_reward"
	TypeDividend      Type = "dividend"
	TypeAirdrop       Type = "airdrop"
	TypeSwap          Type = "swap"
	TypeUnknown       Type = "unknown"
)

// Institutions with dedicated reconciliation rules. Every other venue is an
// open string key.
const (
	InstitutionBinanceUS = "binanceus"
	InstitutionCoinbase  = "coinbase"
)

// Coinbase relabels staked ETH as ETH2; the two symbols are one underlying
// asset for transfer purposes.
const (
	AssetETH  = "ETH"
	AssetETH2 = "ETH2"
)

// DateLayout is the format used for matching_date values.
const DateLayout = "2006-01-02"

// Transaction is one normalized row of the transaction table.
type Transaction struct {
	ID int64 // storage identity; zero for rows not yet persisted

	Timestamp   time.Time
	Type        Type
	Asset       string
	Quantity    float64
	Institution string
	TxHash      string // empty when the source had no hash for this row
	CostBasis   float64

	// Populated by the transfer reconciler.
	TransferID          string
	MatchingInstitution string
	MatchingDate        string
	CostBasisPerUnit    float64
}

// IsTransfer reports whether the row is one leg of a custody transfer.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TypeTransferOut || t.Type == TypeTransferIn
}

// Matched reports whether the row has been paired with its counterpart leg.
// A transfer id is assigned at most once and never reset.
func (t *Transaction) Matched() bool {
	return t.TransferID != ""
}

// AtInstitution reports whether the row belongs to the given venue.
// Venue identifiers are compared case-insensitively.
func (t *Transaction) AtInstitution(venue string) bool {
	return strings.EqualFold(t.Institution, venue)
}

// Batch is one in-memory transaction table handed to the reconciler.
// Row order is significant: the matching heuristics resolve ties by taking
// the first candidate in table order.
type Batch struct {
	Rows []*Transaction

	// HasTxHash records whether the source table carried a transaction-hash
	// column at all. Hash matching is skipped entirely when it did not,
	// even if every row-level hash happens to be empty.
	HasTxHash bool
}

// ParseType normalizes a raw type label to a member of the closed set.
func ParseType(raw string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeBuy, TypeSell, TypeDeposit, TypeWithdrawal,
		TypeTransferOut, TypeTransferIn,
		TypeStakingReward, TypeDividend, TypeAirdrop, TypeSwap:
		return t
	default:
		return TypeUnknown
	}
}
