package reconcile

import (
	"time"

	"github.com/cryptofolio/backend/internal/domain/ledger"
)

// Config holds reconciler configuration
type Config struct {
	// TimeTolerance bounds the candidate window used when grouping
	// venue-pair transfers by date. The shared matching predicate keeps
	// its own fixed 24-hour window for the general case.
	TimeTolerance time.Duration

	// QuantityTolerance is accepted but not consulted: the predicate
	// derives its own tolerance from the outbound quantity (1% with a
	// 0.0001 floor).
	QuantityTolerance float64

	// VenuePair names the two venues whose outbound transfers are
	// assumed to land at the other member of the pair.
	VenuePair [2]string

	// RebrandVenue and RebrandAssets describe the same-venue symbol swap
	// treated as a single transfer (Coinbase ETH <-> ETH2).
	RebrandVenue  string
	RebrandAssets [2]string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		TimeTolerance:     24 * time.Hour,
		QuantityTolerance: 0.1,
		VenuePair:         [2]string{ledger.InstitutionBinanceUS, ledger.InstitutionCoinbase},
		RebrandVenue:      ledger.InstitutionCoinbase,
		RebrandAssets:     [2]string{ledger.AssetETH, ledger.AssetETH2},
	}
}
