package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cryptofolio/backend/internal/domain/ledger"
)

func TestMatchPair_QuantityTolerance(t *testing.T) {
	reconciler := NewReconciler(DefaultConfig())
	ts := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		outQuantity float64
		inQuantity  float64
		want        bool
	}{
		{"exact quantities", 1.0, 1.0, true},
		{"within 1 percent", 1.0, 0.995, true},
		{"just past 1 percent", 1.0, 0.98, false},
		{"dust transfer within base tolerance", 0.0005, 0.00055, true},
		{"dust transfer past base tolerance", 0.0005, 0.0008, false},
		{"large transfer with fee haircut", 100.0, 99.2, true},
		{"negative outbound sign ignored", -1.0, 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send := makeTransfer(ledger.TypeTransferOut, "BTC", tt.outQuantity, "binanceus", ts)
			receive := makeTransfer(ledger.TypeTransferIn, "BTC", tt.inQuantity, "coinbase", ts.Add(5*time.Minute))

			assert.Equal(t, tt.want, reconciler.matchPair(send, receive))
		})
	}
}

func TestMatchPair_TimeWindow(t *testing.T) {
	reconciler := NewReconciler(DefaultConfig())
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"same instant", 0, true},
		{"just inside 24h", 24*time.Hour - time.Minute, true},
		{"exactly 24h", 24 * time.Hour, true},
		{"past 24h", 25 * time.Hour, false},
		{"inbound before outbound", -3 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send := makeTransfer(ledger.TypeTransferOut, "BTC", 1.0, "binanceus", ts)
			receive := makeTransfer(ledger.TypeTransferIn, "BTC", 1.0, "coinbase", ts.Add(tt.offset))

			assert.Equal(t, tt.want, reconciler.matchPair(send, receive))
		})
	}
}

func TestMatchPair_AssetMismatch(t *testing.T) {
	reconciler := NewReconciler(DefaultConfig())
	ts := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	send := makeTransfer(ledger.TypeTransferOut, "BTC", 1.0, "binanceus", ts)
	receive := makeTransfer(ledger.TypeTransferIn, "ETH", 1.0, "coinbase", ts)

	assert.False(t, reconciler.matchPair(send, receive))
}

func TestMatchPair_RebrandSpecialCase(t *testing.T) {
	reconciler := NewReconciler(DefaultConfig())
	noon := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ETH to ETH2 same day at coinbase", func(t *testing.T) {
		send := makeTransfer(ledger.TypeTransferOut, "ETH", 2.0, "coinbase", noon)
		receive := makeTransfer(ledger.TypeTransferIn, "ETH2", 2.0, "coinbase", noon.Add(10*time.Hour))

		assert.True(t, reconciler.matchPair(send, receive))
	})

	t.Run("ETH2 back to ETH", func(t *testing.T) {
		send := makeTransfer(ledger.TypeTransferOut, "ETH2", 2.0, "coinbase", noon)
		receive := makeTransfer(ledger.TypeTransferIn, "ETH", 2.0, "coinbase", noon)

		assert.True(t, reconciler.matchPair(send, receive))
	})

	t.Run("different calendar days rejected", func(t *testing.T) {
		send := makeTransfer(ledger.TypeTransferOut, "ETH", 2.0, "coinbase", noon)
		receive := makeTransfer(ledger.TypeTransferIn, "ETH2", 2.0, "coinbase", noon.Add(13*time.Hour))

		assert.False(t, reconciler.matchPair(send, receive))
	})

	t.Run("rebrand symbols at another venue rejected", func(t *testing.T) {
		send := makeTransfer(ledger.TypeTransferOut, "ETH", 2.0, "kraken", noon)
		receive := makeTransfer(ledger.TypeTransferIn, "ETH2", 2.0, "kraken", noon)

		assert.False(t, reconciler.matchPair(send, receive))
	})
}

func TestPropagateCostBasis(t *testing.T) {
	t.Run("unit basis derived from outbound quantity", func(t *testing.T) {
		send := &ledger.Transaction{Quantity: 2.0, CostBasis: 500.0}
		receive := &ledger.Transaction{}

		propagateCostBasis(send, receive)

		assert.Equal(t, 500.0, receive.CostBasis)
		assert.InDelta(t, 250.0, receive.CostBasisPerUnit, 0.0001)
	})

	t.Run("negative outbound values taken absolute", func(t *testing.T) {
		send := &ledger.Transaction{Quantity: -2.0, CostBasis: -500.0}
		receive := &ledger.Transaction{}

		propagateCostBasis(send, receive)

		assert.Equal(t, 500.0, receive.CostBasis)
		assert.InDelta(t, 250.0, receive.CostBasisPerUnit, 0.0001)
	})

	t.Run("zero quantity leaves defaults", func(t *testing.T) {
		send := &ledger.Transaction{Quantity: 0, CostBasis: 500.0}
		receive := &ledger.Transaction{}

		propagateCostBasis(send, receive)

		assert.Equal(t, 0.0, receive.CostBasis)
		assert.Equal(t, 0.0, receive.CostBasisPerUnit)
	})
}
