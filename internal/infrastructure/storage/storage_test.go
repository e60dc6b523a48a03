package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofolio/backend/internal/domain/ledger"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRows() []*ledger.Transaction {
	noon := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	return []*ledger.Transaction{
		{
			Timestamp:   noon,
			Type:        ledger.TypeTransferOut,
			Asset:       "BTC",
			Quantity:    0.5,
			Institution: "binanceus",
			CostBasis:   8000,
			TxHash:      "0xabc",
		},
		{
			Timestamp:   noon.Add(3 * time.Minute),
			Type:        ledger.TypeTransferIn,
			Asset:       "BTC",
			Quantity:    0.5,
			Institution: "coinbase",
			TxHash:      "0xabc",
		},
		{
			Timestamp:   noon.Add(time.Hour),
			Type:        ledger.TypeBuy,
			Asset:       "ETH",
			Quantity:    2.0,
			Institution: "coinbase",
			CostBasis:   2400,
		},
	}
}

func TestStorage_SaveAndLoadBatch(t *testing.T) {
	store := newTestStorage(t)

	rows := sampleRows()
	require.NoError(t, store.SaveTransactions(rows))

	// IDs assigned in insertion order
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(2), rows[1].ID)
	assert.Equal(t, int64(3), rows[2].ID)

	batch, err := store.LoadBatch()
	require.NoError(t, err)
	require.Len(t, batch.Rows, 3)
	assert.True(t, batch.HasTxHash)

	first := batch.Rows[0]
	assert.Equal(t, ledger.TypeTransferOut, first.Type)
	assert.Equal(t, "BTC", first.Asset)
	assert.Equal(t, 0.5, first.Quantity)
	assert.Equal(t, "binanceus", first.Institution)
	assert.Equal(t, 8000.0, first.CostBasis)
	assert.Equal(t, "0xabc", first.TxHash)
	assert.True(t, first.Timestamp.Equal(rows[0].Timestamp))
	assert.Empty(t, first.TransferID)
}

func TestStorage_LoadBatch_NoHashes(t *testing.T) {
	store := newTestStorage(t)

	rows := sampleRows()
	for _, row := range rows {
		row.TxHash = ""
	}
	require.NoError(t, store.SaveTransactions(rows))

	batch, err := store.LoadBatch()
	require.NoError(t, err)
	assert.False(t, batch.HasTxHash)
}

func TestStorage_UpdateTransferMatches(t *testing.T) {
	store := newTestStorage(t)

	rows := sampleRows()
	require.NoError(t, store.SaveTransactions(rows))

	rows[0].TransferID = "id-1"
	rows[0].MatchingInstitution = "coinbase"
	rows[0].MatchingDate = "2023-01-01"
	rows[1].TransferID = "id-1"
	rows[1].MatchingInstitution = "binanceus"
	rows[1].MatchingDate = "2023-01-01"
	rows[1].CostBasis = 8000
	rows[1].CostBasisPerUnit = 16000

	require.NoError(t, store.UpdateTransferMatches(rows[:2]))

	reloaded, err := store.GetTransaction(rows[1].ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, "id-1", reloaded.TransferID)
	assert.Equal(t, "binanceus", reloaded.MatchingInstitution)
	assert.Equal(t, "2023-01-01", reloaded.MatchingDate)
	assert.Equal(t, 8000.0, reloaded.CostBasis)
	assert.Equal(t, 16000.0, reloaded.CostBasisPerUnit)
}

func TestStorage_UpdateWithoutID(t *testing.T) {
	store := newTestStorage(t)

	err := store.UpdateTransferMatches([]*ledger.Transaction{{Asset: "BTC"}})
	assert.Error(t, err)
}

func TestStorage_GetTransaction_Missing(t *testing.T) {
	store := newTestStorage(t)

	record, err := store.GetTransaction(42)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestStorage_ListTransactions_Filters(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.SaveTransactions(sampleRows()))

	t.Run("by type", func(t *testing.T) {
		result, err := store.ListTransactions(TransactionFilters{Type: "transfer_out"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalCount)
		require.Len(t, result.Transactions, 1)
		assert.Equal(t, ledger.TypeTransferOut, result.Transactions[0].Type)
	})

	t.Run("by institution case-insensitive", func(t *testing.T) {
		result, err := store.ListTransactions(TransactionFilters{Institution: "Coinbase"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalCount)
	})

	t.Run("by matched state", func(t *testing.T) {
		unmatched := false
		result, err := store.ListTransactions(TransactionFilters{Matched: &unmatched})
		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalCount)
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := store.ListTransactions(TransactionFilters{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalCount)
		assert.Len(t, result.Transactions, 1)
		assert.Equal(t, 2, result.Limit)
		assert.Equal(t, 2, result.Offset)
	})
}

func TestStorage_GetStats(t *testing.T) {
	store := newTestStorage(t)

	rows := sampleRows()
	require.NoError(t, store.SaveTransactions(rows))

	rows[0].TransferID = "id-1"
	rows[1].TransferID = "id-1"
	require.NoError(t, store.UpdateTransferMatches(rows[:2]))

	stats, err := store.GetStats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalTransactions)
	assert.Equal(t, 1, stats.CountsByType["transfer_out"])
	assert.Equal(t, 1, stats.CountsByType["transfer_in"])
	assert.Equal(t, 1, stats.CountsByType["buy"])
	assert.Equal(t, 2, stats.MatchedTransfers)
	assert.Equal(t, 0, stats.UnmatchedTransfers)
}

func TestStorage_ReconcileRuns(t *testing.T) {
	store := newTestStorage(t)

	runID, err := store.StartRun(10)
	require.NoError(t, err)

	run, err := store.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Equal(t, 10, run.Total)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, store.CompleteRun(runID, 4, 1, 1))

	run, err = store.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 4, run.MatchedPairs)
	assert.Equal(t, 1, run.UnmatchedOut)
	assert.Equal(t, 1, run.UnmatchedIn)
	assert.NotNil(t, run.CompletedAt)

	runs, err := store.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
}

func TestStorage_GetRun_Missing(t *testing.T) {
	store := newTestStorage(t)

	run, err := store.GetRun(99)
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestStorage_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")

	store, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations
	store, err = NewStorage(path)
	require.NoError(t, err)
	defer store.Close()

	applied, err := store.getAppliedMigrations()
	require.NoError(t, err)
	assert.Len(t, applied, len(allMigrations))
}
