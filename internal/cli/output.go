package cli

import (
	"fmt"
	"strings"

	"github.com/cryptofolio/backend/internal/application/service"
	"github.com/cryptofolio/backend/internal/infrastructure/storage"
)

// PrintHeader prints the command header
func PrintHeader(command, dbPath string) {
	fmt.Printf("cryptofolio %s: %s\n", command, dbPath)
}

// PrintRunSummary prints the reconciliation result summary
func PrintRunSummary(result *service.RunResult, store storage.Repository) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Run #%d: Transactions=%d MatchedPairs=%d UnmatchedOut=%d UnmatchedIn=%d (%.0fms)\n",
		result.RunID,
		result.Stats.Total,
		result.Stats.MatchedPairs,
		result.Stats.UnmatchedOut,
		result.Stats.UnmatchedIn,
		float64(result.Elapsed.Microseconds())/1000)

	// Get stats from database
	if store != nil {
		stats, _ := store.GetStats()
		if stats != nil && stats.TotalTransactions > 0 {
			matchRate := 0.0
			transfers := stats.MatchedTransfers + stats.UnmatchedTransfers
			if transfers > 0 {
				matchRate = float64(stats.MatchedTransfers) / float64(transfers) * 100
			}
			fmt.Printf("\nAll-Time Stats: Transactions=%d Transfers=%d Matched=%.1f%%\n",
				stats.TotalTransactions,
				transfers,
				matchRate)
		}
	}
}
