// Package reconcile pairs the two legs of custody transfers inside a
// normalized transaction batch.
//
// An asset leaving one venue and arriving at another is recorded as two
// unrelated rows (transfer_out, transfer_in). The reconciler assigns each
// such pair a shared transfer id and carries the outbound cost basis over
// to the inbound leg, so downstream tax-lot accounting can treat the
// movement as non-taxable.
//
// Matching runs in five ordered phases over one in-memory batch:
//
//  1. normalize transfer_in quantities to non-negative
//  2. pair rows sharing an on-chain transaction hash
//  3. pair rows between the two configured venues, grouped by date/asset
//  4. pair same-venue rebrand legs (Coinbase ETH <-> ETH2)
//  5. pair any remaining legs globally
//
// Later phases only see rows left unmatched by earlier ones. Scans are
// strictly first-candidate-wins in table order; the outcome depends on row
// order, not on closeness of quantity or time. That tie-break is a
// deliberate part of the contract and callers wanting cross-platform
// determinism should hand in rows in a stable order.
//
// The engine performs no I/O and never fails on unmatched residue; leftover
// legs simply keep an empty transfer id and are reported in Stats.
package reconcile

import (
	"math"

	"github.com/cryptofolio/backend/internal/domain/ledger"
)

// Reconciler pairs transfer_out and transfer_in rows of a batch.
type Reconciler struct {
	config Config
}

// NewReconciler creates a new reconciler with the given config
func NewReconciler(config Config) *Reconciler {
	return &Reconciler{config: config}
}

// Stats summarizes one reconciliation run. Unmatched legs are an expected
// outcome, surfaced here rather than as an error.
type Stats struct {
	Total        int `json:"total"`
	MatchedPairs int `json:"matched_pairs"`
	UnmatchedOut int `json:"unmatched_out"`
	UnmatchedIn  int `json:"unmatched_in"`
}

// Reconcile runs all matching phases over the batch, mutating rows in
// place, and returns aggregate match counts. The reconciler assumes
// exclusive ownership of the batch for the duration of the call.
func (r *Reconciler) Reconcile(batch *ledger.Batch) Stats {
	r.normalizeQuantities(batch)

	if batch.HasTxHash {
		r.matchByHash(batch)
	}
	r.matchVenuePairs(batch)
	r.matchRebrands(batch)
	r.matchRemaining(batch)

	return r.stats(batch)
}

// normalizeQuantities forces every transfer_in quantity non-negative.
// Some exports record receipts with the withdrawal's sign; the inbound leg
// is always an increase. Outbound signs are left alone.
func (r *Reconciler) normalizeQuantities(batch *ledger.Batch) {
	for _, row := range batch.Rows {
		if row.Type == ledger.TypeTransferIn {
			row.Quantity = math.Abs(row.Quantity)
		}
	}
}

// matchByHash pairs legs sharing an exact on-chain transaction hash. This
// is the most reliable signal, so it runs before any heuristic. When
// several inbound rows carry the same hash the first unmatched one in
// table order wins.
func (r *Reconciler) matchByHash(batch *ledger.Batch) {
	inByHash := make(map[string][]*ledger.Transaction)
	for _, row := range batch.Rows {
		if row.Type == ledger.TypeTransferIn && row.TxHash != "" {
			inByHash[row.TxHash] = append(inByHash[row.TxHash], row)
		}
	}

	for _, send := range batch.Rows {
		if send.Type != ledger.TypeTransferOut || send.Matched() || send.TxHash == "" {
			continue
		}
		for _, receive := range inByHash[send.TxHash] {
			if !receive.Matched() {
				r.link(send, receive)
				break
			}
		}
	}
}

// matchVenuePairs pairs transfers between the two configured venues, in
// both directions. All transfers out of either venue are assumed to land
// at the other; no third venue is inferred. Outbound rows are grouped by
// (timestamp, asset) and each group queries inbound candidates at the
// destination within the configured time tolerance.
func (r *Reconciler) matchVenuePairs(batch *ledger.Batch) {
	directions := [2][2]string{
		{r.config.VenuePair[0], r.config.VenuePair[1]},
		{r.config.VenuePair[1], r.config.VenuePair[0]},
	}

	for _, direction := range directions {
		from, to := direction[0], direction[1]

		type groupKey struct {
			unixNano int64
			asset    string
		}
		var order []groupKey
		groups := make(map[groupKey][]*ledger.Transaction)
		for _, send := range batch.Rows {
			if send.Type != ledger.TypeTransferOut || send.Matched() || !send.AtInstitution(from) {
				continue
			}
			key := groupKey{send.Timestamp.UnixNano(), send.Asset}
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], send)
		}

		// Groups are visited in first-appearance order to keep the run
		// reproducible for a given row order.
		for _, key := range order {
			group := groups[key]
			groupTime := group[0].Timestamp

			var candidates []*ledger.Transaction
			for _, row := range batch.Rows {
				if row.Type == ledger.TypeTransferIn && !row.Matched() &&
					row.AtInstitution(to) && row.Asset == key.asset &&
					absDuration(row.Timestamp.Sub(groupTime)) <= r.config.TimeTolerance {
					candidates = append(candidates, row)
				}
			}

			for _, send := range group {
				if send.Matched() {
					continue
				}
				for _, receive := range candidates {
					if receive.Matched() {
						continue
					}
					if r.matchPair(send, receive) {
						r.link(send, receive)
						break
					}
				}
			}
		}
	}
}

// matchRebrands pairs same-venue rebrand legs: an outbound row in one
// symbol of the rebrand pair against an inbound row in the counterpart
// symbol at the same venue.
func (r *Reconciler) matchRebrands(batch *ledger.Batch) {
	for _, send := range batch.Rows {
		if send.Type != ledger.TypeTransferOut || send.Matched() ||
			!send.AtInstitution(r.config.RebrandVenue) {
			continue
		}
		target, ok := r.rebrandCounterpart(send.Asset)
		if !ok {
			continue
		}
		for _, receive := range batch.Rows {
			if receive.Type != ledger.TypeTransferIn || receive.Matched() ||
				!receive.AtInstitution(r.config.RebrandVenue) || receive.Asset != target {
				continue
			}
			if r.matchPair(send, receive) {
				r.link(send, receive)
				break
			}
		}
	}
}

// matchRemaining is the final relaxed pass: every still-unmatched outbound
// row against every still-unmatched inbound row, any venue, first
// predicate hit wins. It catches transfers between venue combinations the
// targeted phases do not cover. The scan is quadratic in the unmatched
// residue, which is small in practice once the earlier phases have run.
func (r *Reconciler) matchRemaining(batch *ledger.Batch) {
	for _, send := range batch.Rows {
		if send.Type != ledger.TypeTransferOut || send.Matched() {
			continue
		}
		for _, receive := range batch.Rows {
			if receive.Type != ledger.TypeTransferIn || receive.Matched() {
				continue
			}
			if r.matchPair(send, receive) {
				r.link(send, receive)
				break
			}
		}
	}
}

func (r *Reconciler) stats(batch *ledger.Batch) Stats {
	stats := Stats{Total: len(batch.Rows)}
	for _, row := range batch.Rows {
		switch {
		case row.Matched():
			// Every transfer id is shared by exactly one out/in pair.
			if row.Type == ledger.TypeTransferOut {
				stats.MatchedPairs++
			}
		case row.Type == ledger.TypeTransferOut:
			stats.UnmatchedOut++
		case row.Type == ledger.TypeTransferIn:
			stats.UnmatchedIn++
		}
	}
	return stats
}
