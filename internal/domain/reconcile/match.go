package reconcile

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cryptofolio/backend/internal/domain/ledger"
)

// generalTimeWindow is the fixed window used by the predicate's general
// case and by the fallback phase, independent of Config.TimeTolerance.
const generalTimeWindow = 24 * time.Hour

// baseQuantityTolerance is the floor under the percentage tolerance so that
// dust-sized transfers still have room for fee rounding.
const baseQuantityTolerance = 0.0001

// matchPair reports whether an outbound/inbound pair of transfer legs
// belong to the same custody movement.
func (r *Reconciler) matchPair(send, receive *ledger.Transaction) bool {
	// Larger transfers get a looser tolerance: 1% of the outbound amount.
	tolerance := math.Max(baseQuantityTolerance, math.Abs(send.Quantity)*0.01)
	quantityMatches := math.Abs(math.Abs(send.Quantity)-math.Abs(receive.Quantity)) <= tolerance

	// Same-venue rebrand: the symbols differ but it is one movement when
	// the quantities line up on the same calendar day.
	if r.isRebrandPair(send, receive) {
		return quantityMatches && sameDate(send.Timestamp, receive.Timestamp)
	}

	return send.Asset == receive.Asset &&
		quantityMatches &&
		absDuration(send.Timestamp.Sub(receive.Timestamp)) <= generalTimeWindow
}

// isRebrandPair reports whether both legs sit at the rebrand venue and
// their symbols form the rebrand pair.
func (r *Reconciler) isRebrandPair(send, receive *ledger.Transaction) bool {
	if !send.AtInstitution(r.config.RebrandVenue) || !receive.AtInstitution(r.config.RebrandVenue) {
		return false
	}
	a, b := r.config.RebrandAssets[0], r.config.RebrandAssets[1]
	return (send.Asset == a && receive.Asset == b) || (send.Asset == b && receive.Asset == a)
}

// rebrandCounterpart returns the other symbol of the rebrand pair, or false
// when the asset is not part of the pair.
func (r *Reconciler) rebrandCounterpart(asset string) (string, bool) {
	switch asset {
	case r.config.RebrandAssets[0]:
		return r.config.RebrandAssets[1], true
	case r.config.RebrandAssets[1]:
		return r.config.RebrandAssets[0], true
	}
	return "", false
}

// link marks both legs as one transfer: a fresh shared transfer id, the
// denormalized view of the counterpart on each leg, and the outbound cost
// basis propagated to the inbound leg.
func (r *Reconciler) link(send, receive *ledger.Transaction) {
	id := uuid.NewString()
	send.TransferID = id
	receive.TransferID = id

	send.MatchingInstitution = receive.Institution
	send.MatchingDate = receive.Timestamp.Format(ledger.DateLayout)
	receive.MatchingInstitution = send.Institution
	receive.MatchingDate = send.Timestamp.Format(ledger.DateLayout)

	propagateCostBasis(send, receive)
}

// propagateCostBasis copies the outbound basis onto the inbound leg so the
// transfer is basis-neutral downstream. Skipped when the outbound quantity
// is zero; the inbound leg then keeps its zero defaults.
func propagateCostBasis(send, receive *ledger.Transaction) {
	quantity := math.Abs(send.Quantity)
	if quantity == 0 {
		return
	}
	basis := math.Abs(send.CostBasis)
	receive.CostBasis = basis
	receive.CostBasisPerUnit = basis / quantity
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
