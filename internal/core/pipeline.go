package core

import "recitecore/pkg/domain"

// Round pipeline queries. The pipeline answers ordering questions only;
// it does not prevent multiple active rounds (the active-round rule flags
// that as a warning and the admin surface is expected to
// deactivate-then-activate).

// ActiveRound returns the active round with the lowest order index.
func ActiveRound(view domain.TransactionView) (Round, bool) {
	var found Round
	ok := false
	for _, r := range view.ListRounds() {
		if !r.IsActive {
			continue
		}
		if !ok || r.OrderIndex < found.OrderIndex {
			found = r
			ok = true
		}
	}
	return found, ok
}

// NextRound returns the round whose order index is exactly one greater
// than the given round's. Ordering is what defines "next": a gap in the
// sequence means there is no next round, regardless of ids.
func NextRound(view domain.TransactionView, roundID string) (Round, bool, error) {
	current, ok := view.FindRound(roundID)
	if !ok {
		return Round{}, false, domain.NotFoundError{Entity: EntityRound, ID: roundID}
	}
	for _, r := range view.ListRounds() {
		if r.OrderIndex == current.OrderIndex+1 {
			return r, true, nil
		}
	}
	return Round{}, false, nil
}
