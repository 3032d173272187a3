// Package lifecycle owns the listing status machine. Every status change in
// the marketplace goes through this table; a transition missing here does
// not happen, no matter who asks.
package lifecycle

import (
	"fmt"

	"gemnet/pkg/model"
)

// transitions maps each status to the statuses it may move to.
// SOLD, EXPIRED_NO_BIDS and REJECTED are terminal.
var transitions = map[model.ListingStatus][]model.ListingStatus{
	model.StatusPendingApproval: {model.StatusApproved, model.StatusRejected},
	model.StatusApproved:        {model.StatusActive},
	model.StatusActive:          {model.StatusSold, model.StatusExpiredNoBids},
	model.StatusRejected:        {},
	model.StatusSold:            {},
	model.StatusExpiredNoBids:   {},
}

func CanTransition(from, to model.ListingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns nil when from -> to is legal, or a descriptive error
// naming both states when it is not.
func Transition(from, to model.ListingStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("cannot transition listing from %s to %s", from, to)
	}
	return nil
}

// ModerationTargets lists the statuses a moderator may assign. Everything
// else is driven by the bid engine.
func ModerationTargets() []model.ListingStatus {
	return []model.ListingStatus{model.StatusApproved, model.StatusRejected}
}

// IsModerationTarget reports whether to is a status a moderator may assign.
func IsModerationTarget(to model.ListingStatus) bool {
	return to == model.StatusApproved || to == model.StatusRejected
}
