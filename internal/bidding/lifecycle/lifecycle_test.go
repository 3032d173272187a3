package lifecycle

import (
	"testing"

	"gemnet/pkg/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    model.ListingStatus
		to      model.ListingStatus
		allowed bool
	}{
		{"pending to approved", model.StatusPendingApproval, model.StatusApproved, true},
		{"pending to rejected", model.StatusPendingApproval, model.StatusRejected, true},
		{"pending to active skips approval", model.StatusPendingApproval, model.StatusActive, false},
		{"pending to sold", model.StatusPendingApproval, model.StatusSold, false},
		{"approved to active", model.StatusApproved, model.StatusActive, true},
		{"approved to sold skips bidding", model.StatusApproved, model.StatusSold, false},
		{"approved back to pending", model.StatusApproved, model.StatusPendingApproval, false},
		{"active to sold", model.StatusActive, model.StatusSold, true},
		{"active to expired", model.StatusActive, model.StatusExpiredNoBids, true},
		{"active back to approved", model.StatusActive, model.StatusApproved, false},
		{"sold is terminal", model.StatusSold, model.StatusActive, false},
		{"expired is terminal", model.StatusExpiredNoBids, model.StatusApproved, false},
		{"rejected is terminal", model.StatusRejected, model.StatusApproved, false},
		{"self transition", model.StatusActive, model.StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestTransitionError(t *testing.T) {
	if err := Transition(model.StatusApproved, model.StatusActive); err != nil {
		t.Errorf("expected legal transition, got error: %v", err)
	}

	err := Transition(model.StatusSold, model.StatusActive)
	if err == nil {
		t.Fatal("expected error for transition out of terminal status")
	}
}

func TestIsModerationTarget(t *testing.T) {
	if !IsModerationTarget(model.StatusApproved) {
		t.Error("APPROVED should be a moderation target")
	}
	if !IsModerationTarget(model.StatusRejected) {
		t.Error("REJECTED should be a moderation target")
	}
	for _, st := range []model.ListingStatus{
		model.StatusPendingApproval, model.StatusActive, model.StatusSold, model.StatusExpiredNoBids,
	} {
		if IsModerationTarget(st) {
			t.Errorf("%s should not be a moderation target", st)
		}
	}
}
