package model

import "testing"

func TestParseListingStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ListingStatus
		wantErr bool
	}{
		{"approved", "APPROVED", StatusApproved, false},
		{"sold", "SOLD", StatusSold, false},
		{"expired", "EXPIRED_NO_BIDS", StatusExpiredNoBids, false},
		{"lowercase rejected", "approved", "", true},
		{"legacy mixed case rejected", "Sold", "", true},
		{"empty rejected", "", "", true},
		{"unknown rejected", "ARCHIVED", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseListingStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListingStatusPredicates(t *testing.T) {
	open := []ListingStatus{StatusApproved, StatusActive}
	for _, s := range open {
		if !s.OpenForBidding() {
			t.Errorf("%s should be open for bidding", s)
		}
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}

	terminal := []ListingStatus{StatusSold, StatusExpiredNoBids}
	for _, s := range terminal {
		if s.OpenForBidding() {
			t.Errorf("%s should not be open for bidding", s)
		}
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	if StatusPendingApproval.OpenForBidding() || StatusPendingApproval.Terminal() {
		t.Error("PENDING_APPROVAL is neither open nor terminal")
	}
	if StatusRejected.OpenForBidding() {
		t.Error("REJECTED must not accept bids")
	}
}

func TestParseBidStatus(t *testing.T) {
	if _, err := ParseBidStatus("ACTIVE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseBidStatus("OUTBID"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseBidStatus("WON"); err == nil {
		t.Error("expected error for unknown bid status")
	}
}

func TestParseEventType(t *testing.T) {
	known := []string{"BID_PLACED", "BID_OUTBID", "NEW_BID", "BID_ACTIVITY", "BID_WON", "ITEM_SOLD", "BIDDING_ENDED"}
	for _, s := range known {
		if _, err := ParseEventType(s); err != nil {
			t.Errorf("expected %q to parse, got %v", s, err)
		}
	}
	if _, err := ParseEventType("BID_CANCELLED"); err == nil {
		t.Error("expected error for unknown event type")
	}
}
