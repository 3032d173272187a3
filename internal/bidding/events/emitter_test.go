package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gemnet/pkg/model"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testListing() *model.Listing {
	return &model.Listing{
		ID:       "listing-1",
		SellerID: "seller-1",
		GemName:  "Ceylon Blue Sapphire",
		Currency: "LKR",
	}
}

func testBid(id, bidder string, amount int64) *model.Bid {
	return &model.Bid{
		ID:         id,
		ListingID:  "listing-1",
		BidderID:   bidder,
		BidderName: "Bidder " + bidder,
		BidAmount:  decimal.NewFromInt(amount),
		Currency:   "LKR",
	}
}

func recipientsByType(evts []model.BidEvent) map[model.EventType][]string {
	out := map[model.EventType][]string{}
	for _, e := range evts {
		out[e.Type] = append(out[e.Type], e.RecipientID)
	}
	return out
}

func TestBidAcceptedFirstBid(t *testing.T) {
	evts := BidAccepted(testListing(), testBid("b1", "alice", 60000), nil, nil, 1, testNow)

	if len(evts) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(evts), evts)
	}
	if evts[0].Type != model.EventBidPlaced || evts[0].RecipientID != "alice" {
		t.Errorf("first event = %s to %s, want BID_PLACED to alice", evts[0].Type, evts[0].RecipientID)
	}
	if evts[1].Type != model.EventNewBid || evts[1].RecipientID != "seller-1" {
		t.Errorf("second event = %s to %s, want NEW_BID to seller-1", evts[1].Type, evts[1].RecipientID)
	}
}

func TestBidAcceptedOutbidsPreviousHolder(t *testing.T) {
	previous := testBid("b1", "alice", 60000)
	evts := BidAccepted(testListing(), testBid("b2", "bob", 65000), previous, []string{"alice"}, 2, testNow)

	byType := recipientsByType(evts)
	if got := byType[model.EventBidPlaced]; len(got) != 1 || got[0] != "bob" {
		t.Errorf("BID_PLACED recipients = %v, want [bob]", got)
	}
	if got := byType[model.EventBidOutbid]; len(got) != 1 || got[0] != "alice" {
		t.Errorf("BID_OUTBID recipients = %v, want [alice]", got)
	}
	if got := byType[model.EventNewBid]; len(got) != 1 || got[0] != "seller-1" {
		t.Errorf("NEW_BID recipients = %v, want [seller-1]", got)
	}
	// alice already got BID_OUTBID; no duplicate BID_ACTIVITY.
	if got := byType[model.EventBidActivity]; len(got) != 0 {
		t.Errorf("BID_ACTIVITY recipients = %v, want none", got)
	}
}

func TestBidAcceptedNotifiesWatchers(t *testing.T) {
	previous := testBid("b2", "bob", 65000)
	participants := []string{"alice", "bob", "carol"}
	evts := BidAccepted(testListing(), testBid("b3", "alice", 70000), previous, participants, 3, testNow)

	byType := recipientsByType(evts)
	if got := byType[model.EventBidActivity]; len(got) != 1 || got[0] != "carol" {
		t.Errorf("BID_ACTIVITY recipients = %v, want [carol]", got)
	}
	// The new bidder raising their own earlier bid must not be told they
	// were outbid by themselves.
	if got := byType[model.EventBidOutbid]; len(got) != 1 || got[0] != "bob" {
		t.Errorf("BID_OUTBID recipients = %v, want [bob]", got)
	}
}

func TestBidAcceptedSelfRaiseNoOutbid(t *testing.T) {
	previous := testBid("b1", "alice", 60000)
	evts := BidAccepted(testListing(), testBid("b2", "alice", 65000), previous, []string{"alice"}, 2, testNow)

	for _, e := range evts {
		if e.Type == model.EventBidOutbid {
			t.Errorf("self-raise produced BID_OUTBID to %s", e.RecipientID)
		}
	}
}

func TestResolvedWithWinner(t *testing.T) {
	winner := testBid("b3", "alice", 70000)
	evts := Resolved(testListing(), winner, []string{"alice", "bob", "carol"}, 3, testNow)

	if len(evts) != 4 {
		t.Fatalf("got %d events, want 4: %+v", len(evts), evts)
	}
	if evts[0].Type != model.EventBidWon || evts[0].RecipientID != "alice" {
		t.Errorf("first event = %s to %s, want BID_WON to alice", evts[0].Type, evts[0].RecipientID)
	}
	if evts[1].Type != model.EventItemSold || evts[1].RecipientID != "seller-1" {
		t.Errorf("second event = %s to %s, want ITEM_SOLD to seller-1", evts[1].Type, evts[1].RecipientID)
	}

	byType := recipientsByType(evts)
	ended := byType[model.EventBiddingEnded]
	if len(ended) != 2 {
		t.Fatalf("BIDDING_ENDED recipients = %v, want bob and carol", ended)
	}
	for _, r := range ended {
		if r == "alice" || r == "seller-1" {
			t.Errorf("BIDDING_ENDED must not go to %s", r)
		}
	}

	if !evts[0].Amount.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("winning amount = %s, want 70000", evts[0].Amount)
	}
}

func TestResolvedNoBids(t *testing.T) {
	evts := Resolved(testListing(), nil, nil, 0, testNow)

	if len(evts) != 1 {
		t.Fatalf("got %d events, want 1", len(evts))
	}
	if evts[0].Type != model.EventBiddingEnded || evts[0].RecipientID != "seller-1" {
		t.Errorf("event = %s to %s, want BIDDING_ENDED to seller-1", evts[0].Type, evts[0].RecipientID)
	}
}
