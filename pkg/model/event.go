package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EventType names the notification-worthy moments of the bid lifecycle.
// The core only decides that an event fires and for whom; delivery is the
// notifier's problem.
type EventType string

const (
	EventBidPlaced    EventType = "BID_PLACED"
	EventBidOutbid    EventType = "BID_OUTBID"
	EventNewBid       EventType = "NEW_BID"
	EventBidActivity  EventType = "BID_ACTIVITY"
	EventBidWon       EventType = "BID_WON"
	EventItemSold     EventType = "ITEM_SOLD"
	EventBiddingEnded EventType = "BIDDING_ENDED"
)

func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventBidPlaced, EventBidOutbid, EventNewBid, EventBidActivity,
		EventBidWon, EventItemSold, EventBiddingEnded:
		return EventType(s), nil
	}
	return "", fmt.Errorf("unknown event type: %q", s)
}

// BidEvent is one (recipient, type, payload) tuple produced by the event
// emitter. Events are ordered within the slice returned for a transition.
type BidEvent struct {
	RecipientID     string          `json:"recipient_id"`
	Type            EventType       `json:"type"`
	ListingID       string          `json:"listing_id"`
	BidID           string          `json:"bid_id,omitempty"`
	GemName         string          `json:"gem_name"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	TriggerUserID   string          `json:"trigger_user_id,omitempty"`
	TriggerUserName string          `json:"trigger_user_name,omitempty"`
	TotalBids       int64           `json:"total_bids,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}
