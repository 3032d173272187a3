package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CountdownStatus reports where a listing stands in its bidding window.
// RemainingSeconds is zero once the window has elapsed or when no countdown
// has started.
type CountdownStatus struct {
	ListingID        string           `json:"listing_id"`
	Status           ListingStatus    `json:"status"`
	BiddingActive    bool             `json:"bidding_active"`
	BiddingEndTime   *time.Time       `json:"bidding_end_time,omitempty"`
	RemainingSeconds int64            `json:"remaining_seconds"`
	TotalBids        int64            `json:"total_bids"`
	HighestBid       *decimal.Decimal `json:"highest_bid,omitempty"`
}
