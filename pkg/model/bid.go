package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus is the closed set of bid ledger states. At most one bid per
// listing holds BidActive at any instant; that bid is the current highest.
type BidStatus string

const (
	BidActive BidStatus = "ACTIVE"
	BidOutbid BidStatus = "OUTBID"
)

func ParseBidStatus(s string) (BidStatus, error) {
	switch BidStatus(s) {
	case BidActive, BidOutbid:
		return BidStatus(s), nil
	}
	return "", fmt.Errorf("unknown bid status: %q", s)
}

// Bid is an append-only ledger record. A bid flips to OUTBID the instant a
// strictly higher bid is accepted; the final winner keeps ACTIVE forever
// (resolution stamps the listing, not the bid).
type Bid struct {
	ID          string          `json:"id,omitempty" bson:"_id,omitempty"`
	ListingID   string          `json:"listing_id" bson:"listing_id"`
	BidderID    string          `json:"bidder_id" bson:"bidder_id"`
	BidderName  string          `json:"bidder_name" bson:"bidder_name"`
	SellerID    string          `json:"seller_id" bson:"seller_id"`
	BidAmount   decimal.Decimal `json:"bid_amount" bson:"bid_amount"`
	Currency    string          `json:"currency" bson:"currency"`
	Message     string          `json:"message,omitempty" bson:"message,omitempty"`
	Status      BidStatus       `json:"status" bson:"status"`
	BidTime     time.Time       `json:"bid_time" bson:"bid_time"`
}

// BidRequest is the wire input of the bid acceptance protocol.
type BidRequest struct {
	ListingID  string          `json:"listing_id" validate:"required,mongodb"`
	BidderID   string          `json:"bidder_id" validate:"required"`
	BidderName string          `json:"bidder_name" validate:"required,min=2,max=100"`
	BidAmount  decimal.Decimal `json:"bid_amount" validate:"required"`
	Currency   string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Message    string          `json:"message,omitempty" validate:"omitempty,max=500"`
}

// BidReceipt is returned to the caller on a successful acceptance.
type BidReceipt struct {
	BidID            string          `json:"bid_id"`
	BidAmount        decimal.Decimal `json:"bid_amount"`
	BidTime          time.Time       `json:"bid_time"`
	HighestBid       decimal.Decimal `json:"highest_bid"`
	TotalBids        int64           `json:"total_bids"`
	CountdownStarted bool            `json:"countdown_started"`
	RemainingSeconds int64           `json:"remaining_seconds"`
}

// BidStatistics is the quick-display summary for a listing.
type BidStatistics struct {
	ListingID     string          `json:"listing_id"`
	TotalBids     int64           `json:"total_bids"`
	HighestBid    decimal.Decimal `json:"highest_bid"`
	HighestBidder string          `json:"highest_bidder,omitempty"`
	HasActiveBids bool            `json:"has_active_bids"`
}
