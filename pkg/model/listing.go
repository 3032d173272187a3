package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the closed set of listing lifecycle states. Raw strings
// coming from the wire or the database must pass through ParseListingStatus.
type ListingStatus string

const (
	StatusPendingApproval ListingStatus = "PENDING_APPROVAL"
	StatusApproved        ListingStatus = "APPROVED"
	StatusActive          ListingStatus = "ACTIVE"
	StatusRejected        ListingStatus = "REJECTED"
	StatusSold            ListingStatus = "SOLD"
	StatusExpiredNoBids   ListingStatus = "EXPIRED_NO_BIDS"
)

func ParseListingStatus(s string) (ListingStatus, error) {
	switch ListingStatus(s) {
	case StatusPendingApproval, StatusApproved, StatusActive, StatusRejected, StatusSold, StatusExpiredNoBids:
		return ListingStatus(s), nil
	}
	return "", fmt.Errorf("unknown listing status: %q", s)
}

// OpenForBidding reports whether bids may be accepted against a listing in
// this status. APPROVED and ACTIVE both mean "open"; the countdown state is
// tracked separately by Listing.BiddingActive.
func (s ListingStatus) OpenForBidding() bool {
	return s == StatusApproved || s == StatusActive
}

// Terminal reports whether the auction has concluded. No transition leaves a
// terminal status.
func (s ListingStatus) Terminal() bool {
	return s == StatusSold || s == StatusExpiredNoBids
}

// Listing is the auction subject. The listing owns its lifecycle fields:
// countdown bounds are stamped once on the first accepted bid, winner fields
// exactly once at resolution.
type Listing struct {
	ID            string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SellerID      string          `json:"seller_id" bson:"seller_id" validate:"required"`
	SellerName    string          `json:"seller_name" bson:"seller_name" validate:"required,min=2,max=100"`
	GemName       string          `json:"gem_name" bson:"gem_name" validate:"required,min=2,max=100"`
	Species       string          `json:"species,omitempty" bson:"species,omitempty" validate:"omitempty,max=100"`
	Description   string          `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	ReservePrice  decimal.Decimal `json:"reserve_price" bson:"reserve_price"`
	Currency      string          `json:"currency" bson:"currency" validate:"required,len=3"`
	Status        ListingStatus   `json:"status" bson:"status"`
	BiddingActive bool            `json:"bidding_active" bson:"bidding_active"`

	// Set once, by the first accepted bid.
	BiddingStartTime *time.Time `json:"bidding_start_time,omitempty" bson:"bidding_start_time,omitempty"`
	BiddingEndTime   *time.Time `json:"bidding_end_time,omitempty" bson:"bidding_end_time,omitempty"`

	// Set once, at resolution.
	WinningBidderID    string           `json:"winning_bidder_id,omitempty" bson:"winning_bidder_id,omitempty"`
	FinalPrice         *decimal.Decimal `json:"final_price,omitempty" bson:"final_price,omitempty"`
	BiddingCompletedAt *time.Time       `json:"bidding_completed_at,omitempty" bson:"bidding_completed_at,omitempty"`

	// Derived from gem name and species at write time, used for search.
	SearchKeys []string `json:"-" bson:"search_keys,omitempty"`

	Views     int       `json:"views" bson:"views"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ListingUpdate carries seller-editable fields for a PATCH. Lifecycle fields
// are deliberately absent: status moves only through moderation or the
// auction state machine.
type ListingUpdate struct {
	GemName     string           `json:"gem_name,omitempty" validate:"omitempty,min=2,max=100"`
	Species     string           `json:"species,omitempty" validate:"omitempty,max=100"`
	Description string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	ReservePrice *decimal.Decimal `json:"reserve_price,omitempty"`
}
