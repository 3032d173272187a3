// Package events decides which notifications a bid lifecycle transition
// produces and for whom. The emitter is pure: it returns an ordered event
// list and never talks to the network, so acceptance and resolution can be
// tested without a broker.
package events

import (
	"time"

	"gemnet/pkg/model"
)

// BidAccepted returns the events fired by a successful bid acceptance, in
// delivery order: the bidder's receipt first, then the displaced holder,
// then the seller, then passive watchers.
//
// previous is the bid that was displaced, nil on the first bid. participants
// holds the distinct bidder IDs seen on the listing before this bid.
func BidAccepted(listing *model.Listing, bid *model.Bid, previous *model.Bid, participants []string, totalBids int64, now time.Time) []model.BidEvent {
	base := model.BidEvent{
		ListingID:       listing.ID,
		BidID:           bid.ID,
		GemName:         listing.GemName,
		Amount:          bid.BidAmount,
		Currency:        bid.Currency,
		TriggerUserID:   bid.BidderID,
		TriggerUserName: bid.BidderName,
		TotalBids:       totalBids,
		OccurredAt:      now,
	}

	events := make([]model.BidEvent, 0, 3+len(participants))

	placed := base
	placed.RecipientID = bid.BidderID
	placed.Type = model.EventBidPlaced
	events = append(events, placed)

	if previous != nil && previous.BidderID != bid.BidderID {
		outbid := base
		outbid.RecipientID = previous.BidderID
		outbid.Type = model.EventBidOutbid
		events = append(events, outbid)
	}

	newBid := base
	newBid.RecipientID = listing.SellerID
	newBid.Type = model.EventNewBid
	events = append(events, newBid)

	notified := map[string]bool{
		bid.BidderID:     true,
		listing.SellerID: true,
	}
	if previous != nil {
		notified[previous.BidderID] = true
	}
	for _, bidderID := range participants {
		if notified[bidderID] {
			continue
		}
		notified[bidderID] = true
		activity := base
		activity.RecipientID = bidderID
		activity.Type = model.EventBidActivity
		events = append(events, activity)
	}

	return events
}

// Resolved returns the events fired by auction resolution. With a winner the
// order is winner, seller, then losing bidders; without one the seller alone
// learns that the listing expired.
func Resolved(listing *model.Listing, winner *model.Bid, participants []string, totalBids int64, now time.Time) []model.BidEvent {
	base := model.BidEvent{
		ListingID:  listing.ID,
		GemName:    listing.GemName,
		Currency:   listing.Currency,
		TotalBids:  totalBids,
		OccurredAt: now,
	}

	if winner == nil {
		ended := base
		ended.RecipientID = listing.SellerID
		ended.Type = model.EventBiddingEnded
		return []model.BidEvent{ended}
	}

	base.BidID = winner.ID
	base.Amount = winner.BidAmount
	base.TriggerUserID = winner.BidderID
	base.TriggerUserName = winner.BidderName

	events := make([]model.BidEvent, 0, 2+len(participants))

	won := base
	won.RecipientID = winner.BidderID
	won.Type = model.EventBidWon
	events = append(events, won)

	sold := base
	sold.RecipientID = listing.SellerID
	sold.Type = model.EventItemSold
	events = append(events, sold)

	notified := map[string]bool{
		winner.BidderID:  true,
		listing.SellerID: true,
	}
	for _, bidderID := range participants {
		if notified[bidderID] {
			continue
		}
		notified[bidderID] = true
		ended := base
		ended.RecipientID = bidderID
		ended.Type = model.EventBiddingEnded
		events = append(events, ended)
	}

	return events
}
