package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	"gemnet/internal/bidding/events"
	"gemnet/internal/bidding/repository"
	"gemnet/internal/bidding/validator"
	listingserrors "gemnet/internal/listings/errors"
	"gemnet/pkg/cache"
	"gemnet/pkg/clock"
	"gemnet/pkg/config"
	apperrors "gemnet/pkg/errors"
	"gemnet/pkg/model"
	"gemnet/pkg/sanitizer"
)

// BidService implements the bid acceptance protocol and auction
// resolution. All writes to one listing's auction state are serialized
// through an advisory lock, and resolution is guarded by a conditional
// flip of bidding_active so it can never apply twice.
type BidService interface {
	PlaceBid(ctx context.Context, req *model.BidRequest) (*model.BidReceipt, error)
	GetBidsForListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Bid, int64, error)
	GetUserBids(ctx context.Context, bidderID string, limit int, offset int64) ([]*model.Bid, int64, error)
	GetBidStatistics(ctx context.Context, listingID string) (*model.BidStatistics, error)
	// CountdownStatus reports the remaining window. When it observes an
	// expired window still marked active it resolves the listing on the
	// spot, so a read can conclude an auction the sweeper has not reached.
	CountdownStatus(ctx context.Context, listingID string) (*model.CountdownStatus, error)
	ResolveListing(ctx context.Context, listingID string) error
	// ResolveDueListings is the sweep entry point; it returns how many
	// listings were resolved this pass.
	ResolveDueListings(ctx context.Context) (int, error)
	// RepairInconsistent clears the bidding flag on listings stuck in
	// SOLD-but-still-counting-down state.
	RepairInconsistent(ctx context.Context) (int, error)
}

type bidService struct {
	bids      repository.BidRepository
	listings  repository.AuctionListingRepository
	locks     repository.BidLockRepository
	validator *validator.BidValidator
	sink      events.Sink
	stats     *cache.StatsCache
	clk       clock.Clock
	cfg       *config.Config
}

func NewBidService(
	bids repository.BidRepository,
	listings repository.AuctionListingRepository,
	locks repository.BidLockRepository,
	validator *validator.BidValidator,
	sink events.Sink,
	stats *cache.StatsCache,
	clk clock.Clock,
	cfg *config.Config,
) BidService {
	return &bidService{
		bids:      bids,
		listings:  listings,
		locks:     locks,
		validator: validator,
		sink:      sink,
		stats:     stats,
		clk:       clk,
		cfg:       cfg,
	}
}

const sweepBatchSize = 100

func (s *bidService) PlaceBid(ctx context.Context, req *model.BidRequest) (*model.BidReceipt, error) {
	req.Message = sanitizer.NormalizeBidMessage(req.Message)
	req.BidderName = sanitizer.NormalizeGemName(req.BidderName)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Bid validation failed", "listing_id", req.ListingID, "error", err)
		return nil, apperrors.Validation("Bid validation failed", map[string]any{"error": err.Error()})
	}

	lockOwner, err := s.acquireListingLock(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	defer s.releaseListingLock(ctx, req.ListingID, lockOwner)

	var (
		receipt *model.BidReceipt
		emitted []model.BidEvent
	)

	err = s.bids.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		listing, err := s.listings.FindByID(sessCtx, req.ListingID)
		if err != nil {
			return s.mapListingLookupError(err, req.ListingID)
		}

		now := s.clk.Now().UTC()

		if err := s.checkAcceptance(listing, req, now); err != nil {
			return err
		}

		highest, err := s.bids.FindActive(sessCtx, listing.ID)
		if err != nil {
			return apperrors.Internal("Failed to read current highest bid", err)
		}

		if err := s.checkAmount(listing, highest, req.BidAmount); err != nil {
			return err
		}

		participants, err := s.bids.DistinctBidders(sessCtx, listing.ID)
		if err != nil {
			return apperrors.Internal("Failed to read bid participants", err)
		}

		if highest != nil {
			if err := s.bids.MarkOutbid(sessCtx, highest.ID); err != nil {
				return apperrors.Internal("Failed to displace previous bid", err)
			}
		}

		currency := req.Currency
		if currency == "" {
			currency = listing.Currency
		}

		bid := &model.Bid{
			ListingID:  listing.ID,
			BidderID:   req.BidderID,
			BidderName: req.BidderName,
			SellerID:   listing.SellerID,
			BidAmount:  req.BidAmount,
			Currency:   currency,
			Message:    req.Message,
			Status:     model.BidActive,
			BidTime:    now,
		}
		if err := s.bids.Save(sessCtx, bid); err != nil {
			return apperrors.Internal("Failed to save bid", err)
		}

		countdownStarted := false
		endTime := listing.BiddingEndTime
		if highest == nil && listing.BiddingStartTime == nil {
			end := now.Add(s.cfg.BidWindow)
			if err := s.listings.StartCountdown(sessCtx, listing.ID, now, end); err != nil {
				if errors.Is(err, listingserrors.ErrInvalidTransition) {
					return apperrors.Conflict("Listing state changed, please retry your bid")
				}
				return apperrors.Internal("Failed to start bidding countdown", err)
			}
			countdownStarted = true
			endTime = &end
		}

		totalBids, err := s.bids.CountByListing(sessCtx, listing.ID)
		if err != nil {
			return apperrors.Internal("Failed to count bids", err)
		}

		remaining := int64(0)
		if endTime != nil {
			if d := endTime.Sub(now); d > 0 {
				remaining = int64(d.Seconds())
			}
		}

		receipt = &model.BidReceipt{
			BidID:            bid.ID,
			BidAmount:        bid.BidAmount,
			BidTime:          bid.BidTime,
			HighestBid:       bid.BidAmount,
			TotalBids:        totalBids,
			CountdownStarted: countdownStarted,
			RemainingSeconds: remaining,
		}
		emitted = events.BidAccepted(listing, bid, highest, participants, totalBids, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(emitted)
	s.stats.Invalidate(ctx, req.ListingID)

	s.cfg.Log.Info("Bid accepted",
		"listing_id", req.ListingID,
		"bid_id", receipt.BidID,
		"bidder_id", req.BidderID,
		"amount", req.BidAmount,
		"total_bids", receipt.TotalBids,
		"countdown_started", receipt.CountdownStarted,
	)
	return receipt, nil
}

// checkAcceptance applies the non-monetary guards, returning a typed
// rejection for each.
func (s *bidService) checkAcceptance(listing *model.Listing, req *model.BidRequest, now time.Time) error {
	if !listing.Status.OpenForBidding() {
		return apperrors.Conflict("This listing is not open for bidding")
	}
	if listing.SellerID == req.BidderID {
		return apperrors.Conflict("You cannot bid on your own listing")
	}
	if listing.BiddingEndTime != nil && !now.Before(*listing.BiddingEndTime) {
		return apperrors.Conflict("Bidding has ended for this listing")
	}
	if req.Currency != "" && req.Currency != listing.Currency {
		return apperrors.Conflict(fmt.Sprintf("Bids on this listing must be in %s", listing.Currency))
	}
	return nil
}

func (s *bidService) checkAmount(listing *model.Listing, highest *model.Bid, amount decimal.Decimal) error {
	if highest == nil {
		if amount.LessThan(listing.ReservePrice) {
			return apperrors.Conflict(fmt.Sprintf(
				"Bid amount must be at least %s %s",
				listing.Currency, listing.ReservePrice.StringFixed(2),
			))
		}
		return nil
	}

	if amount.LessThanOrEqual(highest.BidAmount) {
		return apperrors.Conflict(fmt.Sprintf(
			"Your bid must be higher than the current highest bid of %s %s",
			listing.Currency, highest.BidAmount.StringFixed(2),
		))
	}
	return nil
}

func (s *bidService) GetBidsForListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Bid, int64, error) {
	if listingID == "" {
		return nil, 0, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	bids, err := s.bids.FindByListing(ctx, listingID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bids", "listing_id", listingID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bids", err)
	}

	count, err := s.bids.CountByListing(ctx, listingID)
	if err != nil {
		s.cfg.Log.Error("Failed to count bids", "listing_id", listingID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count bids", err)
	}

	return bids, count, nil
}

func (s *bidService) GetUserBids(ctx context.Context, bidderID string, limit int, offset int64) ([]*model.Bid, int64, error) {
	if bidderID == "" {
		return nil, 0, apperrors.InvalidInput("Bidder ID cannot be empty")
	}

	bids, err := s.bids.FindByBidder(ctx, bidderID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list user bids", "bidder_id", bidderID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bids", err)
	}

	count, err := s.bids.CountByBidder(ctx, bidderID)
	if err != nil {
		s.cfg.Log.Error("Failed to count user bids", "bidder_id", bidderID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count bids", err)
	}

	return bids, count, nil
}

func (s *bidService) GetBidStatistics(ctx context.Context, listingID string) (*model.BidStatistics, error) {
	if listingID == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	if cached, err := s.stats.Get(ctx, listingID); err == nil {
		return cached, nil
	}

	count, err := s.bids.CountByListing(ctx, listingID)
	if err != nil {
		return nil, apperrors.Internal("Failed to count bids", err)
	}

	highest, err := s.bids.FindActive(ctx, listingID)
	if err != nil {
		return nil, apperrors.Internal("Failed to read highest bid", err)
	}

	stats := &model.BidStatistics{
		ListingID: listingID,
		TotalBids: count,
	}
	if highest != nil {
		stats.HighestBid = highest.BidAmount
		stats.HighestBidder = highest.BidderName
		stats.HasActiveBids = true
	}

	s.stats.Set(ctx, stats)
	return stats, nil
}

func (s *bidService) CountdownStatus(ctx context.Context, listingID string) (*model.CountdownStatus, error) {
	if listingID == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, s.mapListingLookupError(err, listingID)
	}

	now := s.clk.Now().UTC()
	status := &model.CountdownStatus{
		ListingID:      listing.ID,
		Status:         listing.Status,
		BiddingActive:  listing.BiddingActive,
		BiddingEndTime: listing.BiddingEndTime,
	}

	if total, err := s.bids.CountByListing(ctx, listingID); err == nil {
		status.TotalBids = total
	}
	if highest, err := s.bids.FindActive(ctx, listingID); err == nil && highest != nil {
		status.HighestBid = &highest.BidAmount
	}

	if listing.BiddingActive && listing.BiddingEndTime != nil {
		if d := listing.BiddingEndTime.Sub(now); d > 0 {
			status.RemainingSeconds = int64(d.Seconds())
		} else {
			// The window has lapsed but the sweeper has not caught up.
			// Resolve now; the conditional flip keeps this exactly-once.
			if err := s.ResolveListing(ctx, listingID); err != nil {
				s.cfg.Log.Error("Failed lazy resolution from countdown read",
					"listing_id", listingID, "error", err)
			} else if resolved, err := s.listings.FindByID(ctx, listingID); err == nil {
				status.Status = resolved.Status
				status.BiddingActive = resolved.BiddingActive
			}
		}
	}

	return status, nil
}

func (s *bidService) ResolveListing(ctx context.Context, listingID string) error {
	if listingID == "" {
		return apperrors.InvalidInput("Listing ID cannot be empty")
	}

	lockOwner, err := s.acquireListingLock(ctx, listingID)
	if err != nil {
		return err
	}
	defer s.releaseListingLock(ctx, listingID, lockOwner)

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return s.mapListingLookupError(err, listingID)
	}

	if !listing.BiddingActive {
		// Already resolved; resolution is idempotent.
		return nil
	}

	now := s.clk.Now().UTC()
	if listing.BiddingEndTime != nil && now.Before(*listing.BiddingEndTime) {
		return apperrors.Conflict("Bidding window has not ended yet")
	}

	winner, err := s.bids.FindActive(ctx, listingID)
	if err != nil {
		return apperrors.Internal("Failed to determine winning bid", err)
	}

	totalBids, err := s.bids.CountByListing(ctx, listingID)
	if err != nil {
		return apperrors.Internal("Failed to count bids", err)
	}

	var (
		target     model.ListingStatus
		winnerID   string
		finalPrice *decimal.Decimal
	)
	if winner != nil {
		target = model.StatusSold
		winnerID = winner.BidderID
		finalPrice = &winner.BidAmount
	} else {
		target = model.StatusExpiredNoBids
	}

	won, err := s.listings.Resolve(ctx, listingID, target, winnerID, finalPrice, now)
	if err != nil {
		return apperrors.Internal("Failed to resolve listing", err)
	}
	if !won {
		// Another caller flipped the guard first; they own the events.
		s.cfg.Log.Debug("Listing already resolved elsewhere", "listing_id", listingID)
		return nil
	}

	participants, err := s.bids.DistinctBidders(ctx, listingID)
	if err != nil {
		s.cfg.Log.Warn("Failed to read participants for resolution events",
			"listing_id", listingID, "error", err)
	}

	s.dispatch(events.Resolved(listing, winner, participants, totalBids, now))
	s.stats.Invalidate(ctx, listingID)

	s.cfg.Log.Info("Listing resolved",
		"listing_id", listingID,
		"status", target,
		"winner_id", winnerID,
		"total_bids", totalBids,
	)
	return nil
}

func (s *bidService) ResolveDueListings(ctx context.Context) (int, error) {
	now := s.clk.Now().UTC()
	due, err := s.listings.FindDueForResolution(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, apperrors.Internal("Failed to find due listings", err)
	}

	resolved := 0
	for _, listing := range due {
		// One bad listing must not stall the whole sweep.
		if err := s.ResolveListing(ctx, listing.ID); err != nil {
			s.cfg.Log.Error("Sweep resolution failed", "listing_id", listing.ID, "error", err)
			continue
		}
		resolved++
	}

	return resolved, nil
}

func (s *bidService) RepairInconsistent(ctx context.Context) (int, error) {
	stuck, err := s.listings.FindSoldStillActive(ctx, sweepBatchSize)
	if err != nil {
		return 0, apperrors.Internal("Failed to find inconsistent listings", err)
	}

	repaired := 0
	for _, listing := range stuck {
		if err := s.listings.ClearBiddingActive(ctx, listing.ID); err != nil {
			s.cfg.Log.Error("Failed to repair listing", "listing_id", listing.ID, "error", err)
			continue
		}
		s.cfg.Log.Warn("Repaired SOLD listing with stale bidding flag", "listing_id", listing.ID)
		repaired++
	}

	return repaired, nil
}

// --- Helpers ---

// dispatch hands events to the sink off the request path. Publish failures
// are logged, never propagated: the bid is already committed.
func (s *bidService) dispatch(evts []model.BidEvent) {
	if len(evts) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		defer cancel()
		if err := s.sink.Publish(ctx, evts); err != nil {
			s.cfg.Log.Error("Failed to publish bid events", "count", len(evts), "error", err)
		}
	}()
}

func (s *bidService) acquireListingLock(ctx context.Context, listingID string) (string, error) {
	owner := uuid.New().String()
	lock := &model.BidLock{
		ID:        "bid_lock:" + listingID,
		Owner:     owner,
		ExpiresAt: s.clk.Now().Add(s.cfg.BidLockTTL),
	}

	_, err := s.locks.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("Another bid on this listing is being processed. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire listing lock", err)
	}

	return owner, nil
}

func (s *bidService) releaseListingLock(ctx context.Context, listingID string, owner string) {
	if err := s.locks.Delete(ctx, "bid_lock:"+listingID, owner); err != nil {
		s.cfg.Log.Warn("Failed to release listing lock", "listing_id", listingID, "error", err)
	}
}

func (s *bidService) mapListingLookupError(err error, id string) error {
	if errors.Is(err, listingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Listing", id)
	}
	if errors.Is(err, listingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid listing ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Failed to retrieve listing", err)
}
