package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	"gemnet/internal/bidding/repository"
	"gemnet/internal/bidding/validator"
	listingserrors "gemnet/internal/listings/errors"
	"gemnet/pkg/cache"
	"gemnet/pkg/clock"
	"gemnet/pkg/config"
	mongotx "gemnet/pkg/db/mongo"
	apperrors "gemnet/pkg/errors"
	"gemnet/pkg/logger"
	"gemnet/pkg/model"
)

// In-memory store backing all three repository interfaces, so the full
// acceptance and resolution protocol runs against one shared state.
type fakeStore struct {
	mu       sync.Mutex
	listings map[string]*model.Listing
	bids     map[string]*model.Bid
	locks    map[string]*model.BidLock
	seq      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings: map[string]*model.Listing{},
		bids:     map[string]*model.Bid{},
		locks:    map[string]*model.BidLock{},
	}
}

func (f *fakeStore) putListing(l *model.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.listings[l.ID] = &cp
}

func (f *fakeStore) getListing(id string) *model.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.listings[id]
	return &cp
}

func (f *fakeStore) activeBids(listingID string) []*model.Bid {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Bid
	for _, b := range f.bids {
		if b.ListingID == listingID && b.Status == model.BidActive {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

// --- BidRepository ---

type fakeBidRepo struct{ store *fakeStore }

var _ repository.BidRepository = (*fakeBidRepo)(nil)

func (r *fakeBidRepo) Save(_ context.Context, bid *model.Bid) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.seq++
	bid.ID = fmt.Sprintf("bid-%03d", r.store.seq)
	cp := *bid
	r.store.bids[bid.ID] = &cp
	return nil
}

func (r *fakeBidRepo) FindByID(_ context.Context, id string) (*model.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if b, ok := r.store.bids[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeBidRepo) FindActive(_ context.Context, listingID string) (*model.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var best *model.Bid
	for _, b := range r.store.bids {
		if b.ListingID != listingID || b.Status != model.BidActive {
			continue
		}
		if best == nil ||
			b.BidAmount.GreaterThan(best.BidAmount) ||
			(b.BidAmount.Equal(best.BidAmount) && b.BidTime.Before(best.BidTime)) {
			best = b
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeBidRepo) MarkOutbid(_ context.Context, bidID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bids[bidID]
	if !ok {
		return nil
	}
	b.Status = model.BidOutbid
	return nil
}

func (r *fakeBidRepo) FindByListing(_ context.Context, listingID string, limit int, offset int64) ([]*model.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*model.Bid
	for _, b := range r.store.bids {
		if b.ListingID == listingID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBidRepo) CountByListing(_ context.Context, listingID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, b := range r.store.bids {
		if b.ListingID == listingID {
			n++
		}
	}
	return n, nil
}

func (r *fakeBidRepo) FindByBidder(_ context.Context, bidderID string, limit int, offset int64) ([]*model.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*model.Bid
	for _, b := range r.store.bids {
		if b.BidderID == bidderID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBidRepo) CountByBidder(_ context.Context, bidderID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, b := range r.store.bids {
		if b.BidderID == bidderID {
			n++
		}
	}
	return n, nil
}

func (r *fakeBidRepo) DistinctBidders(_ context.Context, listingID string) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, b := range r.store.bids {
		if b.ListingID == listingID && !seen[b.BidderID] {
			seen[b.BidderID] = true
			out = append(out, b.BidderID)
		}
	}
	return out, nil
}

func (r *fakeBidRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

// --- AuctionListingRepository ---

type fakeAuctionRepo struct{ store *fakeStore }

var _ repository.AuctionListingRepository = (*fakeAuctionRepo)(nil)

func (r *fakeAuctionRepo) FindByID(_ context.Context, id string) (*model.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.listings[id]
	if !ok {
		return nil, listingserrors.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeAuctionRepo) StartCountdown(_ context.Context, id string, start, end time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.listings[id]
	if !ok || l.Status != model.StatusApproved || l.BiddingActive || l.BiddingStartTime != nil {
		return listingserrors.ErrInvalidTransition
	}
	l.Status = model.StatusActive
	l.BiddingActive = true
	l.BiddingStartTime = &start
	l.BiddingEndTime = &end
	return nil
}

func (r *fakeAuctionRepo) Resolve(_ context.Context, id string, to model.ListingStatus, winnerID string, finalPrice *decimal.Decimal, completedAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.listings[id]
	if !ok || !l.BiddingActive {
		return false, nil
	}
	l.BiddingActive = false
	l.Status = to
	l.BiddingCompletedAt = &completedAt
	if winnerID != "" {
		l.WinningBidderID = winnerID
	}
	if finalPrice != nil {
		fp := *finalPrice
		l.FinalPrice = &fp
	}
	return true, nil
}

func (r *fakeAuctionRepo) FindDueForResolution(_ context.Context, now time.Time, limit int) ([]*model.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*model.Listing
	for _, l := range r.store.listings {
		if l.BiddingActive && l.BiddingEndTime != nil && !l.BiddingEndTime.After(now) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAuctionRepo) FindSoldStillActive(_ context.Context, limit int) ([]*model.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*model.Listing
	for _, l := range r.store.listings {
		if l.Status == model.StatusSold && l.BiddingActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAuctionRepo) ClearBiddingActive(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if l, ok := r.store.listings[id]; ok {
		l.BiddingActive = false
	}
	return nil
}

// --- BidLockRepository ---

type fakeLockRepo struct{ store *fakeStore }

var _ repository.BidLockRepository = (*fakeLockRepo)(nil)

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (r *fakeLockRepo) Create(_ context.Context, lock *model.BidLock) (*model.BidLock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.locks[lock.ID]; exists {
		return nil, duplicateKeyError()
	}
	cp := *lock
	r.store.locks[lock.ID] = &cp
	return lock, nil
}

func (r *fakeLockRepo) Delete(_ context.Context, lockID string, owner string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if l, ok := r.store.locks[lockID]; ok && l.Owner == owner {
		delete(r.store.locks, lockID)
	}
	return nil
}

// --- Event capture ---

type recordingSink struct {
	ch chan []model.BidEvent
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan []model.BidEvent, 100)}
}

func (s *recordingSink) Publish(_ context.Context, evts []model.BidEvent) error {
	s.ch <- evts
	return nil
}

func (s *recordingSink) wait(t *testing.T) []model.BidEvent {
	t.Helper()
	select {
	case evts := <-s.ch:
		return evts
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
		return nil
	}
}

func (s *recordingSink) expectNone(t *testing.T) {
	t.Helper()
	select {
	case evts := <-s.ch:
		t.Fatalf("unexpected events published: %+v", evts)
	case <-time.After(50 * time.Millisecond):
	}
}

// --- Fixture ---

const (
	listingID = "65a000000000000000000001"
	sellerID  = "seller-1"
)

var testStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *fakeStore
	sink  *recordingSink
	clk   *clock.Fake
	svc   BidService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	sink := newRecordingSink()
	clk := clock.NewFake(testStart)
	cfg := &config.Config{
		Log:             logger.Discard(),
		DefaultCurrency: "LKR",
		BidWindow:       4 * 24 * time.Hour,
		BidLockTTL:      10 * time.Second,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		StatsCacheTTL:   15 * time.Second,
	}

	svc := NewBidService(
		&fakeBidRepo{store: store},
		&fakeAuctionRepo{store: store},
		&fakeLockRepo{store: store},
		validator.NewBidValidator(cfg.Log),
		sink,
		cache.NewStatsCache(nil, cfg.StatsCacheTTL, cfg.Log),
		clk,
		cfg,
	)

	return &fixture{store: store, sink: sink, clk: clk, svc: svc}
}

func (f *fixture) addOpenListing(reserve int64) {
	f.store.putListing(&model.Listing{
		ID:           listingID,
		SellerID:     sellerID,
		SellerName:   "Nimal Perera",
		GemName:      "Ceylon Blue Sapphire",
		ReservePrice: decimal.NewFromInt(reserve),
		Currency:     "LKR",
		Status:       model.StatusApproved,
	})
}

func bidReq(bidder string, amount int64) *model.BidRequest {
	return &model.BidRequest{
		ListingID:  listingID,
		BidderID:   bidder,
		BidderName: "Bidder " + bidder,
		BidAmount:  decimal.NewFromInt(amount),
	}
}

func expectConflict(t *testing.T, err error, fragment string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected conflict error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Fatalf("code = %s, want %s (err: %v)", appErr.Code, apperrors.CodeConflict, err)
	}
	if fragment != "" && !strings.Contains(appErr.Message, fragment) {
		t.Errorf("message %q does not contain %q", appErr.Message, fragment)
	}
}

// --- Acceptance protocol ---

func TestPlaceBidFirstBidStartsCountdown(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	receipt, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000))
	if err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}

	if !receipt.CountdownStarted {
		t.Error("first bid should start the countdown")
	}
	if receipt.TotalBids != 1 {
		t.Errorf("total bids = %d, want 1", receipt.TotalBids)
	}
	wantRemaining := int64((4 * 24 * time.Hour).Seconds())
	if receipt.RemainingSeconds != wantRemaining {
		t.Errorf("remaining = %d, want %d", receipt.RemainingSeconds, wantRemaining)
	}

	listing := f.store.getListing(listingID)
	if listing.Status != model.StatusActive {
		t.Errorf("status = %s, want ACTIVE", listing.Status)
	}
	if !listing.BiddingActive {
		t.Error("bidding_active should be true")
	}
	if listing.BiddingStartTime == nil || !listing.BiddingStartTime.Equal(testStart) {
		t.Errorf("start time = %v, want %v", listing.BiddingStartTime, testStart)
	}
	wantEnd := testStart.Add(4 * 24 * time.Hour)
	if listing.BiddingEndTime == nil || !listing.BiddingEndTime.Equal(wantEnd) {
		t.Errorf("end time = %v, want %v", listing.BiddingEndTime, wantEnd)
	}
}

func TestPlaceBidBelowReserveRejected(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	_, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 49999))
	expectConflict(t, err, "Bid amount must be at least LKR 50000.00")

	listing := f.store.getListing(listingID)
	if listing.Status != model.StatusApproved || listing.BiddingActive {
		t.Error("rejected bid must not change listing state")
	}
	f.sink.expectNone(t)
}

func TestPlaceBidAtReserveAccepted(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 50000)); err != nil {
		t.Fatalf("bid equal to reserve should be accepted: %v", err)
	}
}

func TestPlaceBidSelfBidRejected(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	_, err := f.svc.PlaceBid(context.Background(), bidReq(sellerID, 60000))
	expectConflict(t, err, "your own listing")
}

func TestPlaceBidListingNotOpen(t *testing.T) {
	for _, status := range []model.ListingStatus{
		model.StatusPendingApproval,
		model.StatusRejected,
		model.StatusSold,
		model.StatusExpiredNoBids,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			f.addOpenListing(50000)
			l := f.store.getListing(listingID)
			l.Status = status
			f.store.putListing(l)

			_, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000))
			expectConflict(t, err, "not open for bidding")
		})
	}
}

func TestPlaceBidMustExceedCurrentHighest(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}

	// An equal amount is not an increase.
	_, err := f.svc.PlaceBid(context.Background(), bidReq("bob", 60000))
	expectConflict(t, err, "higher than the current highest bid of LKR 60000.00")

	_, err = f.svc.PlaceBid(context.Background(), bidReq("bob", 59000))
	expectConflict(t, err, "higher than the current highest bid")

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("bob", 61000)); err != nil {
		t.Fatalf("higher bid failed: %v", err)
	}

	active := f.store.activeBids(listingID)
	if len(active) != 1 {
		t.Fatalf("active bids = %d, want exactly 1", len(active))
	}
	if active[0].BidderID != "bob" || !active[0].BidAmount.Equal(decimal.NewFromInt(61000)) {
		t.Errorf("active bid = %s %s, want bob 61000", active[0].BidderID, active[0].BidAmount)
	}
}

func TestPlaceBidWindowNeverExtended(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}
	endAfterFirst := *f.store.getListing(listingID).BiddingEndTime

	f.clk.Advance(3 * 24 * time.Hour)
	receipt, err := f.svc.PlaceBid(context.Background(), bidReq("bob", 70000))
	if err != nil {
		t.Fatalf("second bid failed: %v", err)
	}

	if receipt.CountdownStarted {
		t.Error("later bids must not restart the countdown")
	}
	endAfterSecond := *f.store.getListing(listingID).BiddingEndTime
	if !endAfterSecond.Equal(endAfterFirst) {
		t.Errorf("end moved from %v to %v; window must be fixed", endAfterFirst, endAfterSecond)
	}
	wantRemaining := int64((24 * time.Hour).Seconds())
	if receipt.RemainingSeconds != wantRemaining {
		t.Errorf("remaining = %d, want %d", receipt.RemainingSeconds, wantRemaining)
	}
}

func TestPlaceBidAfterWindowRejected(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}

	f.clk.Advance(4*24*time.Hour + time.Second)
	_, err := f.svc.PlaceBid(context.Background(), bidReq("bob", 70000))
	expectConflict(t, err, "Bidding has ended")
}

func TestPlaceBidExactlyAtWindowEndRejected(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}

	f.clk.Advance(4 * 24 * time.Hour)
	_, err := f.svc.PlaceBid(context.Background(), bidReq("bob", 70000))
	expectConflict(t, err, "Bidding has ended")
}

func TestPlaceBidWhileLockedConflicts(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	f.store.locks["bid_lock:"+listingID] = &model.BidLock{
		ID:    "bid_lock:" + listingID,
		Owner: "someone-else",
	}

	_, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000))
	expectConflict(t, err, "being processed")
}

func TestPlaceBidReleasesLock(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}

	f.store.mu.Lock()
	_, held := f.store.locks["bid_lock:"+listingID]
	f.store.mu.Unlock()
	if held {
		t.Error("lock should be released after acceptance")
	}

	// And after a rejection too.
	_, _ = f.svc.PlaceBid(context.Background(), bidReq("bob", 10))
	f.store.mu.Lock()
	_, held = f.store.locks["bid_lock:"+listingID]
	f.store.mu.Unlock()
	if held {
		t.Error("lock should be released after rejection")
	}
}

func TestPlaceBidWrongCurrencyRejected(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	req := bidReq("alice", 60000)
	req.Currency = "USD"
	_, err := f.svc.PlaceBid(context.Background(), req)
	expectConflict(t, err, "must be in LKR")
}

func TestPlaceBidValidation(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	tests := []struct {
		name   string
		mutate func(r *model.BidRequest)
	}{
		{"bad listing id", func(r *model.BidRequest) { r.ListingID = "not-an-oid" }},
		{"missing bidder", func(r *model.BidRequest) { r.BidderID = "" }},
		{"zero amount", func(r *model.BidRequest) { r.BidAmount = decimal.Zero }},
		{"negative amount", func(r *model.BidRequest) { r.BidAmount = decimal.NewFromInt(-10) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bidReq("alice", 60000)
			tt.mutate(req)
			_, err := f.svc.PlaceBid(context.Background(), req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
				t.Errorf("code = %s, want %s", appErr.Code, apperrors.CodeValidation)
			}
		})
	}
}

// --- Events ---

func TestPlaceBidEventsFirstBid(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}

	evts := f.sink.wait(t)
	if len(evts) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(evts), evts)
	}
	if evts[0].Type != model.EventBidPlaced || evts[0].RecipientID != "alice" {
		t.Errorf("event 0 = %s/%s, want BID_PLACED/alice", evts[0].Type, evts[0].RecipientID)
	}
	if evts[1].Type != model.EventNewBid || evts[1].RecipientID != sellerID {
		t.Errorf("event 1 = %s/%s, want NEW_BID/seller", evts[1].Type, evts[1].RecipientID)
	}
}

func TestPlaceBidEventsOutbid(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}
	f.sink.wait(t)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("bob", 65000)); err != nil {
		t.Fatalf("second bid failed: %v", err)
	}

	evts := f.sink.wait(t)
	var sawOutbid bool
	for _, e := range evts {
		if e.Type == model.EventBidOutbid {
			sawOutbid = true
			if e.RecipientID != "alice" {
				t.Errorf("BID_OUTBID to %s, want alice", e.RecipientID)
			}
		}
	}
	if !sawOutbid {
		t.Errorf("no BID_OUTBID event in %+v", evts)
	}
}

// --- Resolution ---

func TestResolveWithWinner(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}
	f.sink.wait(t)
	if _, err := f.svc.PlaceBid(context.Background(), bidReq("bob", 70000)); err != nil {
		t.Fatalf("second bid failed: %v", err)
	}
	f.sink.wait(t)

	f.clk.Advance(4*24*time.Hour + time.Minute)
	if err := f.svc.ResolveListing(context.Background(), listingID); err != nil {
		t.Fatalf("ResolveListing failed: %v", err)
	}

	listing := f.store.getListing(listingID)
	if listing.Status != model.StatusSold {
		t.Errorf("status = %s, want SOLD", listing.Status)
	}
	if listing.BiddingActive {
		t.Error("bidding_active should be false after resolution")
	}
	if listing.WinningBidderID != "bob" {
		t.Errorf("winner = %s, want bob", listing.WinningBidderID)
	}
	if listing.FinalPrice == nil || !listing.FinalPrice.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("final price = %v, want 70000", listing.FinalPrice)
	}
	if listing.BiddingCompletedAt == nil {
		t.Error("bidding_completed_at should be stamped")
	}

	evts := f.sink.wait(t)
	if evts[0].Type != model.EventBidWon || evts[0].RecipientID != "bob" {
		t.Errorf("event 0 = %s/%s, want BID_WON/bob", evts[0].Type, evts[0].RecipientID)
	}
	if evts[1].Type != model.EventItemSold || evts[1].RecipientID != sellerID {
		t.Errorf("event 1 = %s/%s, want ITEM_SOLD/seller", evts[1].Type, evts[1].RecipientID)
	}
	var endedTo []string
	for _, e := range evts {
		if e.Type == model.EventBiddingEnded {
			endedTo = append(endedTo, e.RecipientID)
		}
	}
	if len(endedTo) != 1 || endedTo[0] != "alice" {
		t.Errorf("BIDDING_ENDED to %v, want [alice]", endedTo)
	}
}

func TestResolveIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	f.sink.wait(t)

	f.clk.Advance(5 * 24 * time.Hour)
	if err := f.svc.ResolveListing(context.Background(), listingID); err != nil {
		t.Fatalf("first resolution failed: %v", err)
	}
	f.sink.wait(t)

	// Second resolution is a no-op: no error, no events, no state change.
	if err := f.svc.ResolveListing(context.Background(), listingID); err != nil {
		t.Fatalf("second resolution errored: %v", err)
	}
	f.sink.expectNone(t)

	listing := f.store.getListing(listingID)
	if listing.WinningBidderID != "alice" {
		t.Errorf("winner changed to %s", listing.WinningBidderID)
	}
}

func TestResolveBeforeWindowEnds(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	f.sink.wait(t)

	f.clk.Advance(24 * time.Hour)
	err := f.svc.ResolveListing(context.Background(), listingID)
	expectConflict(t, err, "not ended")
}

func TestResolveNoActiveBidsExpires(t *testing.T) {
	f := newFixture(t)
	end := testStart.Add(-time.Hour)
	start := end.Add(-4 * 24 * time.Hour)
	f.store.putListing(&model.Listing{
		ID:               listingID,
		SellerID:         sellerID,
		GemName:          "Star Ruby",
		ReservePrice:     decimal.NewFromInt(50000),
		Currency:         "LKR",
		Status:           model.StatusActive,
		BiddingActive:    true,
		BiddingStartTime: &start,
		BiddingEndTime:   &end,
	})

	if err := f.svc.ResolveListing(context.Background(), listingID); err != nil {
		t.Fatalf("ResolveListing failed: %v", err)
	}

	listing := f.store.getListing(listingID)
	if listing.Status != model.StatusExpiredNoBids {
		t.Errorf("status = %s, want EXPIRED_NO_BIDS", listing.Status)
	}
	if listing.WinningBidderID != "" || listing.FinalPrice != nil {
		t.Error("expired listing must not carry winner fields")
	}

	evts := f.sink.wait(t)
	if len(evts) != 1 || evts[0].Type != model.EventBiddingEnded || evts[0].RecipientID != sellerID {
		t.Errorf("events = %+v, want single BIDDING_ENDED to seller", evts)
	}
}

func TestResolveDueListings(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	f.sink.wait(t)

	// A second listing whose window has not lapsed.
	otherID := "65a000000000000000000002"
	end := testStart.Add(10 * 24 * time.Hour)
	f.store.putListing(&model.Listing{
		ID:             otherID,
		SellerID:       "seller-2",
		GemName:        "Spinel",
		ReservePrice:   decimal.NewFromInt(1000),
		Currency:       "LKR",
		Status:         model.StatusActive,
		BiddingActive:  true,
		BiddingEndTime: &end,
	})

	f.clk.Advance(5 * 24 * time.Hour)
	resolved, err := f.svc.ResolveDueListings(context.Background())
	if err != nil {
		t.Fatalf("ResolveDueListings failed: %v", err)
	}
	if resolved != 1 {
		t.Errorf("resolved = %d, want 1", resolved)
	}

	if got := f.store.getListing(listingID).Status; got != model.StatusSold {
		t.Errorf("due listing status = %s, want SOLD", got)
	}
	if got := f.store.getListing(otherID).Status; got != model.StatusActive {
		t.Errorf("undue listing status = %s, want ACTIVE", got)
	}
}

func TestCountdownStatusResolvesLapsedListing(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	f.sink.wait(t)

	f.clk.Advance(2 * 24 * time.Hour)
	status, err := f.svc.CountdownStatus(context.Background(), listingID)
	if err != nil {
		t.Fatalf("CountdownStatus failed: %v", err)
	}
	wantRemaining := int64((2 * 24 * time.Hour).Seconds())
	if status.RemainingSeconds != wantRemaining {
		t.Errorf("remaining = %d, want %d", status.RemainingSeconds, wantRemaining)
	}
	if status.TotalBids != 1 {
		t.Errorf("total bids = %d, want 1", status.TotalBids)
	}
	if status.HighestBid == nil || !status.HighestBid.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("highest bid = %v, want 60000", status.HighestBid)
	}

	f.clk.Advance(3 * 24 * time.Hour)
	status, err = f.svc.CountdownStatus(context.Background(), listingID)
	if err != nil {
		t.Fatalf("CountdownStatus after lapse failed: %v", err)
	}
	if status.RemainingSeconds != 0 {
		t.Errorf("remaining = %d, want 0", status.RemainingSeconds)
	}
	if status.Status != model.StatusSold {
		t.Errorf("status = %s, want SOLD after lazy resolution", status.Status)
	}
	if status.BiddingActive {
		t.Error("bidding_active should be false after lazy resolution")
	}
}

func TestRepairInconsistent(t *testing.T) {
	f := newFixture(t)
	end := testStart.Add(-time.Hour)
	f.store.putListing(&model.Listing{
		ID:              listingID,
		SellerID:        sellerID,
		GemName:         "Garnet",
		ReservePrice:    decimal.NewFromInt(1000),
		Currency:        "LKR",
		Status:          model.StatusSold,
		BiddingActive:   true,
		BiddingEndTime:  &end,
		WinningBidderID: "alice",
	})

	repaired, err := f.svc.RepairInconsistent(context.Background())
	if err != nil {
		t.Fatalf("RepairInconsistent failed: %v", err)
	}
	if repaired != 1 {
		t.Errorf("repaired = %d, want 1", repaired)
	}
	if f.store.getListing(listingID).BiddingActive {
		t.Error("bidding_active should be cleared")
	}
}

// --- Queries ---

func TestGetBidStatistics(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(50000)

	if _, err := f.svc.PlaceBid(context.Background(), bidReq("alice", 60000)); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	f.sink.wait(t)
	if _, err := f.svc.PlaceBid(context.Background(), bidReq("bob", 70000)); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	f.sink.wait(t)

	stats, err := f.svc.GetBidStatistics(context.Background(), listingID)
	if err != nil {
		t.Fatalf("GetBidStatistics failed: %v", err)
	}
	if stats.TotalBids != 2 {
		t.Errorf("total = %d, want 2", stats.TotalBids)
	}
	if !stats.HighestBid.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("highest = %s, want 70000", stats.HighestBid)
	}
	if !stats.HasActiveBids {
		t.Error("has_active_bids should be true")
	}
}

func TestMonotonicBidLadder(t *testing.T) {
	f := newFixture(t)
	f.addOpenListing(1000)

	amounts := []int64{1000, 1500, 2000, 5000, 5001}
	bidders := []string{"a", "b", "c", "d", "e"}
	for i, amt := range amounts {
		if _, err := f.svc.PlaceBid(context.Background(), bidReq(bidders[i], amt)); err != nil {
			t.Fatalf("bid %d (%d) failed: %v", i, amt, err)
		}
		f.sink.wait(t)
	}

	active := f.store.activeBids(listingID)
	if len(active) != 1 {
		t.Fatalf("active bids = %d, want 1", len(active))
	}
	if active[0].BidderID != "e" {
		t.Errorf("active bidder = %s, want e", active[0].BidderID)
	}

	count, err := (&fakeBidRepo{store: f.store}).CountByListing(context.Background(), listingID)
	if err != nil || count != int64(len(amounts)) {
		t.Errorf("ledger count = %d, want %d", count, len(amounts))
	}
}
