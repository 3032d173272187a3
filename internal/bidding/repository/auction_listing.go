package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	listingserrors "gemnet/internal/listings/errors"
	listingsrepo "gemnet/internal/listings/repository"
	"gemnet/pkg/config"
	"gemnet/pkg/model"
)

// AuctionListingRepository is the bid engine's view of the Listings
// collection: countdown start, resolution and the sweeping queries. All
// writes are conditional so no state change can apply twice.
type AuctionListingRepository interface {
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	// StartCountdown flips an APPROVED listing to ACTIVE with the bidding
	// window stamped. The write matches only while no countdown exists.
	StartCountdown(ctx context.Context, id string, start, end time.Time) error
	// Resolve performs the exactly-once close: it matches only while
	// bidding_active is still true and reports whether this caller won the
	// flip.
	Resolve(ctx context.Context, id string, to model.ListingStatus, winnerID string, finalPrice *decimal.Decimal, completedAt time.Time) (bool, error)
	FindDueForResolution(ctx context.Context, now time.Time, limit int) ([]*model.Listing, error)
	// FindSoldStillActive reports listings in the inconsistent SOLD-but-
	// counting-down state that a crash between writes can leave behind.
	FindSoldStillActive(ctx context.Context, limit int) ([]*model.Listing, error)
	ClearBiddingActive(ctx context.Context, id string) error
}

type mongoAuctionListingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewAuctionListingRepository(cfg *config.Config) AuctionListingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAuctionListingRepository{
		cfg:        cfg,
		collection: db.Collection(listingsrepo.CollectionName),
	}
}

func (r *mongoAuctionListingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAuctionListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	var listing model.Listing
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return &listing, nil
}

func (r *mongoAuctionListingRepository) StartCountdown(ctx context.Context, id string, start, end time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":                objectID,
		"status":             model.StatusApproved,
		"bidding_active":     false,
		"bidding_start_time": nil,
	}
	update := bson.M{
		"$set": bson.M{
			"status":             model.StatusActive,
			"bidding_active":     true,
			"bidding_start_time": start,
			"bidding_end_time":   end,
			"updated_at":         time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to start countdown: %w", err)
	}

	if result.MatchedCount == 0 {
		return listingserrors.ErrInvalidTransition
	}

	return nil
}

func (r *mongoAuctionListingRepository) Resolve(ctx context.Context, id string, to model.ListingStatus, winnerID string, finalPrice *decimal.Decimal, completedAt time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"bidding_active":       false,
		"status":               to,
		"bidding_completed_at": completedAt,
		"updated_at":           time.Now().UTC().Truncate(time.Millisecond),
	}
	if winnerID != "" {
		set["winning_bidder_id"] = winnerID
	}
	if finalPrice != nil {
		set["final_price"] = *finalPrice
	}

	filter := bson.M{
		"_id":            objectID,
		"bidding_active": true,
	}

	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Someone else already flipped bidding_active.
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve listing: %w", err)
	}

	return true, nil
}

func (r *mongoAuctionListingRepository) FindDueForResolution(ctx context.Context, now time.Time, limit int) ([]*model.Listing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"bidding_active":   true,
		"bidding_end_time": bson.M{"$lte": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "bidding_end_time", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find due listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []*model.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode due listings: %w", err)
	}

	return listings, nil
}

func (r *mongoAuctionListingRepository) FindSoldStillActive(ctx context.Context, limit int) ([]*model.Listing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":         model.StatusSold,
		"bidding_active": true,
	}
	opts := options.Find().SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find inconsistent listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []*model.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode inconsistent listings: %w", err)
	}

	return listings, nil
}

func (r *mongoAuctionListingRepository) ClearBiddingActive(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "bidding_active": true},
		bson.M{"$set": bson.M{
			"bidding_active": false,
			"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear bidding flag: %w", err)
	}
	return nil
}
