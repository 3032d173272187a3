package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	biddingerrors "gemnet/internal/bidding/errors"
	"gemnet/pkg/config"
	mongotx "gemnet/pkg/db/mongo"
	"gemnet/pkg/model"
)

const (
	BidCollectionName = "Bids"
)

type mongoBidRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

// BidRepository is the append-only bid ledger. Bids are never deleted;
// MarkOutbid is the only mutation.
type BidRepository interface {
	Save(ctx context.Context, bid *model.Bid) error
	FindByID(ctx context.Context, id string) (*model.Bid, error)
	// FindActive returns the current highest bid for a listing, or nil when
	// no bid holds ACTIVE. Ties on amount break toward the earliest bid.
	FindActive(ctx context.Context, listingID string) (*model.Bid, error)
	MarkOutbid(ctx context.Context, bidID string) error
	FindByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Bid, error)
	CountByListing(ctx context.Context, listingID string) (int64, error)
	FindByBidder(ctx context.Context, bidderID string, limit int, offset int64) ([]*model.Bid, error)
	CountByBidder(ctx context.Context, bidderID string) (int64, error)
	DistinctBidders(ctx context.Context, listingID string) ([]string, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBidRepository(cfg *config.Config) BidRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBidRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(BidCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics.
func (r *mongoBidRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoBidRepository) Save(ctx context.Context, bid *model.Bid) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, bid)
	if err != nil {
		return fmt.Errorf("failed to save bid: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		bid.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBidRepository) FindByID(ctx context.Context, id string) (*model.Bid, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", biddingerrors.ErrInvalidID, id)
	}

	var bid model.Bid
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&bid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, biddingerrors.ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to find bid: %w", err)
	}

	return &bid, nil
}

func (r *mongoBidRepository) FindActive(ctx context.Context, listingID string) (*model.Bid, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"listing_id": listingID,
		"status":     model.BidActive,
	}
	// Equal amounts cannot both be ACTIVE under the acceptance protocol,
	// but the sort still pins the winner deterministically: highest amount,
	// earliest bid on a tie.
	opts := options.FindOne().SetSort(bson.D{
		{Key: "bid_amount", Value: -1},
		{Key: "bid_time", Value: 1},
	})

	var bid model.Bid
	err := r.collection.FindOne(ctx, filter, opts).Decode(&bid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active bid: %w", err)
	}

	return &bid, nil
}

func (r *mongoBidRepository) MarkOutbid(ctx context.Context, bidID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(bidID)
	if err != nil {
		return fmt.Errorf("%w: %s", biddingerrors.ErrInvalidID, bidID)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": model.BidActive},
		bson.M{"$set": bson.M{"status": model.BidOutbid}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark bid outbid: %w", err)
	}

	if result.MatchedCount == 0 {
		return biddingerrors.ErrBidNotFound
	}

	return nil
}

func (r *mongoBidRepository) FindByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Bid, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{
			{Key: "bid_amount", Value: -1},
			{Key: "bid_time", Value: 1},
		}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bids by listing: %w", err)
	}
	defer cursor.Close(ctx)

	var bids []*model.Bid
	if err = cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode bids: %w", err)
	}

	return bids, nil
}

func (r *mongoBidRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bids by listing: %w", err)
	}
	return count, nil
}

func (r *mongoBidRepository) FindByBidder(ctx context.Context, bidderID string, limit int, offset int64) ([]*model.Bid, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "bid_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"bidder_id": bidderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bids by bidder: %w", err)
	}
	defer cursor.Close(ctx)

	var bids []*model.Bid
	if err = cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode bids: %w", err)
	}

	return bids, nil
}

func (r *mongoBidRepository) CountByBidder(ctx context.Context, bidderID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"bidder_id": bidderID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bids by bidder: %w", err)
	}
	return count, nil
}

func (r *mongoBidRepository) DistinctBidders(ctx context.Context, listingID string) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, "bidder_id", bson.M{"listing_id": listingID})
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct bidders: %w", err)
	}

	bidders := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			bidders = append(bidders, s)
		}
	}
	return bidders, nil
}

func (r *mongoBidRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
