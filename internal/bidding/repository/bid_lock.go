package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"gemnet/pkg/config"
	"gemnet/pkg/model"
)

// BidLockRepository provides the advisory lock serializing writes to a
// single listing's auction state.
type BidLockRepository interface {
	Create(ctx context.Context, lock *model.BidLock) (*model.BidLock, error)
	Delete(ctx context.Context, lockID string, owner string) error
}

type mongoBidLockRepository struct {
	collection *mongo.Collection
}

func NewBidLockRepository(cfg *config.Config) BidLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBidLockRepository{
		collection: db.Collection("Bid_locks"),
	}
}

// Create inserts the lock document. A duplicate key error means another
// request holds the listing.
func (r *mongoBidLockRepository) Create(ctx context.Context, lock *model.BidLock) (*model.BidLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// Delete releases the lock. The owner filter keeps a slow request from
// releasing a lock that the TTL monitor already reaped and someone else
// re-acquired.
func (r *mongoBidLockRepository) Delete(ctx context.Context, lockID string, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	return err
}
