package model

import "time"

// BidLock is an advisory lock serializing bid acceptance and resolution for a
// single listing. The unique _id makes the insert a compare-and-set: a
// duplicate-key error means another request holds the listing. A TTL index on
// expires_at reaps locks abandoned by a crashed holder.
type BidLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
