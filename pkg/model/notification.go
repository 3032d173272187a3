package model

import "time"

// Notification is the persisted, user-facing record written by the notifier
// when it consumes a BidEvent. Read state belongs to the recipient.
type Notification struct {
	ID              string     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          string     `json:"user_id" bson:"user_id"`
	ListingID       string     `json:"listing_id" bson:"listing_id"`
	BidID           string     `json:"bid_id,omitempty" bson:"bid_id,omitempty"`
	Type            EventType  `json:"type" bson:"type"`
	Title           string     `json:"title" bson:"title"`
	Message         string     `json:"message" bson:"message"`
	TriggerUserID   string     `json:"trigger_user_id,omitempty" bson:"trigger_user_id,omitempty"`
	TriggerUserName string     `json:"trigger_user_name,omitempty" bson:"trigger_user_name,omitempty"`
	Amount          string     `json:"amount,omitempty" bson:"amount,omitempty"`
	GemName         string     `json:"gem_name,omitempty" bson:"gem_name,omitempty"`
	IsRead          bool       `json:"is_read" bson:"is_read"`
	ReadAt          *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
}
