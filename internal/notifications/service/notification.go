package service

import (
	"context"
	"errors"
	"fmt"

	notificationserrors "gemnet/internal/notifications/errors"
	"gemnet/internal/notifications/repository"
	"gemnet/pkg/clock"
	"gemnet/pkg/config"
	apperrors "gemnet/pkg/errors"
	"gemnet/pkg/model"
)

type NotificationService interface {
	// Record persists one consumed bid event as a user-facing notification.
	Record(ctx context.Context, event *model.BidEvent) error
	GetForUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	clk  clock.Clock
	cfg  *config.Config
}

func NewNotificationService(repo repository.NotificationRepository, clk clock.Clock, cfg *config.Config) NotificationService {
	return &notificationService{repo: repo, clk: clk, cfg: cfg}
}

func (s *notificationService) Record(ctx context.Context, event *model.BidEvent) error {
	if event.RecipientID == "" {
		return apperrors.InvalidInput("Event has no recipient")
	}
	if _, err := model.ParseEventType(string(event.Type)); err != nil {
		return apperrors.InvalidInput("Unknown event type: " + string(event.Type))
	}

	title, message := render(event)

	notification := &model.Notification{
		UserID:          event.RecipientID,
		ListingID:       event.ListingID,
		BidID:           event.BidID,
		Type:            event.Type,
		Title:           title,
		Message:         message,
		TriggerUserID:   event.TriggerUserID,
		TriggerUserName: event.TriggerUserName,
		Amount:          event.Amount.StringFixed(2),
		GemName:         event.GemName,
		IsRead:          false,
		CreatedAt:       s.clk.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, notification); err != nil {
		s.cfg.Log.Error("Failed to record notification",
			"type", event.Type, "user_id", event.RecipientID, "error", err)
		return apperrors.Internal("Failed to record notification", err)
	}

	s.cfg.Log.Debug("Notification recorded",
		"type", event.Type, "user_id", event.RecipientID, "listing_id", event.ListingID)
	return nil
}

// render produces the title and body shown to the recipient. The copy is
// written per event type because each one addresses a different party.
func render(event *model.BidEvent) (string, string) {
	amount := fmt.Sprintf("%s %s", event.Currency, event.Amount.StringFixed(2))

	switch event.Type {
	case model.EventBidPlaced:
		return "Bid placed",
			fmt.Sprintf("Your bid of %s on %s has been placed.", amount, event.GemName)
	case model.EventBidOutbid:
		return "You have been outbid",
			fmt.Sprintf("%s placed a higher bid of %s on %s.", event.TriggerUserName, amount, event.GemName)
	case model.EventNewBid:
		return "New bid on your listing",
			fmt.Sprintf("%s bid %s on your %s.", event.TriggerUserName, amount, event.GemName)
	case model.EventBidActivity:
		return "New activity on a listing you bid on",
			fmt.Sprintf("The highest bid on %s is now %s.", event.GemName, amount)
	case model.EventBidWon:
		return "Congratulations, you won!",
			fmt.Sprintf("You won %s with a bid of %s.", event.GemName, amount)
	case model.EventItemSold:
		return "Your item sold",
			fmt.Sprintf("%s sold for %s.", event.GemName, amount)
	case model.EventBiddingEnded:
		return "Bidding has ended",
			fmt.Sprintf("Bidding on %s has ended.", event.GemName)
	}

	return "Notification", fmt.Sprintf("Update on %s.", event.GemName)
}

func (s *notificationService) GetForUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Notification, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	notifications, err := s.repo.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list notifications", "user_id", userID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve notifications", err)
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to count notifications", "user_id", userID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count notifications", err)
	}

	return notifications, count, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to count unread notifications", "user_id", userID, "error", err)
		return 0, apperrors.Internal("Failed to count unread notifications", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string, userID string) error {
	if id == "" || userID == "" {
		return apperrors.InvalidInput("Notification ID and user ID are required")
	}

	err := s.repo.MarkRead(ctx, id, userID, s.clk.Now().UTC())
	if err != nil {
		if errors.Is(err, notificationserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Notification", id)
		}
		if errors.Is(err, notificationserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid notification ID format")
		}
		s.cfg.Log.Error("Failed to mark notification read", "id", id, "error", err)
		return apperrors.Internal("Failed to mark notification read", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, s.clk.Now().UTC())
	if err != nil {
		s.cfg.Log.Error("Failed to mark notifications read", "user_id", userID, "error", err)
		return 0, apperrors.Internal("Failed to mark notifications read", err)
	}
	return count, nil
}
