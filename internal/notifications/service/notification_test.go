package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	notificationserrors "gemnet/internal/notifications/errors"
	"gemnet/internal/notifications/repository"
	"gemnet/pkg/clock"
	"gemnet/pkg/config"
	apperrors "gemnet/pkg/errors"
	"gemnet/pkg/logger"
	"gemnet/pkg/model"
)

type mockNotificationRepo struct {
	insertFunc      func(ctx context.Context, n *model.Notification) error
	findByUserFunc  func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Notification, error)
	countByUserFunc func(ctx context.Context, userID string) (int64, error)
	countUnreadFunc func(ctx context.Context, userID string) (int64, error)
	markReadFunc    func(ctx context.Context, id string, userID string, at time.Time) error
	markAllReadFunc func(ctx context.Context, userID string, at time.Time) (int64, error)
}

var _ repository.NotificationRepository = (*mockNotificationRepo)(nil)

func (m *mockNotificationRepo) Insert(ctx context.Context, n *model.Notification) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, n)
	}
	return nil
}

func (m *mockNotificationRepo) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Notification, error) {
	if m.findByUserFunc != nil {
		return m.findByUserFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *mockNotificationRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	if m.countByUserFunc != nil {
		return m.countByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	if m.countUnreadFunc != nil {
		return m.countUnreadFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string, userID string, at time.Time) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id, userID, at)
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	if m.markAllReadFunc != nil {
		return m.markAllReadFunc(ctx, userID, at)
	}
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{Log: logger.Discard()}
}

var recordedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleEvent(t model.EventType) *model.BidEvent {
	return &model.BidEvent{
		RecipientID:     "alice",
		Type:            t,
		ListingID:       "65a000000000000000000001",
		BidID:           "bid-001",
		GemName:         "Ceylon Blue Sapphire",
		Amount:          decimal.NewFromInt(60000),
		Currency:        "LKR",
		TriggerUserID:   "bob",
		TriggerUserName: "Bob Silva",
		TotalBids:       3,
		OccurredAt:      recordedAt,
	}
}

func TestRecordRendersPerEventType(t *testing.T) {
	tests := []struct {
		eventType       model.EventType
		titleFragment   string
		messageFragment string
	}{
		{model.EventBidPlaced, "Bid placed", "Your bid of LKR 60000.00"},
		{model.EventBidOutbid, "outbid", "Bob Silva placed a higher bid"},
		{model.EventNewBid, "New bid on your listing", "Bob Silva bid LKR 60000.00"},
		{model.EventBidActivity, "activity", "highest bid on Ceylon Blue Sapphire is now"},
		{model.EventBidWon, "you won", "You won Ceylon Blue Sapphire"},
		{model.EventItemSold, "Your item sold", "sold for LKR 60000.00"},
		{model.EventBiddingEnded, "Bidding has ended", "has ended"},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			var saved *model.Notification
			repo := &mockNotificationRepo{
				insertFunc: func(_ context.Context, n *model.Notification) error {
					saved = n
					return nil
				},
			}
			svc := NewNotificationService(repo, clock.NewFake(recordedAt), testConfig())

			if err := svc.Record(context.Background(), sampleEvent(tt.eventType)); err != nil {
				t.Fatalf("Record failed: %v", err)
			}
			if saved == nil {
				t.Fatal("notification was not persisted")
			}

			if !strings.Contains(strings.ToLower(saved.Title), strings.ToLower(tt.titleFragment)) {
				t.Errorf("title %q missing %q", saved.Title, tt.titleFragment)
			}
			if !strings.Contains(saved.Message, tt.messageFragment) {
				t.Errorf("message %q missing %q", saved.Message, tt.messageFragment)
			}
			if saved.UserID != "alice" {
				t.Errorf("user_id = %s, want alice", saved.UserID)
			}
			if saved.Type != tt.eventType {
				t.Errorf("type = %s, want %s", saved.Type, tt.eventType)
			}
			if saved.Amount != "60000.00" {
				t.Errorf("amount = %s, want 60000.00", saved.Amount)
			}
			if saved.IsRead {
				t.Error("new notification must be unread")
			}
			if !saved.CreatedAt.Equal(recordedAt) {
				t.Errorf("created_at = %v, want %v", saved.CreatedAt, recordedAt)
			}
		})
	}
}

func TestRecordRejectsBadEvents(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, clock.NewFake(recordedAt), testConfig())

	noRecipient := sampleEvent(model.EventBidPlaced)
	noRecipient.RecipientID = ""
	if err := svc.Record(context.Background(), noRecipient); err == nil {
		t.Error("expected error for missing recipient")
	}

	unknown := sampleEvent("SOMETHING_ELSE")
	err := svc.Record(context.Background(), unknown)
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.CodeInvalidInput)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &mockNotificationRepo{
		markReadFunc: func(_ context.Context, _ string, _ string, _ time.Time) error {
			return notificationserrors.ErrNotFound
		},
	}
	svc := NewNotificationService(repo, clock.NewFake(recordedAt), testConfig())

	err := svc.MarkRead(context.Background(), "65a000000000000000000009", "alice")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.CodeNotFound)
	}
}

func TestGetForUserRequiresUser(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, clock.NewFake(recordedAt), testConfig())

	_, _, err := svc.GetForUser(context.Background(), "", 20, 0)
	if err == nil {
		t.Fatal("expected error for empty user id")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.CodeInvalidInput)
	}
}

func TestMarkAllRead(t *testing.T) {
	var gotUser string
	repo := &mockNotificationRepo{
		markAllReadFunc: func(_ context.Context, userID string, _ time.Time) (int64, error) {
			gotUser = userID
			return 4, nil
		},
	}
	svc := NewNotificationService(repo, clock.NewFake(recordedAt), testConfig())

	count, err := svc.MarkAllRead(context.Background(), "alice")
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if count != 4 || gotUser != "alice" {
		t.Errorf("count = %d user = %s, want 4 alice", count, gotUser)
	}
}
