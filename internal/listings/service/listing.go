package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"gemnet/internal/bidding/lifecycle"
	listingserrors "gemnet/internal/listings/errors"
	"gemnet/internal/listings/repository"
	"gemnet/internal/listings/validator"
	"gemnet/pkg/config"
	apperrors "gemnet/pkg/errors"
	"gemnet/pkg/model"
	"gemnet/pkg/sanitizer"
)

type ListingService interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	Browse(ctx context.Context, limit int, offset int64) ([]*model.Listing, int64, error)
	Search(ctx context.Context, query string, limit int, offset int64) ([]*model.Listing, int64, error)
	GetBySeller(ctx context.Context, sellerID string, limit int, offset int64) ([]*model.Listing, int64, error)
	Update(ctx context.Context, id string, sellerID string, updates *model.ListingUpdate) error
	Moderate(ctx context.Context, id string, target model.ListingStatus) error
	Delete(ctx context.Context, id string, sellerID string) error
}

type listingService struct {
	repo      repository.ListingRepository
	validator *validator.ListingValidator
	cfg       *config.Config
}

func NewListingService(
	repo repository.ListingRepository,
	validator *validator.ListingValidator,
	cfg *config.Config,
) ListingService {
	return &listingService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *listingService) Create(ctx context.Context, listing *model.Listing) error {
	s.applyDefaults(listing)
	s.sanitize(listing)
	if err := s.validate(listing); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		s.cfg.Log.Error("Failed to create listing", "error", err)
		return apperrors.Internal("Failed to create listing", err)
	}

	s.cfg.Log.Info("Listing created successfully",
		"id", listing.ID,
		"seller_id", listing.SellerID,
		"gem_name", listing.GemName,
	)
	return nil
}

func (s *listingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	// Views are best effort; a failed increment never fails the read.
	go func() {
		viewCtx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		defer cancel()
		if err := s.repo.IncrementViews(viewCtx, id); err != nil {
			s.cfg.Log.Warn("Failed to increment listing views", "id", id, "error", err)
		}
	}()

	return listing, nil
}

func (s *listingService) Browse(ctx context.Context, limit int, offset int64) ([]*model.Listing, int64, error) {
	var count int64
	var listings []*model.Listing
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountOpen(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count open listings", "error", errCount)
			errCount = apperrors.Internal("Failed to count listings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		listings, errFind = s.repo.FindOpen(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list open listings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve listings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return listings, count, nil
}

func (s *listingService) Search(ctx context.Context, query string, limit int, offset int64) ([]*model.Listing, int64, error) {
	key := sanitizer.SanitizeSearchKey(query)
	if key == "" {
		return nil, 0, apperrors.InvalidInput("Search query cannot be empty")
	}
	keys := []string{key}

	var count int64
	var listings []*model.Listing
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountBySearch(ctx, keys)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count listings by search", "query", query, "error", errCount)
			errCount = apperrors.Internal("Failed to count listings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		listings, errFind = s.repo.Search(ctx, keys, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to search listings", "query", query, "error", errFind)
			errFind = apperrors.Internal("Failed to search listings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return listings, count, nil
}

func (s *listingService) GetBySeller(ctx context.Context, sellerID string, limit int, offset int64) ([]*model.Listing, int64, error) {
	if sellerID == "" {
		return nil, 0, apperrors.InvalidInput("Seller ID cannot be empty")
	}

	var count int64
	var listings []*model.Listing
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountBySeller(ctx, sellerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count seller listings", "seller_id", sellerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count listings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		listings, errFind = s.repo.FindBySeller(ctx, sellerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list seller listings", "seller_id", sellerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve listings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return listings, count, nil
}

func (s *listingService) Update(ctx context.Context, id string, sellerID string, updates *model.ListingUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Listing ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}

	if sellerID != "" && existing.SellerID != sellerID {
		return apperrors.Conflict("Only the seller may edit this listing")
	}
	if existing.Status.Terminal() {
		return apperrors.Conflict("Listing has concluded and can no longer be edited")
	}
	if existing.BiddingActive {
		return apperrors.Conflict("Listing cannot be edited while bidding is active")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Listing update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeListingUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Listing", id)
		}
		s.cfg.Log.Error("Failed to update listing", "id", id, "error", err)
		return apperrors.Internal("Failed to update listing", err)
	}

	s.cfg.Log.Info("Listing updated successfully", "id", id)
	return nil
}

// Moderate applies an approve/reject decision. The repository write is
// conditional on the current status, so two moderators racing on the same
// listing cannot both win.
func (s *listingService) Moderate(ctx context.Context, id string, target model.ListingStatus) error {
	if id == "" {
		return apperrors.InvalidInput("Listing ID cannot be empty")
	}
	if !lifecycle.IsModerationTarget(target) {
		return apperrors.InvalidInput("Moderation can only set APPROVED or REJECTED")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}

	if err := lifecycle.Transition(existing.Status, target); err != nil {
		return apperrors.Conflict(err.Error())
	}

	err = s.repo.UpdateStatus(ctx, id, []model.ListingStatus{model.StatusPendingApproval}, target)
	if err != nil {
		if errors.Is(err, listingserrors.ErrInvalidTransition) {
			return apperrors.Conflict("Listing was moderated by another request")
		}
		s.cfg.Log.Error("Failed to moderate listing", "id", id, "target", target, "error", err)
		return apperrors.Internal("Failed to moderate listing", err)
	}

	s.cfg.Log.Info("Listing moderated", "id", id, "status", target)
	return nil
}

func (s *listingService) Delete(ctx context.Context, id string, sellerID string) error {
	if id == "" {
		return apperrors.InvalidInput("Listing ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}

	if sellerID != "" && existing.SellerID != sellerID {
		return apperrors.Conflict("Only the seller may remove this listing")
	}
	if existing.BiddingActive || existing.Status == model.StatusSold {
		return apperrors.Conflict("Listing with bids cannot be removed")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Listing", id)
		}
		return apperrors.Internal("Failed to delete listing", err)
	}

	s.cfg.Log.Info("Listing deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *listingService) applyDefaults(l *model.Listing) {
	l.Status = model.StatusPendingApproval
	l.BiddingActive = false
	l.BiddingStartTime = nil
	l.BiddingEndTime = nil
	l.WinningBidderID = ""
	l.FinalPrice = nil
	l.BiddingCompletedAt = nil
	l.Views = 0

	if l.Currency == "" {
		l.Currency = s.cfg.DefaultCurrency
	}
}

func (s *listingService) sanitize(l *model.Listing) {
	l.GemName = sanitizer.NormalizeGemName(l.GemName)
	l.Species = sanitizer.NormalizeGemName(l.Species)
	l.Description = sanitizer.NormalizeDescription(l.Description)
	l.SellerName = sanitizer.NormalizeGemName(l.SellerName)
	l.SearchKeys = sanitizer.SanitizeSlice(
		append(searchTerms(l.GemName), searchTerms(l.Species)...),
		sanitizer.SanitizeSearchKey,
	)
}

// searchTerms returns the full phrase plus each word, so "Blue Sapphire"
// is findable by "sapphire" alone.
func searchTerms(phrase string) []string {
	if phrase == "" {
		return nil
	}
	terms := []string{phrase}
	terms = append(terms, strings.Fields(phrase)...)
	return terms
}

func (s *listingService) mergeListingUpdates(existing *model.Listing, updates *model.ListingUpdate) *model.Listing {
	merged := *existing

	if updates.GemName != "" {
		merged.GemName = updates.GemName
	}
	if updates.Species != "" {
		merged.Species = updates.Species
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.ReservePrice != nil {
		merged.ReservePrice = *updates.ReservePrice
	}

	return &merged
}

func (s *listingService) validate(listing *model.Listing) error {
	if err := s.validator.Validate(listing); err != nil {
		s.cfg.Log.Warn("Listing validation failed", "error", err)
		return apperrors.Validation("Listing validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *listingService) mapLookupError(err error, id string) error {
	if errors.Is(err, listingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Listing", id)
	}
	if errors.Is(err, listingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid listing ID format")
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFoundWithID("Listing", id)
	}
	return apperrors.Internal("Failed to retrieve listing", err)
}
