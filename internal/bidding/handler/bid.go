package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"gemnet/internal/bidding/service"
	httputil "gemnet/pkg/http"
	"gemnet/pkg/logger"
	"gemnet/pkg/model"
)

type BidHandler struct {
	service service.BidService
	log     *logger.Logger
}

func NewBidHandler(service service.BidService, log *logger.Logger) *BidHandler {
	return &BidHandler{
		service: service,
		log:     log,
	}
}

func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "PlaceBid", "error", writeErr)
		}
		return
	}

	receipt, err := h.service.PlaceBid(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "PlaceBid", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, receipt); err != nil {
		h.log.Error("failed to write created response", "handler", "PlaceBid", "error", err)
	}
}

func (h *BidHandler) GetByListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByListing", "error", writeErr)
		}
		return
	}

	bids, total, err := h.service.GetBidsForListing(r.Context(), ps.ByName("listingId"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByListing", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bids, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByListing", "error", err)
	}
}

func (h *BidHandler) GetByUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByUser", "error", writeErr)
		}
		return
	}

	bids, total, err := h.service.GetUserBids(r.Context(), ps.ByName("userId"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByUser", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bids, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByUser", "error", err)
	}
}

func (h *BidHandler) Statistics(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	stats, err := h.service.GetBidStatistics(r.Context(), ps.ByName("listingId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Statistics", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Statistics", "error", err)
	}
}

func (h *BidHandler) Countdown(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status, err := h.service.CountdownStatus(r.Context(), ps.ByName("listingId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Countdown", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, status); err != nil {
		h.log.Error("failed to write success response", "handler", "Countdown", "error", err)
	}
}

func (h *BidHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bids", h.PlaceBid)
	router.GET("/api/v1/bids/listing/:listingId", h.GetByListing)
	router.GET("/api/v1/bids/listing/:listingId/statistics", h.Statistics)
	router.GET("/api/v1/bids/listing/:listingId/countdown", h.Countdown)
	router.GET("/api/v1/bids/user/:userId", h.GetByUser)
}
