package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"gemnet/internal/notifications/service"
	httputil "gemnet/pkg/http"
	"gemnet/pkg/logger"
)

type NotificationHandler struct {
	service service.NotificationService
	log     *logger.Logger
}

func NewNotificationHandler(service service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, log: log}
}

func (h *NotificationHandler) GetForUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetForUser", "error", writeErr)
		}
		return
	}

	notifications, total, err := h.service.GetForUser(r.Context(), ps.ByName("userId"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetForUser", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, notifications, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetForUser", "error", err)
	}
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	count, err := h.service.UnreadCount(r.Context(), ps.ByName("userId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UnreadCount", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"unread_count": count}); err != nil {
		h.log.Error("failed to write success response", "handler", "UnreadCount", "error", err)
	}
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.service.MarkRead(r.Context(), ps.ByName("id"), ps.ByName("userId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MarkRead", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]bool{"read": true}); err != nil {
		h.log.Error("failed to write success response", "handler", "MarkRead", "error", err)
	}
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	count, err := h.service.MarkAllRead(r.Context(), ps.ByName("userId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MarkAllRead", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"marked_read": count}); err != nil {
		h.log.Error("failed to write success response", "handler", "MarkAllRead", "error", err)
	}
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/notifications/user/:userId", h.GetForUser)
	router.GET("/api/v1/notifications/user/:userId/unread-count", h.UnreadCount)
	router.POST("/api/v1/notifications/user/:userId/read", h.MarkAllRead)
	router.POST("/api/v1/notifications/user/:userId/read/:id", h.MarkRead)
}
