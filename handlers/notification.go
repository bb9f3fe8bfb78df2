package handlers

import (
	"net/http"
	"time"

	"bloodlink/chat"
	"bloodlink/models"
	"bloodlink/store"

	"github.com/gin-gonic/gin"
)

// NotificationHandler covers both sides of notification delivery: the
// admin-key ingestion endpoint the rest of the portal posts domain events
// to, and the user-facing reconciliation endpoints.
type NotificationHandler struct {
	store    store.Store
	notifier *chat.Notifier
}

func NewNotificationHandler(st store.Store, notifier *chat.Notifier) *NotificationHandler {
	return &NotificationHandler{store: st, notifier: notifier}
}

// POST /api/admin/notifications (X-Admin-Key)
// Persists the notification, then fans it out to the user's personal room.
// An offline user just misses the push; the row is the source of truth.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req struct {
		UserID      string `json:"userId" binding:"required"`
		Type        string `json:"type" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Message     string `json:"message"`
		RelatedID   string `json:"relatedId,omitempty"`
		RelatedType string `json:"relatedType,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notif, err := h.notifier.Create(c.Request.Context(), &models.Notification{
		UserID:      req.UserID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		RelatedID:   req.RelatedID,
		RelatedType: req.RelatedType,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"notification": notif})
}

// GET /api/chat/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	notifs, err := h.store.ListNotifications(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifs})
}

// PUT /api/chat/notifications/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	count, err := h.store.MarkNotificationsRead(c.Request.Context(), c.GetString("userId"), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updatedCount": count})
}
