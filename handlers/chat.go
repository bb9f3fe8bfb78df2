package handlers

import (
	"log"
	"net/http"
	"strconv"

	"bloodlink/chat"
	"bloodlink/models"
	"bloodlink/store"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// ChatHandler is the REST reconciliation path: the non-socket way to send
// and fetch messages while disconnected or on first load. Every mutating
// endpoint calls the same pipeline the socket layer uses.
type ChatHandler struct {
	store    store.Store
	pipeline *chat.Pipeline
	receipts *chat.Receipts
}

func NewChatHandler(st store.Store, pipeline *chat.Pipeline, receipts *chat.Receipts) *ChatHandler {
	return &ChatHandler{store: st, pipeline: pipeline, receipts: receipts}
}

// conversationView is a conversation plus the resolved partner for direct
// threads, the shape list views want.
type conversationView struct {
	models.Conversation
	Partner *models.User `json:"partner,omitempty"`
}

// GET /api/chat/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := c.GetString("userId")

	convs, err := h.store.ListConversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]conversationView, 0, len(convs))
	for _, conv := range convs {
		view := conversationView{Conversation: conv}
		if conv.Kind == models.ConversationDirect {
			partnerID, ok := lo.Find(conv.Participants, func(p string) bool { return p != userID })
			if ok {
				if partner, err := h.store.GetUser(c.Request.Context(), partnerID); err == nil {
					view.Partner = partner
				}
			}
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

// POST /api/chat/start-conversation
func (h *ChatHandler) StartConversation(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")
	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
		return
	}

	if _, err := h.store.GetUser(c.Request.Context(), req.UserID); err != nil {
		respondError(c, err)
		return
	}

	conv, created, err := h.store.StartOrGetDirect(c.Request.Context(), userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"conversation": conv})
}

// GET /api/chat/messages/:roomId?page&limit
// Returns the page oldest-first so a client that loads history and then
// attaches the live feed sees one gap-free ordering boundary.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := c.GetString("userId")

	ok, err := h.store.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, chat.ErrForbidden)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := h.store.ListMessages(c.Request.Context(), roomID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// POST /api/chat/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		ConversationID  string `json:"roomId" binding:"required"`
		ReceiverID      string `json:"receiverId,omitempty"`
		Message         string `json:"message" binding:"required"`
		Type            string `json:"type,omitempty"`
		RelatedEntityID string `json:"relatedEntityId,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.pipeline.Send(c.Request.Context(), chat.SendInput{
		SenderID:        c.GetString("userId"),
		ConversationID:  req.ConversationID,
		ReceiverID:      req.ReceiverID,
		Content:         req.Message,
		Type:            req.Type,
		RelatedEntityID: req.RelatedEntityID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// The sender also receives its own broadcast on any live socket;
	// clients dedupe by message id.
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// DELETE /api/chat/messages/:messageId
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	err := h.pipeline.Delete(c.Request.Context(), c.GetString("userId"), c.Param("messageId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// PUT /api/chat/messages/:roomId/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	count, err := h.receipts.MarkRead(c.Request.Context(), c.GetString("userId"), c.Param("roomId"), "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updatedCount": count})
}

// GET /api/chat/unread-count
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	count, err := h.store.UnreadCount(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// GET /api/chat/search-users?query
func (h *ChatHandler) SearchUsers(c *gin.Context) {
	query := c.Query("query")

	users, err := h.store.SearchUsers(c.Request.Context(), query, c.GetString("userId"))
	if err != nil {
		log.Printf("[Chat] SearchUsers error: %v", err)
		respondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
