package store

import (
	"context"
	"time"

	"bloodlink/models"
)

// Store is the persistence surface the messaging core writes through. Both
// transports (socket and REST) converge on the same implementation, so a
// logical send produces exactly one persisted message no matter the path.
type Store interface {
	// Conversations.
	StartOrGetDirect(ctx context.Context, userA, userB string) (conv *models.Conversation, created bool, err error)
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	SetLastMessage(ctx context.Context, conversationID string, last models.LastMessage) error

	// Messages. ListMessages returns the requested page in ascending
	// creation order (newest page fetched descending, then reversed).
	InsertMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)

	// Users (read-only: identity is owned by the external auth system).
	GetUser(ctx context.Context, id string) (*models.User, error)
	SearchUsers(ctx context.Context, query, excludeUserID string) ([]models.User, error)

	// Notifications.
	InsertNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
}
