package models

import (
	"encoding/json"
	"time"
)

// Socket event names, client->server and server->client. Both directions
// use the same {type, payload} envelope.
const (
	EventConnected = "connected"
	EventError     = "chat:error"
	EventPing      = "ping"
	EventPong      = "pong"

	EventJoin          = "chat:join"
	EventLeave         = "chat:leave"
	EventMessage       = "chat:message"
	EventDeleteMessage = "chat:deleteMessage"
	EventTyping        = "chat:typing"
	EventStopTyping    = "chat:stopTyping"
	EventMarkRead      = "chat:markRead"

	EventNewMessage          = "chat:newMessage"
	EventMessageDeleted      = "chat:messageDeleted"
	EventMessagesRead        = "chat:messagesRead"
	EventNotification        = "notification:new"
	EventNotificationPreview = "notification:preview"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client->server payloads.

type JoinPayload struct {
	ConversationID string `json:"conversationId"`
}

type SendPayload struct {
	ConversationID  string `json:"conversationId"`
	ReceiverID      string `json:"receiverId,omitempty"`
	Content         string `json:"content"`
	Type            string `json:"type,omitempty"`
	RelatedEntityID string `json:"relatedEntityId,omitempty"`
}

type DeletePayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
}

type MarkReadPayload struct {
	ConversationID string `json:"conversationId"`
}

// Server->client payloads.

type ConnectedEvent struct {
	UserID string `json:"userId"`
	Room   string `json:"room"`
}

type NewMessageEvent struct {
	ConversationID string   `json:"conversationId"`
	Message        *Message `json:"message"`
}

type MessageDeletedEvent struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

type MessagesReadEvent struct {
	ConversationID string    `json:"conversationId"`
	ReadBy         string    `json:"readBy"`
	ReadAt         time.Time `json:"readAt"`
}

type TypingEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

type NotificationEvent struct {
	Notification *Notification `json:"notification"`
}

type NotificationPreviewEvent struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Preview        string `json:"preview"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}
