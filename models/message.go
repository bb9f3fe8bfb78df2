package models

import "time"

const (
	MessageText  = "text"
	MessageImage = "image"
	MessageFile  = "file"
)

type Message struct {
	ID              string     `bson:"_id" json:"id"`
	ConversationID  string     `bson:"conversationId" json:"conversationId"`
	SenderID        string     `bson:"senderId" json:"senderId"`
	ReceiverID      string     `bson:"receiverId,omitempty" json:"receiverId,omitempty"`
	Content         string     `bson:"content" json:"content"`
	Type            string     `bson:"type" json:"type"`
	RelatedEntityID string     `bson:"relatedEntityId,omitempty" json:"relatedEntityId,omitempty"`
	IsRead          bool       `bson:"isRead" json:"isRead"`
	ReadAt          *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
}

func ValidMessageType(t string) bool {
	switch t {
	case MessageText, MessageImage, MessageFile:
		return true
	}
	return false
}
