package models

import (
	"sort"
	"strings"
	"time"
)

// Conversation kinds. Only direct conversations carry the pair-key
// uniqueness constraint.
const (
	ConversationDirect     = "direct"
	ConversationStaffAdmin = "staff_admin"
	ConversationGroup      = "group"
)

// LastMessage is the denormalized summary kept on the conversation for
// list views, rewritten on every accepted message.
type LastMessage struct {
	Content  string    `bson:"content" json:"content"`
	SenderID string    `bson:"senderId" json:"senderId"`
	SentAt   time.Time `bson:"sentAt" json:"sentAt"`
}

type Conversation struct {
	ID           string       `bson:"_id" json:"id"`
	Kind         string       `bson:"kind" json:"kind"`
	Participants []string     `bson:"participants" json:"participants"`
	PairKey      string       `bson:"pairKey,omitempty" json:"-"`
	LastMessage  *LastMessage `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	IsActive     bool         `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// DirectPairKey builds the canonical key for a direct conversation between
// two users. The pair is unordered, so participants are sorted before
// joining; the unique index on this key collapses a create race into a
// single row.
func DirectPairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

// UserRoom is the personal room a session is auto-joined to at connect
// time. It is the sole channel for notification fan-out.
func UserRoom(userID string) string {
	return "user:" + userID
}
