package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"bloodlink/models"
	"bloodlink/store"

	"github.com/google/uuid"
)

const previewLength = 80

// Pipeline is the single write path for chat messages. The socket and REST
// handlers are thin adapters over it.
type Pipeline struct {
	store  store.Store
	gw     Broadcaster
	maxLen int

	mu    sync.Mutex
	rooms map[string]*roomState
}

// roomState serializes sends per room. Persist and broadcast happen under
// the room lock so subscribers observe messages in timestamp order.
type roomState struct {
	mu     sync.Mutex
	lastAt time.Time
}

func NewPipeline(st store.Store, gw Broadcaster, maxMessageLength int) *Pipeline {
	if maxMessageLength <= 0 {
		maxMessageLength = 2000
	}
	return &Pipeline{
		store:  st,
		gw:     gw,
		maxLen: maxMessageLength,
		rooms:  make(map[string]*roomState),
	}
}

func (p *Pipeline) room(conversationID string) *roomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.rooms[conversationID]
	if !ok {
		r = &roomState{}
		p.rooms[conversationID] = r
	}
	return r
}

type SendInput struct {
	SenderID        string
	ConversationID  string
	ReceiverID      string
	Content         string
	Type            string
	RelatedEntityID string
}

// Send validates, persists and fans out one message. A failed persist never
// broadcasts. The sender gets its own echo; clients dedupe by message id.
func (p *Pipeline) Send(ctx context.Context, in SendInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", ErrValidation)
	}
	if len(content) > p.maxLen {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, p.maxLen)
	}
	kind := in.Type
	if kind == "" {
		kind = models.MessageText
	}
	if !models.ValidMessageType(kind) {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrValidation, kind)
	}

	conv, err := p.store.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsActive || !conv.HasParticipant(in.SenderID) {
		return nil, ErrForbidden
	}
	if in.ReceiverID != "" && !conv.HasParticipant(in.ReceiverID) {
		return nil, fmt.Errorf("%w: receiver is not a participant", ErrValidation)
	}

	room := p.room(conv.ID)
	room.mu.Lock()
	defer room.mu.Unlock()

	// Server-assigned timestamp is the ordering source of truth, monotone
	// non-decreasing within the room.
	now := time.Now().UTC()
	if now.Before(room.lastAt) {
		now = room.lastAt
	}

	msg := &models.Message{
		ID:              uuid.NewString(),
		ConversationID:  conv.ID,
		SenderID:        in.SenderID,
		ReceiverID:      in.ReceiverID,
		Content:         content,
		Type:            kind,
		RelatedEntityID: in.RelatedEntityID,
		IsRead:          false,
		CreatedAt:       now,
	}

	if err := p.persist(ctx, msg); err != nil {
		return nil, err
	}
	room.lastAt = now

	if err := p.store.SetLastMessage(ctx, conv.ID, models.LastMessage{
		Content:  content,
		SenderID: in.SenderID,
		SentAt:   now,
	}); err != nil {
		// Not critical, the message itself is already saved.
		log.Printf("[Chat] update lastMessage failed for %s: %v", conv.ID, err)
	}

	p.gw.Broadcast(conv.ID, models.EventNewMessage, models.NewMessageEvent{
		ConversationID: conv.ID,
		Message:        msg,
	})

	// A targeted receiver who is not listening on the room gets a
	// lightweight preview on their personal room instead.
	if in.ReceiverID != "" && !p.gw.UserInRoom(conv.ID, in.ReceiverID) {
		p.gw.Broadcast(models.UserRoom(in.ReceiverID), models.EventNotificationPreview, models.NotificationPreviewEvent{
			ConversationID: conv.ID,
			SenderID:       in.SenderID,
			Preview:        truncate(content, previewLength),
		})
	}

	return msg, nil
}

// persist retries once on a transient store failure before surfacing it.
func (p *Pipeline) persist(ctx context.Context, msg *models.Message) error {
	err := p.store.InsertMessage(ctx, msg)
	if errors.Is(err, ErrTransientStore) {
		log.Printf("[Chat] transient insert failure, retrying message %s", msg.ID)
		err = p.store.InsertMessage(ctx, msg)
	}
	return err
}

// Delete removes a message for good, no tombstone. Only the original sender
// may delete.
func (p *Pipeline) Delete(ctx context.Context, requesterID, messageID string) error {
	msg, err := p.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return ErrForbidden
	}

	if err := p.store.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	p.gw.Broadcast(msg.ConversationID, models.EventMessageDeleted, models.MessageDeletedEvent{
		ConversationID: msg.ConversationID,
		MessageID:      messageID,
	})
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
