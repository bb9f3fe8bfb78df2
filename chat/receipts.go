package chat

import (
	"context"
	"time"

	"bloodlink/models"
	"bloodlink/store"
)

// Receipts tracks read state. MarkRead is bulk and idempotent: a second
// call with nothing new to mark returns 0 and causes no broadcast.
type Receipts struct {
	store store.Store
	gw    Broadcaster
}

func NewReceipts(st store.Store, gw Broadcaster) *Receipts {
	return &Receipts{store: st, gw: gw}
}

// MarkRead marks every message in the conversation addressed to the reader
// and not yet read. excludeSessionID, when set (socket path), keeps the
// reader's own connection out of the broadcast; the REST path passes "".
func (r *Receipts) MarkRead(ctx context.Context, readerID, conversationID, excludeSessionID string) (int64, error) {
	ok, err := r.store.IsParticipant(ctx, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrForbidden
	}

	at := time.Now().UTC()
	count, err := r.store.MarkConversationRead(ctx, conversationID, readerID, at)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		r.gw.BroadcastExcept(conversationID, models.EventMessagesRead, models.MessagesReadEvent{
			ConversationID: conversationID,
			ReadBy:         readerID,
			ReadAt:         at,
		}, excludeSessionID)
	}
	return count, nil
}
