package chat_test

import (
	"context"
	"testing"

	"bloodlink/chat"
	"bloodlink/models"

	"github.com/stretchr/testify/require"
)

func TestMarkRead_MarksOnlyMessagesFromOthers(t *testing.T) {
	p, st, gw := newPipeline(t)
	r := chat.NewReceipts(st, gw)
	convID := seedConversation(t, st, "u1", "u2")

	sendMessage(t, p, "u2", convID, "one")
	sendMessage(t, p, "u2", convID, "two")
	sendMessage(t, p, "u1", convID, "reply")

	count, err := r.MarkRead(context.Background(), "u1", convID, "")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	msgs, err := st.ListMessages(context.Background(), convID, 1, 50)
	require.NoError(t, err)
	for _, m := range msgs {
		if m.SenderID == "u2" {
			require.True(t, m.IsRead)
			require.NotNil(t, m.ReadAt)
		} else {
			require.False(t, m.IsRead, "own messages are untouched")
		}
	}

	reads := gw.named(models.EventMessagesRead)
	require.Len(t, reads, 1)
	payload, ok := reads[0].Payload.(models.MessagesReadEvent)
	require.True(t, ok)
	require.Equal(t, "u1", payload.ReadBy)
	require.Equal(t, convID, payload.ConversationID)
}

func TestMarkRead_SecondCallIsSilentNoOp(t *testing.T) {
	p, st, gw := newPipeline(t)
	r := chat.NewReceipts(st, gw)
	convID := seedConversation(t, st, "u1", "u2")
	sendMessage(t, p, "u2", convID, "one")

	count, err := r.MarkRead(context.Background(), "u1", convID, "")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	before := gw.count()
	count, err = r.MarkRead(context.Background(), "u1", convID, "")
	require.NoError(t, err)
	require.Zero(t, count)
	require.Equal(t, before, gw.count(), "a no-op mark must not broadcast")
}

func TestMarkRead_NonParticipantForbidden(t *testing.T) {
	_, st, gw := newPipeline(t)
	r := chat.NewReceipts(st, gw)
	convID := seedConversation(t, st, "u1", "u2")

	_, err := r.MarkRead(context.Background(), "intruder", convID, "")
	require.ErrorIs(t, err, chat.ErrForbidden)
}

func TestMarkRead_UnknownConversation(t *testing.T) {
	_, st, gw := newPipeline(t)
	r := chat.NewReceipts(st, gw)

	_, err := r.MarkRead(context.Background(), "u1", "missing", "")
	require.ErrorIs(t, err, chat.ErrNotFound)
}

func TestMarkRead_ExcludesReaderSession(t *testing.T) {
	p, st, gw := newPipeline(t)
	r := chat.NewReceipts(st, gw)
	convID := seedConversation(t, st, "u1", "u2")
	sendMessage(t, p, "u2", convID, "one")

	_, err := r.MarkRead(context.Background(), "u1", convID, "session-1")
	require.NoError(t, err)

	reads := gw.named(models.EventMessagesRead)
	require.Len(t, reads, 1)
	require.Equal(t, "session-1", reads[0].Exclude)
}
