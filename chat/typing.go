package chat

import "bloodlink/models"

// Typing relays ephemeral typing signals to the rest of the room. Nothing
// is persisted or retried; consumers keep their own timeout.
type Typing struct {
	gw Broadcaster
}

func NewTyping(gw Broadcaster) *Typing {
	return &Typing{gw: gw}
}

func (t *Typing) Start(sessionID, userID, conversationID string) error {
	return t.relay(sessionID, userID, conversationID, models.EventTyping)
}

func (t *Typing) Stop(sessionID, userID, conversationID string) error {
	return t.relay(sessionID, userID, conversationID, models.EventStopTyping)
}

func (t *Typing) relay(sessionID, userID, conversationID, event string) error {
	if !t.gw.SessionInRoom(conversationID, sessionID) {
		return ErrForbidden
	}
	t.gw.BroadcastExcept(conversationID, event, models.TypingEvent{
		ConversationID: conversationID,
		UserID:         userID,
	}, sessionID)
	return nil
}
