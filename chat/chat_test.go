package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"bloodlink/chat"
	"bloodlink/models"
	"bloodlink/store/memory"

	"github.com/stretchr/testify/require"
)

// fakeGateway records fan-out calls so tests can assert deliveries without
// a network stack.
type fakeEvent struct {
	Room    string
	Name    string
	Payload any
	Exclude string
}

type fakeGateway struct {
	mu       sync.Mutex
	events   []fakeEvent
	members  map[string]map[string]bool // roomID -> userID
	sessions map[string]map[string]bool // roomID -> sessionID
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		members:  make(map[string]map[string]bool),
		sessions: make(map[string]map[string]bool),
	}
}

func (f *fakeGateway) Broadcast(roomID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fakeEvent{Room: roomID, Name: event, Payload: payload})
}

func (f *fakeGateway) BroadcastExcept(roomID, event string, payload any, excludeSessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fakeEvent{Room: roomID, Name: event, Payload: payload, Exclude: excludeSessionID})
}

func (f *fakeGateway) UserInRoom(roomID, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[roomID][userID]
}

func (f *fakeGateway) SessionInRoom(roomID, sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[roomID][sessionID]
}

func (f *fakeGateway) putUser(roomID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[roomID] == nil {
		f.members[roomID] = make(map[string]bool)
	}
	f.members[roomID][userID] = true
}

func (f *fakeGateway) putSession(roomID, sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessions[roomID] == nil {
		f.sessions[roomID] = make(map[string]bool)
	}
	f.sessions[roomID][sessionID] = true
}

func (f *fakeGateway) named(event string) []fakeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeEvent
	for _, e := range f.events {
		if e.Name == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeGateway) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// seedConversation creates an active direct conversation between the given
// users and returns its id.
func seedConversation(t *testing.T, st *memory.Store, users ...string) string {
	t.Helper()
	conv := &models.Conversation{
		ID:           "conv-" + users[0] + "-" + users[1],
		Kind:         models.ConversationDirect,
		Participants: users,
		PairKey:      models.DirectPairKey(users[0], users[1]),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.CreateConversation(context.Background(), conv))
	return conv.ID
}

func sendMessage(t *testing.T, p *chat.Pipeline, sender, convID, content string) *models.Message {
	t.Helper()
	msg, err := p.Send(context.Background(), chat.SendInput{
		SenderID:       sender,
		ConversationID: convID,
		Content:        content,
	})
	require.NoError(t, err)
	return msg
}
