package ws

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"bloodlink/chat"
	"bloodlink/models"

	"github.com/stretchr/testify/require"
)

// staticChecker authorizes a fixed conversation->participants table.
type staticChecker struct {
	rooms map[string][]string
}

func (s *staticChecker) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	members, ok := s.rooms[conversationID]
	if !ok {
		return false, chat.ErrNotFound
	}
	for _, m := range members {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func newTestGateway() *Gateway {
	return NewGateway(&staticChecker{rooms: map[string][]string{
		"c1": {"u1", "u2"},
	}})
}

func drain(t *testing.T, s *Session) []models.Envelope {
	t.Helper()
	var out []models.Envelope
	for {
		select {
		case data, ok := <-s.Outbox():
			if !ok {
				return out
			}
			var env models.Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestConnect_AutoJoinsPersonalRoom(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u1", "donor")

	require.True(t, gw.SessionInRoom(models.UserRoom("u1"), s.ID))
	require.True(t, gw.UserInRoom(models.UserRoom("u1"), "u1"))
	require.Equal(t, 1, gw.OnlineCount())
}

func TestJoin_ParticipantAllowed(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u1", "donor")

	require.NoError(t, gw.Join(context.Background(), s.ID, "c1"))
	require.True(t, gw.SessionInRoom("c1", s.ID))
}

func TestJoin_NonParticipantRejected(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u3", "donor")

	err := gw.Join(context.Background(), s.ID, "c1")
	require.ErrorIs(t, err, chat.ErrForbidden)
	require.False(t, gw.SessionInRoom("c1", s.ID))
}

func TestJoin_UnknownRoom(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u1", "donor")

	err := gw.Join(context.Background(), s.ID, "nope")
	require.ErrorIs(t, err, chat.ErrNotFound)
}

func TestJoin_ForeignPersonalRoomRejected(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u1", "donor")

	err := gw.Join(context.Background(), s.ID, models.UserRoom("u2"))
	require.ErrorIs(t, err, chat.ErrForbidden)
}

func TestJoin_Idempotent(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u1", "donor")

	require.NoError(t, gw.Join(context.Background(), s.ID, "c1"))
	require.NoError(t, gw.Join(context.Background(), s.ID, "c1"))
	require.Equal(t, 1, gw.RoomSize("c1"))
}

func TestLeave_NotAMemberIsNoOp(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u1", "donor")

	gw.Leave(s.ID, "c1")
	gw.Leave(s.ID, "never-existed")
}

func TestBroadcast_ReachesAllMembersInOrder(t *testing.T) {
	gw := newTestGateway()
	s1 := gw.Connect("u1", "donor")
	s2 := gw.Connect("u2", "staff")
	require.NoError(t, gw.Join(context.Background(), s1.ID, "c1"))
	require.NoError(t, gw.Join(context.Background(), s2.ID, "c1"))
	drain(t, s1)
	drain(t, s2)

	gw.Broadcast("c1", "chat:newMessage", map[string]string{"n": "1"})
	gw.Broadcast("c1", "chat:newMessage", map[string]string{"n": "2"})
	gw.Broadcast("c1", "chat:newMessage", map[string]string{"n": "3"})

	for _, s := range []*Session{s1, s2} {
		events := drain(t, s)
		require.Len(t, events, 3)
		for i, env := range events {
			var payload map[string]string
			require.NoError(t, json.Unmarshal(env.Payload, &payload))
			require.Equal(t, strconv.Itoa(i+1), payload["n"])
		}
	}
}

func TestBroadcastExcept_SkipsSender(t *testing.T) {
	gw := newTestGateway()
	s1 := gw.Connect("u1", "donor")
	s2 := gw.Connect("u2", "staff")
	require.NoError(t, gw.Join(context.Background(), s1.ID, "c1"))
	require.NoError(t, gw.Join(context.Background(), s2.ID, "c1"))
	drain(t, s1)
	drain(t, s2)

	gw.BroadcastExcept("c1", "chat:typing", models.TypingEvent{ConversationID: "c1", UserID: "u1"}, s1.ID)

	require.Empty(t, drain(t, s1))
	require.Len(t, drain(t, s2), 1)
}

func TestBroadcast_MultiDeviceDelivery(t *testing.T) {
	gw := newTestGateway()
	// Same user, two connections; both must see the room event.
	s1 := gw.Connect("u1", "donor")
	s2 := gw.Connect("u1", "donor")
	require.NoError(t, gw.Join(context.Background(), s1.ID, "c1"))
	require.NoError(t, gw.Join(context.Background(), s2.ID, "c1"))

	gw.Broadcast("c1", "chat:newMessage", map[string]string{"n": "1"})

	require.Len(t, drain(t, s1), 1)
	require.Len(t, drain(t, s2), 1)
}

func TestBroadcast_StalledSessionDisconnected(t *testing.T) {
	gw := newTestGateway()
	slow := gw.Connect("u1", "donor")
	fast := gw.Connect("u2", "staff")
	require.NoError(t, gw.Join(context.Background(), slow.ID, "c1"))
	require.NoError(t, gw.Join(context.Background(), fast.ID, "c1"))
	drain(t, fast)

	// Nobody reads slow's outbox while fast keeps up. Once slow's buffer
	// fills, the session must be dropped rather than kept in the room with
	// a gap in its stream.
	total := sendBuffer + 10
	fastGot := 0
	for i := 0; i < total; i++ {
		gw.Broadcast("c1", "chat:newMessage", map[string]string{"n": strconv.Itoa(i)})
		fastGot += len(drain(t, fast))
	}

	require.False(t, gw.SessionInRoom("c1", slow.ID))
	require.False(t, gw.UserInRoom(models.UserRoom("u1"), "u1"))
	require.Equal(t, 1, gw.OnlineCount())

	// The frames delivered before the drop are intact and the outbox ends.
	got := drain(t, slow)
	require.Len(t, got, sendBuffer)
	_, open := <-slow.Outbox()
	require.False(t, open)

	// The healthy member stayed in the room and saw every frame.
	require.True(t, gw.SessionInRoom("c1", fast.ID))
	require.Equal(t, total, fastGot)
}

func TestEmit_StalledSessionDisconnected(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u1", "donor")

	for i := 0; i < sendBuffer+1; i++ {
		gw.Emit(s.ID, "chat:error", models.ErrorEvent{Message: "overflow"})
	}

	require.Equal(t, 0, gw.OnlineCount())
	require.Len(t, drain(t, s), sendBuffer)
}

func TestDisconnect_RemovesAllMemberships(t *testing.T) {
	gw := newTestGateway()
	s := gw.Connect("u1", "donor")
	require.NoError(t, gw.Join(context.Background(), s.ID, "c1"))

	gw.Disconnect(s.ID)

	require.False(t, gw.SessionInRoom("c1", s.ID))
	require.False(t, gw.UserInRoom(models.UserRoom("u1"), "u1"))
	require.Equal(t, 0, gw.OnlineCount())

	// Broadcasting after disconnect must not panic on the closed outbox.
	gw.Broadcast("c1", "chat:newMessage", map[string]string{"n": "1"})
	gw.Disconnect(s.ID)
}

func TestEmit_TargetsSingleSession(t *testing.T) {
	gw := newTestGateway()
	s1 := gw.Connect("u1", "donor")
	s2 := gw.Connect("u2", "staff")
	drain(t, s1)
	drain(t, s2)

	gw.Emit(s1.ID, "chat:error", models.ErrorEvent{Message: "nope"})

	require.Len(t, drain(t, s1), 1)
	require.Empty(t, drain(t, s2))
}
