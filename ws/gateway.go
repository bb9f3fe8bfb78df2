// Package ws is the realtime gateway: authenticated sessions, in-memory
// room membership and fan-out. Membership lives only in this process;
// clients re-issue joins on reconnect.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"bloodlink/chat"
	"bloodlink/models"

	"github.com/google/uuid"
)

const sendBuffer = 256

// ParticipantChecker answers whether a user may listen on a conversation
// room. The store implements it.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}

// Session binds one live connection to a user identity for its lifetime.
type Session struct {
	ID     string
	UserID string
	Role   string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Outbox is the ordered stream of events for this connection.
func (s *Session) Outbox() <-chan []byte {
	return s.send
}

// push queues data for the connection. A full buffer means the reader has
// stalled; the caller disconnects the session so the client reconnects and
// reconciles over REST instead of silently missing frames.
func (s *Session) push(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// Gateway owns the session table and the room membership table.
type Gateway struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	rooms        map[string]map[string]*Session // roomID -> sessionID -> session
	participants ParticipantChecker
}

func NewGateway(participants ParticipantChecker) *Gateway {
	return &Gateway{
		sessions:     make(map[string]*Session),
		rooms:        make(map[string]map[string]*Session),
		participants: participants,
	}
}

// Connect registers a session for an authenticated user and auto-joins the
// personal room user:{id}, the channel for notification fan-out.
func (g *Gateway) Connect(userID, role string) *Session {
	session := &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		send:   make(chan []byte, sendBuffer),
	}

	g.mu.Lock()
	g.sessions[session.ID] = session
	g.addToRoom(models.UserRoom(userID), session)
	total := len(g.sessions)
	g.mu.Unlock()

	log.Printf("WS: user %s connected (sessions: %d)", userID, total)
	return session
}

// Disconnect drops the session from every room and closes its outbox.
func (g *Gateway) Disconnect(sessionID string) {
	g.mu.Lock()
	session, ok := g.sessions[sessionID]
	if !ok {
		g.mu.Unlock()
		return
	}
	delete(g.sessions, sessionID)
	for roomID, members := range g.rooms {
		if _, in := members[sessionID]; in {
			delete(members, sessionID)
			if len(members) == 0 {
				delete(g.rooms, roomID)
			}
		}
	}
	total := len(g.sessions)
	g.mu.Unlock()

	session.close()
	log.Printf("WS: user %s disconnected (sessions: %d)", session.UserID, total)
}

// Join subscribes the session to a room. Joining a room it is already in is
// a no-op. Personal rooms are joinable only by their owner; conversation
// rooms only by participants.
func (g *Gateway) Join(ctx context.Context, sessionID, roomID string) error {
	g.mu.RLock()
	session, ok := g.sessions[sessionID]
	g.mu.RUnlock()
	if !ok {
		return chat.ErrUnauthenticated
	}

	if strings.HasPrefix(roomID, "user:") {
		if roomID != models.UserRoom(session.UserID) {
			return chat.ErrForbidden
		}
	} else {
		ok, err := g.participants.IsParticipant(ctx, roomID, session.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return chat.ErrForbidden
		}
	}

	g.mu.Lock()
	g.addToRoom(roomID, session)
	g.mu.Unlock()
	return nil
}

// Leave is a no-op for rooms the session is not in.
func (g *Gateway) Leave(sessionID, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if members, ok := g.rooms[roomID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(g.rooms, roomID)
		}
	}
}

// caller must hold g.mu.
func (g *Gateway) addToRoom(roomID string, session *Session) {
	members, ok := g.rooms[roomID]
	if !ok {
		members = make(map[string]*Session)
		g.rooms[roomID] = members
	}
	members[session.ID] = session
}

// Broadcast fans one event out to every current member of the room.
func (g *Gateway) Broadcast(roomID, event string, payload any) {
	g.emit(roomID, event, payload, "")
}

// BroadcastExcept fans out to every member except one session.
func (g *Gateway) BroadcastExcept(roomID, event string, payload any, excludeSessionID string) {
	g.emit(roomID, event, payload, excludeSessionID)
}

func (g *Gateway) emit(roomID, event string, payload any, excludeSessionID string) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("WS: marshal %s failed: %v", event, err)
		return
	}

	g.mu.RLock()
	members := g.rooms[roomID]
	targets := make([]*Session, 0, len(members))
	for id, session := range members {
		if id == excludeSessionID {
			continue
		}
		targets = append(targets, session)
	}
	g.mu.RUnlock()

	var stalled []*Session
	for _, session := range targets {
		if !session.push(data) {
			stalled = append(stalled, session)
		}
	}

	// A full outbox means a gap in the stream; drop the session so the
	// client reconnects and reconciles over REST.
	for _, session := range stalled {
		log.Printf("WS: session for user %s stalled, disconnecting", session.UserID)
		g.Disconnect(session.ID)
	}
}

// Emit sends one event to a single session.
func (g *Gateway) Emit(sessionID, event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("WS: marshal %s failed: %v", event, err)
		return
	}

	g.mu.RLock()
	session, ok := g.sessions[sessionID]
	g.mu.RUnlock()
	if ok && !session.push(data) {
		log.Printf("WS: session for user %s stalled, disconnecting", session.UserID)
		g.Disconnect(sessionID)
	}
}

// UserInRoom reports whether any of the user's sessions is a member of the
// room.
func (g *Gateway) UserInRoom(roomID, userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, session := range g.rooms[roomID] {
		if session.UserID == userID {
			return true
		}
	}
	return false
}

// SessionInRoom reports membership of one specific session.
func (g *Gateway) SessionInRoom(roomID, sessionID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.rooms[roomID][sessionID]
	return ok
}

func (g *Gateway) OnlineCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

func (g *Gateway) RoomSize(roomID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms[roomID])
}

func marshalEvent(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Envelope{Type: event, Payload: raw})
}
