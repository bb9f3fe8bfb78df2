package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bloodlink/chat"
	"bloodlink/models"

	"github.com/google/uuid"
)

// Store is the in-memory implementation used by tests and single-process
// development runs. A mutex plus maps stands in for the database's own
// concurrency control; the pairKey map plays the role of the unique index.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	pairIndex     map[string]string // pairKey -> conversation id
	messages      map[string][]*models.Message
	messageIndex  map[string]string // message id -> conversation id
	users         map[string]*models.User
	notifications map[string][]*models.Notification
}

func New() *Store {
	return &Store{
		conversations: make(map[string]*models.Conversation),
		pairIndex:     make(map[string]string),
		messages:      make(map[string][]*models.Message),
		messageIndex:  make(map[string]string),
		users:         make(map[string]*models.User),
		notifications: make(map[string][]*models.Notification),
	}
}

// PutUser seeds a user. Identity is owned by the auth system in production;
// this exists for tests and local runs.
func (s *Store) PutUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *Store) StartOrGetDirect(ctx context.Context, userA, userB string) (*models.Conversation, bool, error) {
	key := models.DirectPairKey(userA, userB)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.pairIndex[key]; ok {
		conv := s.conversations[id]
		cp := *conv
		return &cp, false, nil
	}

	conv := &models.Conversation{
		ID:           uuid.NewString(),
		Kind:         models.ConversationDirect,
		Participants: []string{userA, userB},
		PairKey:      key,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	s.conversations[conv.ID] = conv
	s.pairIndex[key] = conv.ID
	cp := *conv
	return &cp, true, nil
}

func (s *Store) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv.Kind == models.ConversationDirect && conv.PairKey != "" {
		if _, ok := s.pairIndex[conv.PairKey]; ok {
			return chat.ErrValidation
		}
		s.pairIndex[conv.PairKey] = conv.ID
	}
	cp := *conv
	s.conversations[conv.ID] = &cp
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Conversation
	for _, conv := range s.conversations {
		if conv.IsActive && conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	// Most recently active first, matching the mongo sort.
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if out[i].LastMessage != nil {
			ti = out[i].LastMessage.SentAt
		}
		if out[j].LastMessage != nil {
			tj = out[j].LastMessage.SentAt
		}
		return ti.After(tj)
	})
	return out, nil
}

func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return false, chat.ErrNotFound
	}
	return conv.IsActive && conv.HasParticipant(userID), nil
}

func (s *Store) SetLastMessage(ctx context.Context, conversationID string, last models.LastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return chat.ErrNotFound
	}
	conv.LastMessage = &last
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return chat.ErrNotFound
	}
	cp := *msg
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], &cp)
	s.messageIndex[msg.ID] = msg.ConversationID
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	convID, ok := s.messageIndex[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	for _, m := range s.messages[convID] {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, chat.ErrNotFound
}

func (s *Store) ListMessages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]

	// Newest page first, then ascending inside the page, same contract as
	// the mongo fetch-desc-then-reverse.
	end := len(msgs) - (page-1)*limit
	if end <= 0 {
		return []models.Message{}, nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]models.Message, 0, end-start)
	for _, m := range msgs[start:end] {
		out = append(out, *m)
	}
	return out, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	convID, ok := s.messageIndex[id]
	if !ok {
		return chat.ErrNotFound
	}
	msgs := s.messages[convID]
	for i, m := range msgs {
		if m.ID == id {
			s.messages[convID] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	delete(s.messageIndex, id)
	return nil
}

func (s *Store) MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return 0, chat.ErrNotFound
	}
	var count int64
	for _, m := range s.messages[conversationID] {
		if m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			readAt := at
			m.ReadAt = &readAt
			count++
		}
	}
	return count, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for convID, conv := range s.conversations {
		if !conv.IsActive || !conv.HasParticipant(userID) {
			continue
		}
		for _, m := range s.messages[convID] {
			if m.SenderID != userID && !m.IsRead {
				count++
			}
		}
	}
	return count, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) SearchUsers(ctx context.Context, query, excludeUserID string) ([]models.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if u.ID == excludeUserID {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.UserID] = append(s.notifications[n.UserID], &cp)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns := s.notifications[userID]
	out := make([]models.Notification, 0, len(ns))
	for i := len(ns) - 1; i >= 0; i-- {
		out = append(out, *ns[i])
	}
	return out, nil
}

func (s *Store) MarkNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications[userID] {
		if !n.IsRead {
			n.IsRead = true
			readAt := at
			n.ReadAt = &readAt
			count++
		}
	}
	return count, nil
}
