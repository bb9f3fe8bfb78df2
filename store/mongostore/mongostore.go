package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodlink/chat"
	"bloodlink/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB implementation. The unique index on pairKey (see
// database.EnsureIndexes) is the authority for the direct-conversation
// race: two concurrent StartOrGetDirect calls converge on one row.
type Store struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
	users         *mongo.Collection
	notifications *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
		users:         db.Collection("users"),
		notifications: db.Collection("notifications"),
	}
}

// wrapErr translates driver failures into the shared taxonomy. Timeouts and
// network drops surface as ErrTransientStore so the pipeline can retry once.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%s: %w", op, chat.ErrTransientStore)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) StartOrGetDirect(ctx context.Context, userA, userB string) (*models.Conversation, bool, error) {
	key := models.DirectPairKey(userA, userB)
	now := time.Now().UTC()

	// Upsert guarded by the unique pairKey index: the loser of a create
	// race reads the winner's row instead of inserting a duplicate.
	filter := bson.M{"pairKey": key, "kind": models.ConversationDirect}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          uuid.NewString(),
		"kind":         models.ConversationDirect,
		"participants": []string{userA, userB},
		"pairKey":      key,
		"isActive":     true,
		"createdAt":    now,
	}}

	res, err := s.conversations.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	created := false
	switch {
	case err == nil:
		created = res.UpsertedCount == 1
	case mongo.IsDuplicateKeyError(err):
		// Lost the upsert race; the winner's row exists now.
	default:
		return nil, false, wrapErr("start or get direct conversation", err)
	}

	var conv models.Conversation
	if err := s.conversations.FindOne(ctx, filter).Decode(&conv); err != nil {
		return nil, false, wrapErr("start or get direct conversation", err)
	}
	return &conv, created, nil
}

func (s *Store) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	_, err := s.conversations.InsertOne(ctx, conv)
	return wrapErr("create conversation", err)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		return nil, wrapErr("get conversation", err)
	}
	return &conv, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	filter := bson.M{"participants": userID, "isActive": true}
	opts := options.Find().SetSort(bson.D{{Key: "lastMessage.sentAt", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := s.conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr("list conversations", err)
	}
	defer cursor.Close(ctx)

	var out []models.Conversation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr("decode conversations", err)
	}
	return out, nil
}

func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	count, err := s.conversations.CountDocuments(ctx, bson.M{
		"_id":          conversationID,
		"participants": userID,
		"isActive":     true,
	})
	if err != nil {
		return false, wrapErr("check participant", err)
	}
	return count > 0, nil
}

func (s *Store) SetLastMessage(ctx context.Context, conversationID string, last models.LastMessage) error {
	res, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"lastMessage": last}},
	)
	if err != nil {
		return wrapErr("set last message", err)
	}
	if res.MatchedCount == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.messages.InsertOne(ctx, msg)
	return wrapErr("insert message", err)
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := s.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		return nil, wrapErr("get message", err)
	}
	return &msg, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.messages.Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, wrapErr("list messages", err)
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, wrapErr("decode messages", err)
	}

	// Reverse for chronological order inside the page (oldest first).
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.messages.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr("delete message", err)
	}
	if res.DeletedCount == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (s *Store) MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	res, err := s.messages.UpdateMany(ctx,
		bson.M{
			"conversationId": conversationID,
			"senderId":       bson.M{"$ne": readerID},
			"isRead":         false,
		},
		bson.M{"$set": bson.M{"isRead": true, "readAt": at}},
	)
	if err != nil {
		return 0, wrapErr("mark conversation read", err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int64, error) {
	cursor, err := s.conversations.Find(ctx,
		bson.M{"participants": userID, "isActive": true},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return 0, wrapErr("unread count conversations", err)
	}
	defer cursor.Close(ctx)

	var ids []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &ids); err != nil {
		return 0, wrapErr("decode conversation ids", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	convIDs := make([]string, len(ids))
	for i, c := range ids {
		convIDs[i] = c.ID
	}

	count, err := s.messages.CountDocuments(ctx, bson.M{
		"conversationId": bson.M{"$in": convIDs},
		"senderId":       bson.M{"$ne": userID},
		"isRead":         false,
	})
	if err != nil {
		return 0, wrapErr("unread count", err)
	}
	return count, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return &u, nil
}

func (s *Store) SearchUsers(ctx context.Context, query, excludeUserID string) ([]models.User, error) {
	filter := bson.M{"_id": bson.M{"$ne": excludeUserID}}
	if query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": query, "$options": "i"}},
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(20)
	cursor, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr("search users", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, wrapErr("decode users", err)
	}
	return users, nil
}

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.notifications.InsertOne(ctx, n)
	return wrapErr("insert notification", err)
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100)
	cursor, err := s.notifications.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, wrapErr("list notifications", err)
	}
	defer cursor.Close(ctx)

	var out []models.Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr("decode notifications", err)
	}
	return out, nil
}

func (s *Store) MarkNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := s.notifications.UpdateMany(ctx,
		bson.M{"userId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": at}},
	)
	if err != nil {
		return 0, wrapErr("mark notifications read", err)
	}
	return res.ModifiedCount, nil
}
