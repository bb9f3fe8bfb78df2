package chat

import (
	"context"
	"fmt"
	"time"

	"bloodlink/models"
	"bloodlink/store"

	"github.com/google/uuid"
)

// Notifier pushes system notifications from the rest of the portal into a
// user's personal room. The persisted row is the source of truth; the
// socket push is best-effort.
type Notifier struct {
	store store.Store
	gw    Broadcaster
}

func NewNotifier(st store.Store, gw Broadcaster) *Notifier {
	return &Notifier{store: st, gw: gw}
}

// Create persists a notification and pushes it. If the user has no live
// connection the push is simply skipped; they reconcile over REST.
func (n *Notifier) Create(ctx context.Context, notif *models.Notification) (*models.Notification, error) {
	if notif.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if !models.ValidNotificationType(notif.Type) {
		return nil, fmt.Errorf("%w: unknown notification type %q", ErrValidation, notif.Type)
	}
	if notif.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	notif.ID = uuid.NewString()
	notif.IsRead = false
	notif.ReadAt = nil
	notif.CreatedAt = time.Now().UTC()

	if err := n.store.InsertNotification(ctx, notif); err != nil {
		return nil, err
	}

	n.Push(notif.UserID, notif)
	return notif, nil
}

// Push delivers an already-persisted notification to the personal room.
func (n *Notifier) Push(userID string, notif *models.Notification) {
	n.gw.Broadcast(models.UserRoom(userID), models.EventNotification, models.NotificationEvent{
		Notification: notif,
	})
}
