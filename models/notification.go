package models

import "time"

// Notification types produced by the rest of the portal. The messaging core
// never originates these, it only persists and fans them out.
const (
	NotificationRequestAssigned = "request_assigned"
	NotificationRequestApproved = "request_approved"
	NotificationRequestRejected = "request_rejected"
	NotificationDonationMatched = "donation_matched"
	NotificationInventoryAlert  = "inventory_alert"
	NotificationMessagePreview  = "message_preview"
)

type Notification struct {
	ID          string     `bson:"_id" json:"id"`
	UserID      string     `bson:"userId" json:"userId"`
	Type        string     `bson:"type" json:"type"`
	Title       string     `bson:"title" json:"title"`
	Message     string     `bson:"message" json:"message"`
	RelatedID   string     `bson:"relatedId,omitempty" json:"relatedId,omitempty"`
	RelatedType string     `bson:"relatedType,omitempty" json:"relatedType,omitempty"`
	IsRead      bool       `bson:"isRead" json:"isRead"`
	ReadAt      *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
}

func ValidNotificationType(t string) bool {
	switch t {
	case NotificationRequestAssigned, NotificationRequestApproved,
		NotificationRequestRejected, NotificationDonationMatched,
		NotificationInventoryAlert, NotificationMessagePreview:
		return true
	}
	return false
}
