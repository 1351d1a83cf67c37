// Package models - notification documents, one per resolved recipient.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocalizedText is an English/Tamil pair. Either side may be empty; readers fall back to the other.
type LocalizedText struct {
	En string `json:"en" bson:"en"`
	Ta string `json:"ta" bson:"ta"`
}

// IsEmpty reports whether both languages are blank
func (t LocalizedText) IsEmpty() bool {
	return isBlank(t.En) && isBlank(t.Ta)
}

// NotificationDetails carries structured event fields used by templates
// (e.g. the member name and position of a team-created event)
type NotificationDetails struct {
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	Position string `json:"position,omitempty" bson:"position,omitempty"`
	Status   string `json:"status,omitempty" bson:"status,omitempty"`
}

// Notification - one record per resolved recipient.
// RecipientRef is null only on legacy broadcast documents (audience all/members).
// Timestamps are unix milliseconds.
type Notification struct {
	ID             primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	RecipientRef   *primitive.ObjectID  `json:"recipientRef" bson:"recipientRef" index:"compound:recipient_window;compound:recipient_unread"`
	Title          LocalizedText        `json:"title" bson:"title"`
	Message        LocalizedText        `json:"message" bson:"message"`
	Type           string               `json:"type" bson:"type" index:"single:1"`
	Priority       string               `json:"priority" bson:"priority"`
	PriorityRank   int                  `json:"-" bson:"priorityRank" index:"compound:feed_order,order:-1"` // low=1 .. urgent=4, sort key
	TargetAudience string               `json:"targetAudience" bson:"targetAudience" index:"single:1"`
	StartAt        int64                `json:"startAt" bson:"startAt" index:"compound:recipient_window"`
	EndAt          *int64               `json:"endAt,omitempty" bson:"endAt,omitempty"`
	IsRead         bool                 `json:"isRead" bson:"isRead" index:"compound:recipient_unread"`
	ReadAt         *int64               `json:"readAt,omitempty" bson:"readAt,omitempty"`
	SendEmail      bool                 `json:"sendEmail" bson:"sendEmail" index:"compound:pending_email"`
	EmailSentAt    *int64               `json:"emailSentAt,omitempty" bson:"emailSentAt,omitempty"` // Set once by the delivery worker
	ActionURL      string               `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
	ActionText     string               `json:"actionText,omitempty" bson:"actionText,omitempty"`
	ImageURL       string               `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Tags           []string             `json:"tags,omitempty" bson:"tags,omitempty" index:"single:1"`
	Details        *NotificationDetails `json:"details,omitempty" bson:"details,omitempty"`
	CreatedBy      *primitive.ObjectID  `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt      int64                `json:"createdAt" bson:"createdAt" index:"compound:feed_order,order:-1;compound:pending_email;single:1,order:-1"`
	UpdatedAt      int64                `json:"updatedAt" bson:"updatedAt"`
}

// IsBroadcast reports whether the record is a legacy document not bound to a recipient
func (n *Notification) IsBroadcast() bool {
	return n.RecipientRef == nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
