package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Delivery outcome statuses
const (
	DeliveryStatusSent    = "sent"
	DeliveryStatusSkipped = "skipped"
	DeliveryStatusFailed  = "failed"
)

// DeliveryLog - outcome of one email attempt for one recipient of a notification
type DeliveryLog struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	NotificationID primitive.ObjectID `json:"notificationId" bson:"notificationId" index:"compound:notification_created"`
	RecipientID    primitive.ObjectID `json:"recipientId" bson:"recipientId" index:"single:1"`
	Email          string             `json:"email,omitempty" bson:"email,omitempty"`
	Template       string             `json:"template,omitempty" bson:"template,omitempty"`
	Language       string             `json:"language,omitempty" bson:"language,omitempty"`
	Status         string             `json:"status" bson:"status" index:"single:1"`     // sent, skipped, failed
	Reason         string             `json:"reason,omitempty" bson:"reason,omitempty"` // Why a recipient was skipped
	Error          string             `json:"error,omitempty" bson:"error,omitempty"`
	DurationMs     int64              `json:"durationMs" bson:"durationMs"`
	CreatedAt      int64              `json:"createdAt" bson:"createdAt" index:"compound:notification_created,order:-1;ttl:7776000"`
}
