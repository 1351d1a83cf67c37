// Package notifdto holds the request and response shapes of the notification API
package notifdto

import (
	notifmodels "tamil_society/internal/api/notification/models"
)

// CreateNotificationInput is the body of POST /notifications and the in-process create call.
//
// Either RecipientRef (one direct recipient, no audience semantics) or TargetAudience
// is used. Recipients is required when TargetAudience is specific.
type CreateNotificationInput struct {
	Title          notifmodels.LocalizedText        `json:"title" validate:"bilingual"`
	Message        notifmodels.LocalizedText        `json:"message" validate:"bilingual"`
	Type           string                           `json:"type" validate:"omitempty,notif_type"`
	Priority       string                           `json:"priority" validate:"omitempty,notif_priority"`
	TargetAudience string                           `json:"targetAudience" validate:"omitempty,notif_audience"`
	Recipients     []string                         `json:"recipients" validate:"omitempty,max=5000"`
	RecipientRef   string                           `json:"recipientRef" validate:"omitempty,mongodb"`
	StartAt        *int64                           `json:"startAt"`
	EndAt          *int64                           `json:"endAt"`
	SendEmail      bool                             `json:"sendEmail"`
	ActionURL      string                           `json:"actionUrl" validate:"omitempty,max=2048,no_xss"`
	ActionText     string                           `json:"actionText" validate:"omitempty,max=100,no_xss"`
	ImageURL       string                           `json:"imageUrl" validate:"omitempty,max=2048,no_xss"`
	Tags           []string                         `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Details        *notifmodels.NotificationDetails `json:"details"`
}

// ListFeedQuery is the query string of GET /notifications
type ListFeedQuery struct {
	Page       int64  `json:"page" query:"page" validate:"omitempty,min=1"`
	Limit      int64  `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Type       string `json:"type" query:"type" validate:"omitempty,notif_type"`
	Priority   string `json:"priority" query:"priority" validate:"omitempty,notif_priority"`
	UnreadOnly bool   `json:"unreadOnly" query:"unreadOnly"`
	Audit      bool   `json:"audit" query:"audit"`
	Lang       string `json:"lang" query:"lang" validate:"omitempty,lang"`
}

// MarkManyInput is the body of PUT /notifications/read-many
type MarkManyInput struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500"`
}

// DisplayText is the title and message in the language the viewer reads
type DisplayText struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// FeedItem is one record as served in a feed
type FeedItem struct {
	*notifmodels.Notification
	Display DisplayText `json:"display"`
}

// Pagination metadata of a feed page
type Pagination struct {
	Page      int64 `json:"page"`
	Limit     int64 `json:"limit"`
	ItemCount int64 `json:"itemCount"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// FeedResult is the response of GET /notifications
type FeedResult struct {
	Items       []FeedItem `json:"items"`
	Pagination  Pagination `json:"pagination"`
	UnreadCount int64      `json:"unreadCount"`
}

// CountResult wraps a count in the response data
type CountResult struct {
	Count int64 `json:"count"`
}

// MarkedResult reports how many records a bulk mark changed
type MarkedResult struct {
	Modified int64 `json:"modified"`
}
