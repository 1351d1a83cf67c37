// Package notifsvc is the notification dispatch engine: creation with audience fan-out,
// feeds, read state and administrator operations
package notifsvc

import (
	"context"
	"strings"
	"time"

	authmodels "tamil_society/internal/api/auth/models"
	basemodels "tamil_society/internal/api/base/models"
	notifdto "tamil_society/internal/api/notification/dto"
	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/common"
	"tamil_society/internal/global"
	"tamil_society/internal/logger"
	"tamil_society/internal/notification"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Feed page size bounds
const (
	DefaultFeedLimit int64 = 20
	MaxFeedLimit     int64 = 100
)

// Dispatcher hands created records to the delivery worker without waiting
type Dispatcher interface {
	Dispatch(records []*notifmodels.Notification)
}

// AssetRemover discards the uploaded files of a notification
type AssetRemover interface {
	RemoveNotificationAssets(notificationID string) error
}

// Options wires the collaborators of NotificationService. Dispatcher, Assets and Logs may be nil.
type Options struct {
	Store         Store
	Directory     notification.Directory
	Dispatcher    Dispatcher
	Assets        AssetRemover
	Logs          DeliveryLogReader
	FanOutWorkers int
}

// NotificationService implements the notification operations used by the HTTP handlers
// and by other platform modules
type NotificationService struct {
	store         Store
	resolver      *notification.Resolver
	dispatcher    Dispatcher
	assets        AssetRemover
	logs          DeliveryLogReader
	fanOutWorkers int
	now           func() time.Time
}

// NewNotificationService creates the service
func NewNotificationService(opts Options) *NotificationService {
	workers := opts.FanOutWorkers
	if workers < 1 {
		workers = 16
	}
	return &NotificationService{
		store:         opts.Store,
		resolver:      notification.NewResolver(opts.Directory),
		dispatcher:    opts.Dispatcher,
		assets:        opts.Assets,
		logs:          opts.Logs,
		fanOutWorkers: workers,
		now:           time.Now,
	}
}

func serviceLog() *logrus.Entry {
	return logger.WithModule("notification")
}

// CreateResult is what Create materialized. Single is set for a direct or
// single-recipient specific notification; the API then returns one record instead of a list.
type CreateResult struct {
	Records []*notifmodels.Notification
	Single  bool
}

// Data returns the response payload: one record or the list
func (r *CreateResult) Data() interface{} {
	if r.Single && len(r.Records) == 1 {
		return r.Records[0]
	}
	return r.Records
}

// Create validates input, resolves its audience and stores one record per recipient.
// Records that fail to store are logged and left out. Email delivery is dispatched
// in the background and never affects the result. issuer nil means a system event.
func (s *NotificationService) Create(ctx context.Context, input *notifdto.CreateNotificationInput, issuer *authmodels.User) (*CreateResult, error) {
	if err := global.ValidateStruct(input); err != nil {
		return nil, err
	}

	template, err := s.buildTemplate(input, issuer)
	if err != nil {
		return nil, err
	}

	// Direct recipient: no audience resolution
	if input.RecipientRef != "" {
		recipientID, err := primitive.ObjectIDFromHex(input.RecipientRef)
		if err != nil {
			return nil, common.WithDetails(common.ErrInvalidID, map[string]string{"recipientRef": input.RecipientRef})
		}
		n := newRecord(template, recipientID)
		created, err := s.store.Create(ctx, n)
		if err != nil {
			return nil, err
		}
		s.dispatch([]*notifmodels.Notification{created})
		return &CreateResult{Records: []*notifmodels.Notification{created}, Single: true}, nil
	}

	users, err := s.resolver.Resolve(ctx, template.TargetAudience, input.Recipients)
	if err != nil {
		return nil, err
	}

	records := s.fanOut(ctx, template, users)
	s.dispatch(records)

	serviceLog().WithFields(logrus.Fields{
		"audience":  template.TargetAudience,
		"resolved":  len(users),
		"created":   len(records),
		"sendEmail": template.SendEmail,
	}).Info("🔔 [NOTIFICATION] Notification created")

	single := template.TargetAudience == notification.AudienceSpecific && countDistinct(input.Recipients) == 1
	return &CreateResult{Records: records, Single: single}, nil
}

// buildTemplate applies defaults and the checks that need more than field tags
func (s *NotificationService) buildTemplate(input *notifdto.CreateNotificationInput, issuer *authmodels.User) (*notifmodels.Notification, error) {
	if input.Title.IsEmpty() || input.Message.IsEmpty() {
		return nil, common.NewValidationError("Title and message need text in at least one language", map[string]string{
			"title":   "bilingual",
			"message": "bilingual",
		})
	}

	nowMs := s.now().UnixMilli()
	n := &notifmodels.Notification{
		Title:          input.Title,
		Message:        input.Message,
		Type:           input.Type,
		Priority:       input.Priority,
		TargetAudience: input.TargetAudience,
		StartAt:        nowMs,
		EndAt:          input.EndAt,
		SendEmail:      input.SendEmail,
		ActionURL:      strings.TrimSpace(input.ActionURL),
		ActionText:     strings.TrimSpace(input.ActionText),
		ImageURL:       strings.TrimSpace(input.ImageURL),
		Tags:           input.Tags,
		Details:        input.Details,
		CreatedAt:      nowMs,
		UpdatedAt:      nowMs,
	}
	if n.Type == "" {
		n.Type = notification.DefaultType
	}
	if n.Priority == "" {
		n.Priority = notification.DefaultPriority
	}
	n.PriorityRank = notification.PriorityRank(n.Priority)

	switch {
	case input.RecipientRef != "":
		n.TargetAudience = notification.AudienceSpecific
	case n.TargetAudience == "" && len(input.Recipients) > 0:
		n.TargetAudience = notification.AudienceSpecific
	case n.TargetAudience == "":
		n.TargetAudience = notification.AudienceAll
	}

	if input.StartAt != nil {
		n.StartAt = *input.StartAt
	}
	if n.EndAt != nil && *n.EndAt < n.StartAt {
		return nil, common.NewValidationError("endAt must not be before startAt", map[string]int64{
			"startAt": n.StartAt,
			"endAt":   *n.EndAt,
		})
	}

	if issuer != nil {
		id := issuer.ID
		n.CreatedBy = &id
	}
	return n, nil
}

func newRecord(template *notifmodels.Notification, recipientID primitive.ObjectID) *notifmodels.Notification {
	n := *template
	n.ID = primitive.NewObjectID()
	n.RecipientRef = &recipientID
	if template.Tags != nil {
		n.Tags = append([]string(nil), template.Tags...)
	}
	return &n
}

// fanOut creates one record per user with bounded concurrency.
// The result keeps resolution order; failed inserts are logged and dropped.
func (s *NotificationService) fanOut(ctx context.Context, template *notifmodels.Notification, users []authmodels.User) []*notifmodels.Notification {
	created := make([]*notifmodels.Notification, len(users))

	var g errgroup.Group
	g.SetLimit(s.fanOutWorkers)
	for i := range users {
		g.Go(func() error {
			n, err := s.store.Create(ctx, newRecord(template, users[i].ID))
			if err != nil {
				serviceLog().WithError(err).WithField("recipient_id", users[i].ID.Hex()).
					Warn("🔔 [NOTIFICATION] Could not create record for recipient")
				return nil
			}
			created[i] = n
			return nil
		})
	}
	_ = g.Wait()

	records := make([]*notifmodels.Notification, 0, len(users))
	for _, n := range created {
		if n != nil {
			records = append(records, n)
		}
	}
	return records
}

func (s *NotificationService) dispatch(records []*notifmodels.Notification) {
	if s.dispatcher == nil || len(records) == 0 {
		return
	}
	s.dispatcher.Dispatch(records)
}

func countDistinct(ids []string) int {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			seen[strings.ToLower(id)] = true
		}
	}
	return len(seen)
}

// ListFeed returns the viewer's feed page with an unread count.
// viewer nil is an anonymous visitor. The audit view is for administrators only.
func (s *NotificationService) ListFeed(ctx context.Context, viewer *authmodels.User, query *notifdto.ListFeedQuery) (*notifdto.FeedResult, error) {
	if query == nil {
		query = &notifdto.ListFeedQuery{}
	}
	if err := global.ValidateStruct(query); err != nil {
		return nil, err
	}
	if query.Audit && !viewer.IsAdmin() {
		return nil, common.ErrForbidden
	}

	page, limit := query.Page, query.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	now := s.now()
	feed := notification.FeedQuery{
		Viewer:     viewer,
		Audit:      query.Audit,
		Type:       query.Type,
		Priority:   query.Priority,
		UnreadOnly: query.UnreadOnly,
		Now:        now,
	}

	result, err := s.store.FindFeed(ctx, feed, page, limit)
	if err != nil {
		return nil, err
	}

	var unread int64
	if viewer != nil {
		if unread, err = s.store.CountUnread(ctx, viewer.ID, now); err != nil {
			return nil, err
		}
	}

	lang := query.Lang
	if lang == "" && viewer != nil {
		lang = viewer.LanguagePreference
	}
	lang = notification.ResolveLanguage(lang)

	items := make([]notifdto.FeedItem, 0, len(result.Items))
	for _, n := range result.Items {
		served := *n
		served.Title = notification.WithFallback(n.Title)
		served.Message = notification.WithFallback(n.Message)
		items = append(items, notifdto.FeedItem{
			Notification: &served,
			Display: notifdto.DisplayText{
				Language: lang,
				Title:    notification.Localize(n.Title, lang),
				Message:  notification.Localize(n.Message, lang),
			},
		})
	}

	return &notifdto.FeedResult{
		Items: items,
		Pagination: notifdto.Pagination{
			Page:      result.Page,
			Limit:     result.Limit,
			ItemCount: result.ItemCount,
			Total:     result.Total,
			TotalPage: result.TotalPage,
		},
		UnreadCount: unread,
	}, nil
}

// UnreadCount is computed per request; it is never cached
func (s *NotificationService) UnreadCount(ctx context.Context, viewer *authmodels.User) (int64, error) {
	if viewer == nil {
		return 0, common.ErrTokenMissing
	}
	return s.store.CountUnread(ctx, viewer.ID, s.now())
}

// MarkOneRead marks one of the viewer's records read. Records the viewer cannot see
// are reported as not found.
func (s *NotificationService) MarkOneRead(ctx context.Context, id string, viewer *authmodels.User) (*notifmodels.Notification, error) {
	if viewer == nil {
		return nil, common.ErrTokenMissing
	}
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.store.MarkRead(ctx, objectID, viewer.ID, s.now())
}

// MarkAllRead marks every visible unread record of the viewer
func (s *NotificationService) MarkAllRead(ctx context.Context, viewer *authmodels.User) (int64, error) {
	if viewer == nil {
		return 0, common.ErrTokenMissing
	}
	return s.store.MarkAllRead(ctx, viewer.ID, s.now())
}

// MarkManyRead marks the listed records the viewer owns; other ids are ignored
func (s *NotificationService) MarkManyRead(ctx context.Context, ids []string, viewer *authmodels.User) (int64, error) {
	if viewer == nil {
		return 0, common.ErrTokenMissing
	}
	if err := global.ValidateStruct(&notifdto.MarkManyInput{IDs: ids}); err != nil {
		return 0, err
	}

	seen := make(map[primitive.ObjectID]bool, len(ids))
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, raw := range ids {
		id, err := parseID(raw)
		if err != nil {
			return 0, err
		}
		if !seen[id] {
			seen[id] = true
			objectIDs = append(objectIDs, id)
		}
	}
	return s.store.MarkManyRead(ctx, objectIDs, viewer.ID, s.now())
}

// Delete removes a record and its uploaded assets. Administrators only.
func (s *NotificationService) Delete(ctx context.Context, id string, admin *authmodels.User) error {
	if !admin.IsAdmin() {
		return common.ErrForbidden
	}
	objectID, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, objectID); err != nil {
		return err
	}

	if s.assets != nil {
		if err := s.assets.RemoveNotificationAssets(objectID.Hex()); err != nil {
			serviceLog().WithError(err).WithField("notification_id", objectID.Hex()).
				Warn("🔔 [NOTIFICATION] Could not remove notification assets")
		}
	}
	return nil
}

// DeliveryLogs lists the email outcomes of one record. Administrators only.
func (s *NotificationService) DeliveryLogs(ctx context.Context, id string, admin *authmodels.User, page, limit int64) (*basemodels.PaginateResult[notifmodels.DeliveryLog], error) {
	if !admin.IsAdmin() {
		return nil, common.ErrForbidden
	}
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if s.logs == nil {
		return basemodels.NewPaginateResult[notifmodels.DeliveryLog](nil, 1, limit, 0), nil
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxFeedLimit {
		limit = DefaultFeedLimit
	}
	return s.logs.FindByNotification(ctx, objectID, page, limit)
}

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, common.WithDetails(common.ErrInvalidID, map[string]string{"id": raw})
	}
	return id, nil
}
