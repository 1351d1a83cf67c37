package notifsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	basemodels "tamil_society/internal/api/base/models"
	basesvc "tamil_society/internal/api/base/service"
	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/common"
	"tamil_society/internal/global"
	"tamil_society/internal/notification"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the notification record store
type Store interface {
	Create(ctx context.Context, n *notifmodels.Notification) (*notifmodels.Notification, error)
	FindById(ctx context.Context, id primitive.ObjectID) (*notifmodels.Notification, error)
	FindFeed(ctx context.Context, q notification.FeedQuery, page, limit int64) (*basemodels.PaginateResult[*notifmodels.Notification], error)
	CountUnread(ctx context.Context, viewerID primitive.ObjectID, now time.Time) (int64, error)
	// MarkRead marks one owned record read; an already-read record is returned unchanged
	MarkRead(ctx context.Context, id, viewerID primitive.ObjectID, now time.Time) (*notifmodels.Notification, error)
	MarkAllRead(ctx context.Context, viewerID primitive.ObjectID, now time.Time) (int64, error)
	MarkManyRead(ctx context.Context, ids []primitive.ObjectID, viewerID primitive.ObjectID, now time.Time) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	MarkEmailSent(ctx context.Context, id primitive.ObjectID, at int64) (bool, error)
	FindPendingEmail(ctx context.Context, createdBefore int64, limit int64) ([]*notifmodels.Notification, error)
}

// NotificationStore is the MongoDB Store
type NotificationStore struct {
	*basesvc.BaseServiceMongoImpl[notifmodels.Notification]
}

// NewNotificationStore uses the registered notifications collection
func NewNotificationStore() (*NotificationStore, error) {
	collection, err := global.RegistryCollections.MustGet(global.MongoDB_ColNames.Notifications)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications collection: %w", err)
	}
	return NewNotificationStoreWithCollection(collection), nil
}

// NewNotificationStoreWithCollection wraps an explicit collection
func NewNotificationStoreWithCollection(collection *mongo.Collection) *NotificationStore {
	return &NotificationStore{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.Notification](collection),
	}
}

// Create inserts n and returns the stored record
func (s *NotificationStore) Create(ctx context.Context, n *notifmodels.Notification) (*notifmodels.Notification, error) {
	created, err := s.InsertOne(ctx, *n)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FindById returns one record
func (s *NotificationStore) FindById(ctx context.Context, id primitive.ObjectID) (*notifmodels.Notification, error) {
	n, err := s.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// FindFeed returns one page of the records q selects, in q's order
func (s *NotificationStore) FindFeed(ctx context.Context, q notification.FeedQuery, page, limit int64) (*basemodels.PaginateResult[*notifmodels.Notification], error) {
	result, err := s.FindWithPagination(ctx, q.Filter(), page, limit, options.Find().SetSort(q.Sort()))
	if err != nil {
		return nil, err
	}

	items := make([]*notifmodels.Notification, len(result.Items))
	for i := range result.Items {
		items[i] = &result.Items[i]
	}
	return basemodels.NewPaginateResult(items, result.Page, result.Limit, result.Total), nil
}

// CountUnread counts the viewer's owned, visible, unread records
func (s *NotificationStore) CountUnread(ctx context.Context, viewerID primitive.ObjectID, now time.Time) (int64, error) {
	return s.CountDocuments(ctx, notification.UnreadFilter(viewerID, now))
}

func readUpdate(now time.Time) *basesvc.UpdateData {
	return &basesvc.UpdateData{Set: map[string]interface{}{
		"isRead": true,
		"readAt": now.UnixMilli(),
	}}
}

// MarkRead flips isRead only on an unread owned record, so a second call keeps the first readAt
func (s *NotificationStore) MarkRead(ctx context.Context, id, viewerID primitive.ObjectID, now time.Time) (*notifmodels.Notification, error) {
	owned := notification.OwnedFilter(viewerID, now)
	owned["_id"] = id

	unread := notification.UnreadFilter(viewerID, now)
	unread["_id"] = id

	updated, err := s.FindOneAndUpdate(ctx, unread, readUpdate(now), nil)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	existing, err := s.FindOne(ctx, owned, nil)
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// MarkAllRead marks every owned, visible, unread record
func (s *NotificationStore) MarkAllRead(ctx context.Context, viewerID primitive.ObjectID, now time.Time) (int64, error) {
	return s.UpdateMany(ctx, notification.UnreadFilter(viewerID, now), readUpdate(now), nil)
}

// MarkManyRead marks the listed records that are owned, visible and unread; others are ignored
func (s *NotificationStore) MarkManyRead(ctx context.Context, ids []primitive.ObjectID, viewerID primitive.ObjectID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter := notification.UnreadFilter(viewerID, now)
	filter["_id"] = bson.M{"$in": ids}
	return s.UpdateMany(ctx, filter, readUpdate(now), nil)
}

// Delete removes one record
func (s *NotificationStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.DeleteById(ctx, id)
}

// MarkEmailSent sets emailSentAt if it is still absent
func (s *NotificationStore) MarkEmailSent(ctx context.Context, id primitive.ObjectID, at int64) (bool, error) {
	result, err := s.Collection().UpdateOne(ctx,
		bson.M{"_id": id, "emailSentAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"emailSentAt": at, "updatedAt": at}},
	)
	if err != nil {
		return false, common.ConvertMongoError(err)
	}
	return result.ModifiedCount == 1, nil
}

// FindPendingEmail returns records that asked for email, were never marked sent
// and were created before createdBefore, oldest first
func (s *NotificationStore) FindPendingEmail(ctx context.Context, createdBefore int64, limit int64) ([]*notifmodels.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)
	found, err := s.Find(ctx, bson.M{
		"sendEmail":   true,
		"emailSentAt": bson.M{"$exists": false},
		"createdAt":   bson.M{"$lt": createdBefore},
	}, opts)
	if err != nil {
		return nil, err
	}

	out := make([]*notifmodels.Notification, len(found))
	for i := range found {
		out[i] = &found[i]
	}
	return out, nil
}
