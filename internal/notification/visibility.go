package notification

import (
	"time"

	authmodels "tamil_society/internal/api/auth/models"
	notifmodels "tamil_society/internal/api/notification/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedQuery describes what a viewer asks of the record store.
// Viewer nil means anonymous. Audit is only honoured for admins.
type FeedQuery struct {
	Viewer     *authmodels.User
	Audit      bool
	Type       string
	Priority   string
	UnreadOnly bool
	Now        time.Time
}

// broadcastAudiences returns the legacy broadcast audiences a viewer may see
func broadcastAudiences(viewer *authmodels.User) []string {
	switch {
	case viewer == nil:
		return []string{AudienceAll}
	case viewer.IsAdmin():
		return []string{AudienceAll, AudienceAdmins}
	default:
		return []string{AudienceAll, AudienceMembers}
	}
}

func (q FeedQuery) auditView() bool {
	return q.Audit && q.Viewer.IsAdmin()
}

// windowFilter matches records whose visibility window contains now
func windowFilter(now time.Time) bson.M {
	ms := now.UnixMilli()
	return bson.M{"$and": bson.A{
		bson.M{"startAt": bson.M{"$lte": ms}},
		bson.M{"$or": bson.A{
			bson.M{"endAt": nil},
			bson.M{"endAt": bson.M{"$gt": ms}},
		}},
	}}
}

// Filter builds the MongoDB filter for the query
func (q FeedQuery) Filter() bson.M {
	clauses := bson.A{}

	if !q.auditView() {
		clauses = append(clauses, windowFilter(q.Now), q.audienceFilter())
	}

	if q.Type != "" {
		clauses = append(clauses, bson.M{"type": q.Type})
	}
	if q.Priority != "" {
		clauses = append(clauses, bson.M{"priority": q.Priority})
	}
	if q.UnreadOnly {
		clauses = append(clauses, bson.M{"isRead": false})
	}

	if len(clauses) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": clauses}
}

// audienceFilter matches the viewer's own records and, outside unread-only views, the
// legacy broadcasts they qualify for. Broadcasts have no per-viewer read state, so an
// unread-only view never lists them and agrees with the unread count.
func (q FeedQuery) audienceFilter() bson.M {
	broadcast := bson.M{
		"recipientRef":   nil,
		"targetAudience": bson.M{"$in": broadcastAudiences(q.Viewer)},
	}
	switch {
	case q.Viewer == nil && q.UnreadOnly:
		return bson.M{"_id": bson.M{"$in": bson.A{}}}
	case q.Viewer == nil:
		return broadcast
	case q.UnreadOnly:
		return bson.M{"recipientRef": q.Viewer.ID}
	default:
		return bson.M{"$or": bson.A{
			bson.M{"recipientRef": q.Viewer.ID},
			broadcast,
		}}
	}
}

// Sort returns the ordering: newest first for the audit view,
// priority then recency for personal feeds
func (q FeedQuery) Sort() bson.D {
	if q.auditView() {
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
	return bson.D{
		{Key: "priorityRank", Value: -1},
		{Key: "startAt", Value: -1},
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	}
}

// Matches is the in-process equivalent of Filter
func (q FeedQuery) Matches(n *notifmodels.Notification) bool {
	if !q.auditView() {
		if !InWindow(n, q.Now) {
			return false
		}
		if !audienceMatches(n, q.Viewer) {
			return false
		}
		if q.UnreadOnly && n.RecipientRef == nil {
			return false
		}
	}
	if q.Type != "" && n.Type != q.Type {
		return false
	}
	if q.Priority != "" && n.Priority != q.Priority {
		return false
	}
	if q.UnreadOnly && n.IsRead {
		return false
	}
	return true
}

// InWindow reports whether now lies in [startAt, endAt)
func InWindow(n *notifmodels.Notification, now time.Time) bool {
	ms := now.UnixMilli()
	if n.StartAt > ms {
		return false
	}
	return n.EndAt == nil || *n.EndAt > ms
}

func audienceMatches(n *notifmodels.Notification, viewer *authmodels.User) bool {
	if n.RecipientRef != nil {
		return viewer != nil && *n.RecipientRef == viewer.ID
	}
	for _, a := range broadcastAudiences(viewer) {
		if n.TargetAudience == a {
			return true
		}
	}
	return false
}

// OwnedFilter matches the records a viewer may mutate: bound to the viewer and inside their window.
// Legacy broadcast documents carry no per-viewer read state and are excluded.
func OwnedFilter(viewerID primitive.ObjectID, now time.Time) bson.M {
	return bson.M{"$and": bson.A{
		bson.M{"recipientRef": viewerID},
		windowFilter(now),
	}}
}

// IsOwnedBy is the in-process equivalent of OwnedFilter
func IsOwnedBy(n *notifmodels.Notification, viewerID primitive.ObjectID, now time.Time) bool {
	return n.RecipientRef != nil && *n.RecipientRef == viewerID && InWindow(n, now)
}

// UnreadQuery is the unread-only feed of a viewer; its size is the unread count
func UnreadQuery(viewerID primitive.ObjectID, now time.Time) FeedQuery {
	return FeedQuery{Viewer: &authmodels.User{ID: viewerID}, UnreadOnly: true, Now: now}
}

// UnreadFilter matches the owned, unread records counted as the viewer's unread total
func UnreadFilter(viewerID primitive.ObjectID, now time.Time) bson.M {
	return UnreadQuery(viewerID, now).Filter()
}
