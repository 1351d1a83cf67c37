// Package notiftest provides an in-memory notification store for tests.
package notiftest

import (
	"context"
	"sort"
	"sync"
	"time"

	basemodels "tamil_society/internal/api/base/models"
	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/common"
	"tamil_society/internal/notification"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store keeps notification records in process memory and applies the same
// visibility rules as the MongoDB store.
type Store struct {
	mu      sync.RWMutex
	records map[primitive.ObjectID]*notifmodels.Notification
	order   []primitive.ObjectID

	// FailFor makes Create fail for the given recipients
	FailFor map[primitive.ObjectID]error
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{
		records: make(map[primitive.ObjectID]*notifmodels.Notification),
		FailFor: make(map[primitive.ObjectID]error),
	}
}

func clone(n *notifmodels.Notification) *notifmodels.Notification {
	c := *n
	return &c
}

// Create stores a copy of n
func (s *Store) Create(ctx context.Context, n *notifmodels.Notification) (*notifmodels.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.RecipientRef != nil {
		if err, ok := s.FailFor[*n.RecipientRef]; ok {
			return nil, err
		}
	}
	stored := clone(n)
	if stored.ID.IsZero() {
		stored.ID = primitive.NewObjectID()
	}
	if _, exists := s.records[stored.ID]; exists {
		return nil, common.ErrDuplicate
	}
	s.records[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	return clone(stored), nil
}

// FindById returns a copy of one record
func (s *Store) FindById(ctx context.Context, id primitive.ObjectID) (*notifmodels.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(n), nil
}

// All returns copies of every record in insertion order
func (s *Store) All() []*notifmodels.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*notifmodels.Notification, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.records[id]))
	}
	return out
}

// FindFeed applies q.Matches and q.Sort in memory
func (s *Store) FindFeed(ctx context.Context, q notification.FeedQuery, page, limit int64) (*basemodels.PaginateResult[*notifmodels.Notification], error) {
	matched := make([]*notifmodels.Notification, 0)
	for _, n := range s.All() {
		if q.Matches(n) {
			matched = append(matched, n)
		}
	}
	sortRecords(matched, q.Sort())

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return basemodels.NewPaginateResult(matched[start:end], page, limit, total), nil
}

func sortKey(n *notifmodels.Notification, field string) int64 {
	switch field {
	case "priorityRank":
		return int64(n.PriorityRank)
	case "startAt":
		return n.StartAt
	case "createdAt":
		return n.CreatedAt
	}
	return 0
}

func sortRecords(records []*notifmodels.Notification, order bson.D) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, e := range order {
			desc := e.Value == -1
			if e.Key == "_id" {
				a, b := records[i].ID.Hex(), records[j].ID.Hex()
				if a == b {
					continue
				}
				return (a > b) == desc
			}
			a, b := sortKey(records[i], e.Key), sortKey(records[j], e.Key)
			if a == b {
				continue
			}
			return (a > b) == desc
		}
		return false
	})
}

// CountUnread counts the records of the viewer's unread-only feed
func (s *Store) CountUnread(ctx context.Context, viewerID primitive.ObjectID, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := notification.UnreadQuery(viewerID, now)
	var count int64
	for _, n := range s.records {
		if q.Matches(n) {
			count++
		}
	}
	return count, nil
}

func markRead(n *notifmodels.Notification, now time.Time) bool {
	if n.IsRead {
		return false
	}
	at := now.UnixMilli()
	n.IsRead = true
	n.ReadAt = &at
	n.UpdatedAt = at
	return true
}

// MarkRead marks one owned record read
func (s *Store) MarkRead(ctx context.Context, id, viewerID primitive.ObjectID, now time.Time) (*notifmodels.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.records[id]
	if !ok || !notification.IsOwnedBy(n, viewerID, now) {
		return nil, common.ErrNotFound
	}
	markRead(n, now)
	return clone(n), nil
}

// MarkAllRead marks every owned, visible, unread record
func (s *Store) MarkAllRead(ctx context.Context, viewerID primitive.ObjectID, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	for _, n := range s.records {
		if notification.IsOwnedBy(n, viewerID, now) && markRead(n, now) {
			modified++
		}
	}
	return modified, nil
}

// MarkManyRead marks the listed owned records
func (s *Store) MarkManyRead(ctx context.Context, ids []primitive.ObjectID, viewerID primitive.ObjectID, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	for _, id := range ids {
		n, ok := s.records[id]
		if ok && notification.IsOwnedBy(n, viewerID, now) && markRead(n, now) {
			modified++
		}
	}
	return modified, nil
}

// Delete removes one record
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// MarkEmailSent sets emailSentAt if it is still absent
func (s *Store) MarkEmailSent(ctx context.Context, id primitive.ObjectID, at int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.records[id]
	if !ok || n.EmailSentAt != nil {
		return false, nil
	}
	n.EmailSentAt = &at
	return true, nil
}

// FindPendingEmail returns unsent email records created before createdBefore, oldest first
func (s *Store) FindPendingEmail(ctx context.Context, createdBefore int64, limit int64) ([]*notifmodels.Notification, error) {
	out := make([]*notifmodels.Notification, 0)
	for _, n := range s.All() {
		if n.SendEmail && n.EmailSentAt == nil && n.CreatedAt < createdBefore {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
