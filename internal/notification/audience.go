package notification

import (
	"context"
	"strings"

	authmodels "tamil_society/internal/api/auth/models"
	"tamil_society/internal/common"
	"tamil_society/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directory is the read side of the platform user store
type Directory interface {
	ListAll(ctx context.Context) ([]authmodels.User, error)
	ListByRole(ctx context.Context, role string) ([]authmodels.User, error)
	// ListMembers returns every user without the admin role, whatever role they hold
	ListMembers(ctx context.Context) ([]authmodels.User, error)
	ListByIds(ctx context.Context, ids []primitive.ObjectID) ([]authmodels.User, error)
}

// Resolver expands an audience into concrete users
type Resolver struct {
	directory Directory
}

// NewResolver returns a resolver backed by directory
func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve returns the users a notification must be materialized for.
//
//   - all      → every user
//   - members  → users without the admin role
//   - admins   → admin users
//   - specific → the given ids, deduplicated, in input order; unknown ids are skipped
//
// An empty result is not an error. An empty id list for specific is.
func (r *Resolver) Resolve(ctx context.Context, audience string, ids []string) ([]authmodels.User, error) {
	switch audience {
	case AudienceAll:
		return r.directory.ListAll(ctx)
	case AudienceMembers:
		return r.directory.ListMembers(ctx)
	case AudienceAdmins:
		return r.directory.ListByRole(ctx, authmodels.RoleAdmin)
	case AudienceSpecific:
		return r.resolveSpecific(ctx, ids)
	default:
		return nil, common.NewValidationError("Unknown target audience", map[string]string{"targetAudience": audience})
	}
}

func (r *Resolver) resolveSpecific(ctx context.Context, ids []string) ([]authmodels.User, error) {
	objectIDs, err := ParseRecipientIDs(ids)
	if err != nil {
		return nil, err
	}

	found, err := r.directory.ListByIds(ctx, objectIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]authmodels.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	users := make([]authmodels.User, 0, len(objectIDs))
	for _, id := range objectIDs {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}

	if skipped := len(objectIDs) - len(users); skipped > 0 {
		logger.WithModule("notification").WithFields(map[string]interface{}{
			"requested": len(objectIDs),
			"skipped":   skipped,
		}).Debug("🔔 [NOTIFICATION] Unknown recipients skipped")
	}
	return users, nil
}

// ParseRecipientIDs parses and deduplicates hex ids, keeping input order.
// An empty list or a malformed id is a validation error.
func ParseRecipientIDs(ids []string) ([]primitive.ObjectID, error) {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))

	for _, raw := range ids {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, common.WithDetails(common.ErrInvalidID, map[string]string{"recipients": raw})
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	if len(out) == 0 {
		return nil, common.NewValidationError("At least one recipient is required for a specific audience", map[string]string{"recipients": "required"})
	}
	return out, nil
}
