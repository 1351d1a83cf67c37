package middleware

import (
	"context"
	"strings"
	"time"

	authmodels "tamil_society/internal/api/auth/models"
	authsvc "tamil_society/internal/api/auth/service"
	"tamil_society/internal/common"
	"tamil_society/internal/logger"
	"tamil_society/internal/utility"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Locals keys set by the auth middleware
const (
	LocalViewer = "viewer"
	LocalUserID = "userID"
)

// UserLookup loads the user a token belongs to
type UserLookup interface {
	FindById(ctx context.Context, id primitive.ObjectID) (*authmodels.User, error)
}

// AuthManager identifies the current user from a bearer token
type AuthManager struct {
	secret string
	users  UserLookup
	cache  *utility.Cache[*authmodels.User]
}

// NewAuthManager creates the manager. Users are cached for cacheTTL; 0 disables the cache.
func NewAuthManager(secret string, users UserLookup, cacheTTL time.Duration) *AuthManager {
	am := &AuthManager{secret: secret, users: users}
	if cacheTTL > 0 {
		am.cache = utility.NewCache[*authmodels.User](cacheTTL, 2*cacheTTL)
	}
	return am
}

// Close stops the cache cleanup loop
func (am *AuthManager) Close() {
	if am.cache != nil {
		am.cache.Stop()
	}
}

// Viewer returns the identified user, nil for anonymous requests
func Viewer(c fiber.Ctx) *authmodels.User {
	user, _ := c.Locals(LocalViewer).(*authmodels.User)
	return user
}

// identify returns (nil, nil) when the request carries no token
func (am *AuthManager) identify(c fiber.Ctx) (*authmodels.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return nil, common.ErrTokenInvalid
	}

	userID, err := authsvc.ParseToken(am.secret, strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}

	key := userID.Hex()
	if am.cache != nil {
		if user, ok := am.cache.Get(key); ok {
			return user, nil
		}
	}

	user, err := am.users.FindById(c.Context(), userID)
	if err != nil {
		return nil, err
	}
	if am.cache != nil {
		am.cache.Set(key, user)
	}
	return user, nil
}

// authenticate resolves the viewer and stores it in Locals. required makes a missing token a 401.
func (am *AuthManager) authenticate(c fiber.Ctx, required bool) error {
	user, err := am.identify(c)
	if err == nil && user == nil && required {
		err = common.ErrTokenMissing
	}
	if err == nil && user != nil && user.IsBlock {
		err = common.NewError(common.ErrCodeAuthCredentials, "Account is blocked", common.StatusForbidden, nil)
	}
	if err != nil {
		logger.GetAppLogger().WithFields(logrus.Fields{
			"path":   c.Path(),
			"method": c.Method(),
			"error":  err.Error(),
		}).Warn("❌ [AUTH] Request rejected")
		HandleErrorResponse(c, err)
		return nil
	}

	if user != nil {
		c.Locals(LocalViewer, user)
		c.Locals(LocalUserID, user.ID.Hex())
	}
	return c.Next()
}

// OptionalAuth identifies the viewer when a token is present and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func (am *AuthManager) OptionalAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		return am.authenticate(c, false)
	}
}

// RequireAuth rejects requests without a valid token
func (am *AuthManager) RequireAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		return am.authenticate(c, true)
	}
}

// RequireAdmin rejects requests from anyone but administrators
func (am *AuthManager) RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		user, err := am.identify(c)
		if err == nil && user == nil {
			err = common.ErrTokenMissing
		}
		if err == nil && (user.IsBlock || !user.IsAdmin()) {
			err = common.ErrForbidden
		}
		if err != nil {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
				"error":  err.Error(),
			}).Warn("❌ [AUTH] Admin route rejected")
			HandleErrorResponse(c, err)
			return nil
		}

		c.Locals(LocalViewer, user)
		c.Locals(LocalUserID, user.ID.Hex())
		return c.Next()
	}
}
