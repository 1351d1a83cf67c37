package router

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"tamil_society/internal/api/middleware"
)

// ============================================================================
// MIDDLEWARE REGISTRATION
// ============================================================================
//
// Do not attach middleware with Group(prefix).Use(mw): in Fiber v3 a Use on a group
// matches every path below the prefix, so an admin guard on POST /notifications would
// also guard GET /notifications.
//
// Register guarded routes through RegisterRouteWithMiddleware, which builds the
// handler chain for that one method and path:
//
//	RegisterRouteWithMiddleware(v1, "/notifications", "PUT", "/read-all", []fiber.Handler{auth.RequireAuth()}, h.HandleMarkAllRead)
//
// ============================================================================

// RoutePrefix holds the API prefixes
type RoutePrefix struct {
	Base string // /api
	V1   string // /api/v1
}

// NewRoutePrefix returns the default prefixes
func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{
		Base: base,
		V1:   base + "/v1",
	}
}

// Router carries what the domain routers share
type Router struct {
	app  *fiber.App
	auth *middleware.AuthManager
}

// NewRouter creates a Router
func NewRouter(app *fiber.App, auth *middleware.AuthManager) *Router {
	return &Router{
		app:  app,
		auth: auth,
	}
}

// Auth returns the identity middleware factory
func (r *Router) Auth() *middleware.AuthManager {
	return r.auth
}

// RegisterRouteWithMiddleware registers handler for one method and path.
// Middlewares run in order before handler and apply to this route only.
func RegisterRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	chain := make([]fiber.Handler, 0, len(middlewares)+1)
	chain = append(chain, middlewares...)
	chain = append(chain, handler)

	router.Add([]string{strings.ToUpper(method)}, prefix+path, chain[0], chain[1:]...)
}

// RegisterFunc registers the routes of one domain
type RegisterFunc func(v1 fiber.Router, r *Router) error

// SetupRoutes mounts every domain under /api/v1. Domains are passed in by the caller to avoid import cycles.
func SetupRoutes(app *fiber.App, auth *middleware.AuthManager, regs ...RegisterFunc) error {
	prefix := NewRoutePrefix()
	v1 := app.Group(prefix.V1)
	r := NewRouter(app, auth)

	for _, reg := range regs {
		if err := reg(v1, r); err != nil {
			return err
		}
	}
	return nil
}
