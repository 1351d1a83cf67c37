// Package router registers the notification routes
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	notifhdl "tamil_society/internal/api/notification/handler"
	notifsvc "tamil_society/internal/api/notification/service"
	apirouter "tamil_society/internal/api/router"
)

// Register returns the RegisterFunc mounting /notifications on v1
func Register(service *notifsvc.NotificationService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		if service == nil {
			return fmt.Errorf("register notification routes: nil service")
		}
		h := notifhdl.NewNotificationHandler(service)

		auth := r.Auth()
		optional := []fiber.Handler{auth.OptionalAuth()}
		user := []fiber.Handler{auth.RequireAuth()}
		admin := []fiber.Handler{auth.RequireAdmin()}

		const prefix = "/notifications"
		apirouter.RegisterRouteWithMiddleware(v1, prefix, "POST", "", admin, h.HandleCreate)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, "GET", "", optional, h.HandleListFeed)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, "GET", "/unread-count", user, h.HandleUnreadCount)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, "PUT", "/read-all", user, h.HandleMarkAllRead)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, "PUT", "/read-many", user, h.HandleMarkManyRead)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, "PUT", "/:id/read", user, h.HandleMarkOneRead)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, "GET", "/:id/deliveries", admin, h.HandleDeliveryLogs)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, "DELETE", "/:id", admin, h.HandleDelete)
		return nil
	}
}
