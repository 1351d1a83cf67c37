// Package notifhdl serves the notification routes
package notifhdl

import (
	"strconv"

	basehdl "tamil_society/internal/api/base/handler"
	"tamil_society/internal/api/middleware"
	notifdto "tamil_society/internal/api/notification/dto"
	notifsvc "tamil_society/internal/api/notification/service"
	"tamil_society/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// NotificationHandler serves create, feed, read state and admin operations
type NotificationHandler struct {
	basehdl.BaseHandler
	service *notifsvc.NotificationService
}

// NewNotificationHandler creates the handler
func NewNotificationHandler(service *notifsvc.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// HandleCreate creates a notification and fans it out to its audience.
// Responds with one record for a direct or single-recipient notification, a list otherwise.
// @Router /notifications [post]
func (h *NotificationHandler) HandleCreate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input notifdto.CreateNotificationInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		admin := middleware.Viewer(c)
		result, err := h.service.Create(c.Context(), &input, admin)
		if err != nil {
			logger.WithRequest(c).WithError(err).Warn("🔔 [NOTIFICATION] Create rejected")
			h.HandleResponse(c, nil, err)
			return nil
		}

		resourceID := ""
		if len(result.Records) == 1 {
			resourceID = result.Records[0].ID.Hex()
		}
		logger.LogCRUD("create", "notification", resourceID, c, map[string]interface{}{
			"audience":  input.TargetAudience,
			"records":   len(result.Records),
			"sendEmail": input.SendEmail,
		})

		h.HandleResponse(c, result.Data(), nil)
		return nil
	})
}

// HandleListFeed returns the viewer's feed; anonymous viewers get public broadcasts only
// @Router /notifications [get]
func (h *NotificationHandler) HandleListFeed(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var query notifdto.ListFeedQuery
		if err := h.ParseRequestQuery(c, &query); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.service.ListFeed(c.Context(), middleware.Viewer(c), &query)
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleUnreadCount returns the viewer's unread count
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) HandleUnreadCount(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		count, err := h.service.UnreadCount(c.Context(), middleware.Viewer(c))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, notifdto.CountResult{Count: count}, nil)
		return nil
	})
}

// HandleMarkOneRead marks one record read
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) HandleMarkOneRead(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		n, err := h.service.MarkOneRead(c.Context(), c.Params("id"), middleware.Viewer(c))
		h.HandleResponse(c, n, err)
		return nil
	})
}

// HandleMarkAllRead marks every visible record of the viewer read
// @Router /notifications/read-all [put]
func (h *NotificationHandler) HandleMarkAllRead(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		modified, err := h.service.MarkAllRead(c.Context(), middleware.Viewer(c))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, notifdto.MarkedResult{Modified: modified}, nil)
		return nil
	})
}

// HandleMarkManyRead marks the listed records read
// @Router /notifications/read-many [put]
func (h *NotificationHandler) HandleMarkManyRead(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input notifdto.MarkManyInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		modified, err := h.service.MarkManyRead(c.Context(), input.IDs, middleware.Viewer(c))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, notifdto.MarkedResult{Modified: modified}, nil)
		return nil
	})
}

// HandleDelete removes a record and its uploaded assets
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) HandleDelete(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := c.Params("id")
		if err := h.service.Delete(c.Context(), id, middleware.Viewer(c)); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogCRUD("delete", "notification", id, c, nil)
		h.HandleResponse(c, fiber.Map{"id": id}, nil)
		return nil
	})
}

// HandleDeliveryLogs lists the email outcomes of one record
// @Router /notifications/{id}/deliveries [get]
func (h *NotificationHandler) HandleDeliveryLogs(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		page := queryInt(c, "page", 1)
		limit := queryInt(c, "limit", notifsvc.DefaultFeedLimit)

		result, err := h.service.DeliveryLogs(c.Context(), c.Params("id"), middleware.Viewer(c), page, limit)
		if err != nil {
			logger.WithRequest(c).WithFields(logrus.Fields{
				"notification_id": c.Params("id"),
			}).WithError(err).Debug("📧 [DELIVERY] Delivery log lookup failed")
		}
		h.HandleResponse(c, result, err)
		return nil
	})
}

func queryInt(c fiber.Ctx, key string, fallback int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
