package logger

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/sirupsen/logrus"
)

// WithRequest returns an entry carrying the request id, viewer, method, path and ip of a Fiber request
func WithRequest(c fiber.Ctx) *logrus.Entry {
	fields := logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	}

	requestID := requestid.FromContext(c)
	if requestID == "" {
		requestID = c.Get(fiber.HeaderXRequestID)
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	// Set by the auth middleware
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		fields["user_id"] = uid
	}

	return GetAppLogger().WithFields(fields)
}

// WithModule returns an app entry tagged with a module name (notification, delivery, redelivery, ...)
func WithModule(module string) *logrus.Entry {
	return GetAppLogger().WithField("module", module)
}
