package middleware

import (
	basehdl "tamil_society/internal/api/base/handler"

	"github.com/gofiber/fiber/v3"
)

// HandleErrorResponse writes the error envelope from inside a middleware
func HandleErrorResponse(c fiber.Ctx, err error) {
	basehdl.HandleErrorResponse(c, err)
}
