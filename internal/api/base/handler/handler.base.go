// Package basehdl holds the helpers every domain handler embeds
package basehdl

import (
	"fmt"

	"tamil_society/internal/common"
	"tamil_society/internal/logger"

	"github.com/gofiber/fiber/v3"
)

// BaseHandler is embedded by the domain handlers
type BaseHandler struct{}

// ParseRequestBody decodes the JSON body into out
func (h *BaseHandler) ParseRequestBody(c fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return common.WithDetails(common.ErrInvalidFormat, "empty request body")
	}
	if err := c.Bind().JSON(out); err != nil {
		return common.NewError(
			common.ErrCodeValidationFormat,
			"Request body is not valid JSON or does not match the expected shape",
			common.StatusBadRequest,
			err.Error(),
		)
	}
	return nil
}

// ParseRequestQuery decodes the query string into out using `query` tags
func (h *BaseHandler) ParseRequestQuery(c fiber.Ctx, out interface{}) error {
	if err := c.Bind().Query(out); err != nil {
		return common.NewError(
			common.ErrCodeValidationFormat,
			"Query parameters are invalid",
			common.StatusBadRequest,
			err.Error(),
		)
	}
	return nil
}

// SafeHandler turns a panic in handler into a 500 response
func (h *BaseHandler) SafeHandler(c fiber.Ctx, handler func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequest(c).WithField("panic", r).Error("Handler panicked")
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Unexpected server error: %v", r),
				common.StatusInternalServerError,
				nil,
			))
			err = nil
		}
	}()
	return handler()
}

// HandleResponse writes the standard envelope for data or err
func (h *BaseHandler) HandleResponse(c fiber.Ctx, data interface{}, err error) {
	HandleResponse(c, data, err)
}
