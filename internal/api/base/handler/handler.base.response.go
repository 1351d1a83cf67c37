package basehdl

import (
	"errors"

	"tamil_society/internal/common"

	"github.com/gofiber/fiber/v3"
)

// JSONResponse writes data as JSON with an explicit utf-8 charset, which the Tamil content needs
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// HandleResponse writes the standard envelope: {code, message, data, status}
func HandleResponse(c fiber.Ctx, data interface{}, err error) {
	if err != nil {
		HandleErrorResponse(c, err)
		return
	}

	_ = JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// HandleErrorResponse writes the error envelope. Errors that are not common.Error become 500.
func HandleErrorResponse(c fiber.Ctx, err error) {
	var customErr *common.Error
	if errors.As(err, &customErr) {
		body := fiber.Map{
			"code":    customErr.Code.Code,
			"message": customErr.Message,
			"status":  "error",
		}
		if customErr.Details != nil {
			if cause, ok := customErr.Details.(error); ok {
				body["details"] = cause.Error()
			} else {
				body["details"] = customErr.Details
			}
		}
		_ = JSONResponse(c, customErr.StatusCode, body)
		return
	}

	_ = JSONResponse(c, common.StatusInternalServerError, fiber.Map{
		"code":    common.ErrCodeInternalServer.Code,
		"message": err.Error(),
		"status":  "error",
	})
}
