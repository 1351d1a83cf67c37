package global

import (
	"errors"
	"reflect"
	"strings"

	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/common"
	"tamil_society/internal/notification"

	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of a validation error's details
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// InitValidator creates the shared validator and registers the custom rules
func InitValidator() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report json names instead of Go field names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("lang", validateLanguage)
	_ = Validate.RegisterValidation("bilingual", validateBilingual)
	_ = Validate.RegisterValidation("notif_type", enumRule(notification.IsValidType))
	_ = Validate.RegisterValidation("notif_priority", enumRule(notification.IsValidPriority))
	_ = Validate.RegisterValidation("notif_audience", enumRule(notification.IsValidAudience))
}

// ValidateStruct validates s and converts failures into a 400 common.Error with field details
func ValidateStruct(s interface{}) error {
	if Validate == nil {
		InitValidator()
	}

	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return common.WithDetails(common.ErrInvalidInput, err.Error())
	}

	details := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, FieldError{
			Field:   fe.Namespace(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: fieldMessage(fe),
		})
	}
	return common.NewValidationError(common.MsgValidationError, details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "mongodb":
		return "must be a valid identifier"
	case "url":
		return "must be a valid URL"
	case "no_xss":
		return "contains forbidden markup"
	case "lang":
		return "must be en, ta or both"
	case "bilingual":
		return "needs text in at least one language"
	case "notif_type":
		return "is not a known notification type"
	case "notif_priority":
		return "must be low, medium, high or urgent"
	case "notif_audience":
		return "must be all, members, admins or specific"
	default:
		return "failed on '" + fe.Tag() + "' validation"
	}
}

// validateNoXSS rejects obvious script injection in free text
func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"onmouseover=",
		"eval(",
		"document.cookie",
		"document.write",
		"<iframe",
		"<object",
		"<embed",
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateLanguage accepts the supported language preferences
func validateLanguage(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "en", "ta", "both":
		return true
	}
	return false
}

// validateBilingual requires at least one non-blank language in a LocalizedText
func validateBilingual(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case notifmodels.LocalizedText:
		return !v.IsEmpty()
	case *notifmodels.LocalizedText:
		return v != nil && !v.IsEmpty()
	}
	return false
}

// enumRule accepts empty values (defaults apply later) and values known to valid
func enumRule(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "" || valid(v)
	}
}
