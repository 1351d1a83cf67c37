package global

import (
	"errors"
	"testing"

	"tamil_society/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Title    string `json:"title" validate:"required,no_xss"`
	Language string `json:"language" validate:"lang"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

func TestValidateStruct_OK(t *testing.T) {
	InitValidator()
	assert.NoError(t, ValidateStruct(sampleInput{Title: "Hello", Language: "ta", Priority: "high"}))
}

func TestValidateStruct_FieldDetails(t *testing.T) {
	InitValidator()

	err := ValidateStruct(sampleInput{Title: "<script>alert(1)</script>", Language: "fr", Priority: "extreme"})
	require.Error(t, err)

	var appErr *common.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, common.StatusBadRequest, appErr.StatusCode)

	details, ok := appErr.Details.([]FieldError)
	require.True(t, ok)
	rules := map[string]string{}
	for _, d := range details {
		rules[d.Field] = d.Rule
	}
	assert.Equal(t, "no_xss", rules["sampleInput.title"])
	assert.Equal(t, "lang", rules["sampleInput.language"])
	assert.Equal(t, "oneof", rules["sampleInput.priority"])
}

type enumInput struct {
	Type     string `json:"type" validate:"notif_type"`
	Priority string `json:"priority" validate:"notif_priority"`
	Audience string `json:"targetAudience" validate:"notif_audience"`
}

func TestValidateStruct_NotificationEnums(t *testing.T) {
	InitValidator()

	assert.NoError(t, ValidateStruct(enumInput{}))
	assert.NoError(t, ValidateStruct(enumInput{Type: "news", Priority: "urgent", Audience: "specific"}))

	err := ValidateStruct(enumInput{Type: "gossip", Priority: "extreme", Audience: "everyone"})
	require.Error(t, err)

	var appErr *common.Error
	require.True(t, errors.As(err, &appErr))
	details, ok := appErr.Details.([]FieldError)
	require.True(t, ok)
	assert.Len(t, details, 3)
}
