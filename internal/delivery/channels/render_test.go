package channels

import (
	"testing"

	"tamil_society/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("https://tamilsociety.example.org/")
	require.NoError(t, err)
	return r
}

func TestRender_ProjectAlertTamil(t *testing.T) {
	r := newTestRenderer(t)

	html, text, err := r.Render(notification.Selection{
		Template: notification.TemplateProjectAlert,
		Subject:  "புதிய திட்டம்",
		Payload: notification.Payload{
			Language:      notification.LangTamil,
			Title:         "புதிய திட்டம்",
			Message:       "திட்டம் தொடங்கப்பட்டது",
			RecipientName: "Kavin",
			ActionURL:     "/projects/42",
			ImageURL:      "/uploads/projects/42.png",
			Status:        "active",
		},
	})
	require.NoError(t, err)

	assert.Contains(t, html, "வணக்கம் Kavin")
	assert.Contains(t, html, "https://tamilsociety.example.org/projects/42")
	assert.Contains(t, html, "https://tamilsociety.example.org/uploads/projects/42.png")
	assert.Contains(t, html, "active")
	assert.Contains(t, html, `lang="ta"`)

	assert.Contains(t, text, "வணக்கம் Kavin,")
	assert.Contains(t, text, "திட்டம் தொடங்கப்பட்டது")
	assert.Contains(t, text, "https://tamilsociety.example.org/projects/42")
}

func TestRender_TeamAlert(t *testing.T) {
	r := newTestRenderer(t)

	html, text, err := r.Render(notification.Selection{
		Template: notification.TemplateTeamAlert,
		Payload: notification.Payload{
			Language: notification.LangEnglish,
			Title:    "New team member",
			Message:  "Welcome aboard",
			Name:     "Meena",
			Position: "Treasurer",
		},
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Meena")
	assert.Contains(t, html, "Position: Treasurer")
	assert.NotContains(t, html, "Hello")
	assert.Contains(t, text, "Meena (Treasurer)")
}

func TestRender_UnknownTemplateFallsBackToGeneric(t *testing.T) {
	r := newTestRenderer(t)

	html, _, err := r.Render(notification.Selection{
		Template: "missing",
		Payload:  notification.Payload{Title: "Hi", Message: "Body <b>x</b>"},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Body &lt;b&gt;x&lt;/b&gt;")
}

func TestRenderer_Absolute(t *testing.T) {
	r := &Renderer{baseURL: "https://a.example"}
	assert.Equal(t, "https://a.example/x", r.absolute("/x"))
	assert.Equal(t, "https://b.example/x", r.absolute("https://b.example/x"))
	assert.Equal(t, "//cdn.example/x", r.absolute("//cdn.example/x"))
	assert.Equal(t, "", r.absolute(""))

	r = &Renderer{}
	assert.Equal(t, "/x", r.absolute("/x"))
}
