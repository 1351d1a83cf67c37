package notification

import (
	"testing"

	notifmodels "tamil_society/internal/api/notification/models"

	"github.com/stretchr/testify/assert"
)

func sampleNotification(tags ...string) *notifmodels.Notification {
	return &notifmodels.Notification{
		Title:      notifmodels.LocalizedText{En: "New project", Ta: "புதிய திட்டம்"},
		Message:    notifmodels.LocalizedText{En: "A project was created"},
		Type:       TypeAnnouncement,
		Priority:   PriorityHigh,
		Tags:       tags,
		ImageURL:   "/uploads/projects/p1/cover.jpg",
		ActionURL:  "/projects/p1",
		ActionText: "View",
		Details:    &notifmodels.NotificationDetails{Name: "Kavin", Position: "Secretary", Status: "ongoing"},
	}
}

func TestSelectTemplate_DispatchTable(t *testing.T) {
	cases := []struct {
		name string
		tags []string
		want string
	}{
		{"project", []string{"project", "created"}, TemplateProjectAlert},
		{"ebook", []string{"download", "ebook"}, TemplateEbookDownload},
		{"team", []string{"team", "created"}, TemplateTeamAlert},
		{"poster", []string{"poster", "created"}, TemplatePosterAlert},
		{"case and blanks", []string{" Project ", "CREATED"}, TemplateProjectAlert},
		{"partial match", []string{"project"}, TemplateGeneric},
		{"no tags", nil, TemplateGeneric},
		{"first match wins", []string{"poster", "team", "created"}, TemplateTeamAlert},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectTemplate(sampleNotification(tc.tags...), "en", "Anbu")
			assert.Equal(t, tc.want, got.Template)
		})
	}
}

func TestSelectTemplate_Fields(t *testing.T) {
	project := SelectTemplate(sampleNotification("project", "created"), "en", "Anbu")
	assert.Equal(t, "/uploads/projects/p1/cover.jpg", project.Payload.ImageURL)
	assert.Equal(t, "ongoing", project.Payload.Status)
	assert.Empty(t, project.Payload.Name)

	team := SelectTemplate(sampleNotification("team", "created"), "en", "Anbu")
	assert.Equal(t, "Kavin", team.Payload.Name)
	assert.Equal(t, "Secretary", team.Payload.Position)
	assert.Empty(t, team.Payload.ImageURL)

	poster := SelectTemplate(sampleNotification("poster", "created"), "en", "Anbu")
	assert.Equal(t, "/uploads/projects/p1/cover.jpg", poster.Payload.ImageURL)

	generic := SelectTemplate(sampleNotification(), "en", "Anbu")
	assert.Equal(t, "Anbu", generic.Payload.RecipientName)
	assert.Equal(t, "/projects/p1", generic.Payload.ActionURL)
	assert.Equal(t, TypeAnnouncement, generic.Payload.Type)
}

func TestSelectTemplate_Localization(t *testing.T) {
	n := sampleNotification("project", "created")

	ta := SelectTemplate(n, "ta", "")
	assert.Equal(t, LangTamil, ta.Payload.Language)
	assert.Equal(t, "புதிய திட்டம்", ta.Subject)
	// Tamil message missing: English fallback
	assert.Equal(t, "A project was created", ta.Payload.Message)

	both := SelectTemplate(n, "both", "")
	assert.Equal(t, LangEnglish, both.Payload.Language)
	assert.Equal(t, "New project", both.Subject)

	none := SelectTemplate(n, "", "")
	assert.Equal(t, "New project", none.Payload.Title)
}

func TestSelectTemplate_Deterministic(t *testing.T) {
	n := sampleNotification("ebook", "download")
	assert.Equal(t, SelectTemplate(n, "ta", "x"), SelectTemplate(n, "ta", "x"))
}
