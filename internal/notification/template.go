package notification

import (
	"strings"

	notifmodels "tamil_society/internal/api/notification/models"
)

// Payload is the data handed to the mail renderer
type Payload struct {
	Language      string `json:"language" yaml:"language"`
	Title         string `json:"title" yaml:"title"`
	Message       string `json:"message" yaml:"message"`
	RecipientName string `json:"recipientName,omitempty" yaml:"recipientName,omitempty"`
	Type          string `json:"type" yaml:"type"`
	Priority      string `json:"priority" yaml:"priority"`
	ActionURL     string `json:"actionUrl,omitempty" yaml:"actionUrl,omitempty"`
	ActionText    string `json:"actionText,omitempty" yaml:"actionText,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Status        string `json:"status,omitempty" yaml:"status,omitempty"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Position      string `json:"position,omitempty" yaml:"position,omitempty"`
}

// Selection is the template chosen for one recipient plus its payload
type Selection struct {
	Template string  `json:"template" yaml:"template"`
	Subject  string  `json:"subject" yaml:"subject"`
	Payload  Payload `json:"payload" yaml:"payload"`
}

// templateRule pairs a predicate on the tag set with a template and the fields it adds
type templateRule struct {
	template string
	match    func(tags tagSet) bool
	enrich   func(n *notifmodels.Notification, p *Payload)
}

// templateRules is evaluated top to bottom, first match wins
var templateRules = []templateRule{
	{
		template: TemplateProjectAlert,
		match:    hasAll("project", "created"),
		enrich: func(n *notifmodels.Notification, p *Payload) {
			p.ImageURL = n.ImageURL
			if n.Details != nil {
				p.Status = n.Details.Status
			}
		},
	},
	{
		template: TemplateEbookDownload,
		match:    hasAll("ebook", "download"),
	},
	{
		template: TemplateTeamAlert,
		match:    hasAll("team", "created"),
		enrich: func(n *notifmodels.Notification, p *Payload) {
			if n.Details != nil {
				p.Name = n.Details.Name
				p.Position = n.Details.Position
			}
		},
	},
	{
		template: TemplatePosterAlert,
		match:    hasAll("poster", "created"),
		enrich: func(n *notifmodels.Notification, p *Payload) {
			p.ImageURL = n.ImageURL
		},
	},
}

type tagSet map[string]bool

func newTagSet(tags []string) tagSet {
	set := make(tagSet, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = true
		}
	}
	return set
}

func hasAll(required ...string) func(tags tagSet) bool {
	return func(tags tagSet) bool {
		for _, r := range required {
			if !tags[r] {
				return false
			}
		}
		return true
	}
}

// SelectTemplate picks the email template for n and builds the payload in the
// recipient's language. It has no side effects.
func SelectTemplate(n *notifmodels.Notification, languagePreference string, recipientName string) Selection {
	lang := ResolveLanguage(languagePreference)

	payload := Payload{
		Language:      lang,
		Title:         Localize(n.Title, lang),
		Message:       Localize(n.Message, lang),
		RecipientName: recipientName,
		Type:          n.Type,
		Priority:      n.Priority,
		ActionURL:     n.ActionURL,
		ActionText:    n.ActionText,
	}

	selection := Selection{Template: TemplateGeneric}
	tags := newTagSet(n.Tags)
	for _, rule := range templateRules {
		if !rule.match(tags) {
			continue
		}
		selection.Template = rule.template
		if rule.enrich != nil {
			rule.enrich(n, &payload)
		}
		break
	}

	selection.Subject = payload.Title
	selection.Payload = payload
	return selection
}
