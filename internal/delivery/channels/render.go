package channels

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"tamil_society/internal/notification"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// labels are the static strings of the email layout, per language
var labels = map[string]map[string]string{
	notification.LangEnglish: {
		"greeting": "Hello",
		"action":   "Open",
		"status":   "Status",
		"position": "Position",
		"footer":   "You receive this email because notifications are enabled on your Tamil Language Society account.",
	},
	notification.LangTamil: {
		"greeting": "வணக்கம்",
		"action":   "திறக்க",
		"status":   "நிலை",
		"position": "பதவி",
		"footer":   "உங்கள் தமிழ் மொழி சங்கக் கணக்கில் அறிவிப்புகள் இயக்கப்பட்டுள்ளதால் இந்த மின்னஞ்சல் அனுப்பப்படுகிறது.",
	},
}

type viewData struct {
	notification.Payload
	Labels map[string]string
}

// Renderer turns a template selection into HTML and plain-text bodies
type Renderer struct {
	baseURL string
	html    map[string]*htmltemplate.Template
	text    *texttemplate.Template
}

// NewRenderer parses the embedded templates. baseURL prefixes relative links.
func NewRenderer(baseURL string) (*Renderer, error) {
	r := &Renderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		html:    make(map[string]*htmltemplate.Template),
	}

	names := []string{
		notification.TemplateGeneric,
		notification.TemplateProjectAlert,
		notification.TemplateEbookDownload,
		notification.TemplateTeamAlert,
		notification.TemplatePosterAlert,
	}
	for _, name := range names {
		tpl, err := htmltemplate.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.html[name] = tpl
	}

	text, err := texttemplate.New("text").ParseFS(templateFS, "templates/notification.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	r.text = text

	return r, nil
}

// Render returns the HTML and text bodies. Unknown templates render with the generic one.
func (r *Renderer) Render(sel notification.Selection) (htmlBody string, textBody string, err error) {
	data := viewData{Payload: sel.Payload, Labels: labels[notification.ResolveLanguage(sel.Payload.Language)]}
	data.ActionURL = r.absolute(data.ActionURL)
	data.ImageURL = r.absolute(data.ImageURL)

	tpl, ok := r.html[sel.Template]
	if !ok {
		tpl = r.html[notification.TemplateGeneric]
	}

	var hb bytes.Buffer
	if err := tpl.ExecuteTemplate(&hb, "layout", data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", sel.Template, err)
	}

	var tb bytes.Buffer
	if err := r.text.ExecuteTemplate(&tb, "notification.txt", data); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}

	return hb.String(), tb.String(), nil
}

func (r *Renderer) absolute(link string) string {
	if link == "" || r.baseURL == "" || !strings.HasPrefix(link, "/") || strings.HasPrefix(link, "//") {
		return link
	}
	return r.baseURL + link
}
