package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/delivery/channels"
	"tamil_society/internal/notification"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// previewResult is what preview prints for yaml and json output
type previewResult struct {
	Selection notification.Selection `json:"selection" yaml:"selection"`
	Text      string                 `json:"text" yaml:"text"`
}

func newPreviewCmd() *cobra.Command {
	var (
		tags      []string
		lang      string
		titleEn   string
		titleTa   string
		messageEn string
		messageTa string
		recipient string
		name      string
		position  string
		status    string
		imageURL  string
		actionURL string
		baseURL   string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the template, payload and rendered email for a tag set and language",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := &notifmodels.Notification{
				Title:     notifmodels.LocalizedText{En: titleEn, Ta: titleTa},
				Message:   notifmodels.LocalizedText{En: messageEn, Ta: messageTa},
				Type:      notification.DefaultType,
				Priority:  notification.DefaultPriority,
				Tags:      tags,
				ActionURL: actionURL,
				ImageURL:  imageURL,
			}
			if name != "" || position != "" || status != "" {
				n.Details = &notifmodels.NotificationDetails{Name: name, Position: position, Status: status}
			}

			renderer, err := channels.NewRenderer(baseURL)
			if err != nil {
				return err
			}
			sel := notification.SelectTemplate(n, lang, recipient)
			html, text, err := renderer.Render(sel)
			if err != nil {
				return err
			}

			return writePreview(cmd.OutOrStdout(), output, previewResult{Selection: sel, Text: text}, html)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&tags, "tags", nil, "Notification tags, e.g. project,status-update")
	f.StringVar(&lang, "lang", notification.LangEnglish, "Recipient language: en, ta or both")
	f.StringVar(&titleEn, "title-en", "Sample title", "English title")
	f.StringVar(&titleTa, "title-ta", "", "Tamil title")
	f.StringVar(&messageEn, "message-en", "Sample message", "English message")
	f.StringVar(&messageTa, "message-ta", "", "Tamil message")
	f.StringVar(&recipient, "recipient", "", "Recipient display name")
	f.StringVar(&name, "name", "", "Details: member name")
	f.StringVar(&position, "position", "", "Details: member position")
	f.StringVar(&status, "status", "", "Details: project status")
	f.StringVar(&imageURL, "image-url", "", "Image URL")
	f.StringVar(&actionURL, "action-url", "", "Action link")
	f.StringVar(&baseURL, "base-url", "http://localhost:3000", "Base for relative links")
	f.StringVarP(&output, "output", "o", "yaml", "Output format: yaml, json or html")
	return cmd
}

func writePreview(w io.Writer, format string, result previewResult, html string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "html":
		_, err := io.WriteString(w, html)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want yaml, json or html)", format)
	}
}
