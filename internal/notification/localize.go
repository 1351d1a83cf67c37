package notification

import (
	"strings"

	notifmodels "tamil_society/internal/api/notification/models"
)

// ResolveLanguage maps a stored preference onto a rendering language.
// "both", empty and unknown values render in English.
func ResolveLanguage(pref string) string {
	if strings.EqualFold(strings.TrimSpace(pref), LangTamil) {
		return LangTamil
	}
	return LangEnglish
}

// Localize picks the side of t for lang, falling back to the other side when empty
func Localize(t notifmodels.LocalizedText, lang string) string {
	en := strings.TrimSpace(t.En)
	ta := strings.TrimSpace(t.Ta)

	if ResolveLanguage(lang) == LangTamil && ta != "" {
		return ta
	}
	if en != "" {
		return en
	}
	return ta
}

// WithFallback fills an empty side of t with the other one
func WithFallback(t notifmodels.LocalizedText) notifmodels.LocalizedText {
	return notifmodels.LocalizedText{
		En: Localize(t, LangEnglish),
		Ta: Localize(t, LangTamil),
	}
}
