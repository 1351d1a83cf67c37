package notification

// Notification types
const (
	TypeInfo         = "info"
	TypeWarning      = "warning"
	TypeSuccess      = "success"
	TypeError        = "error"
	TypeAnnouncement = "announcement"
	TypeEvent        = "event"
	TypeNews         = "news"
	TypeUpdate       = "update"
	TypeUrgent       = "urgent"
	TypeGeneral      = "general"
)

// Priorities, lowest first
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Audiences
const (
	AudienceAll      = "all"
	AudienceMembers  = "members"
	AudienceAdmins   = "admins"
	AudienceSpecific = "specific"
)

// Languages
const (
	LangEnglish = "en"
	LangTamil   = "ta"
	LangBoth    = "both"
)

// Email templates
const (
	TemplateProjectAlert  = "project-alert"
	TemplateEbookDownload = "ebook-download"
	TemplateTeamAlert     = "team-alert"
	TemplatePosterAlert   = "poster-alert"
	TemplateGeneric       = "notification"
)

// Defaults applied at creation
const (
	DefaultType     = TypeInfo
	DefaultPriority = PriorityMedium
)

var validTypes = map[string]bool{
	TypeInfo: true, TypeWarning: true, TypeSuccess: true, TypeError: true, TypeAnnouncement: true,
	TypeEvent: true, TypeNews: true, TypeUpdate: true, TypeUrgent: true, TypeGeneral: true,
}

var priorityRanks = map[string]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

var validAudiences = map[string]bool{
	AudienceAll: true, AudienceMembers: true, AudienceAdmins: true, AudienceSpecific: true,
}

// IsValidType reports whether t is a known notification type
func IsValidType(t string) bool { return validTypes[t] }

// IsValidPriority reports whether p is a known priority
func IsValidPriority(p string) bool {
	_, ok := priorityRanks[p]
	return ok
}

// IsValidAudience reports whether a is a known audience
func IsValidAudience(a string) bool { return validAudiences[a] }

// PriorityRank maps a priority onto its sort key (low=1 .. urgent=4, unknown=0)
func PriorityRank(p string) int { return priorityRanks[p] }
