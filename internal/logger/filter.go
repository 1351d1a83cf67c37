package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const filteredKey = "_filtered"

// FilterHook marks entries outside the configured module/level allow lists.
// AsyncHook skips marked entries.
type FilterHook struct {
	allowedModules  map[string]bool
	allowedLogTypes map[string]bool
}

// NewFilterHook builds the allow lists from config
func NewFilterHook(cfg *LogConfig) *FilterHook {
	return &FilterHook{
		allowedModules:  parseFilter(cfg.FilterModules),
		allowedLogTypes: parseFilter(cfg.FilterLogTypes),
	}
}

// parseFilter turns "a,b,c" into a set; empty or "*" returns nil (allow all)
func parseFilter(filterStr string) map[string]bool {
	if filterStr == "" || filterStr == "*" {
		return nil
	}

	result := make(map[string]bool)
	for _, v := range strings.Split(filterStr, ",") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			result[v] = true
		}
	}
	return result
}

// Levels handles every level
func (h *FilterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire marks the entry when its level or module is not allowed
func (h *FilterHook) Fire(entry *logrus.Entry) error {
	if h.allowedLogTypes != nil && !h.allowedLogTypes[entry.Level.String()] {
		entry.Data[filteredKey] = true
		return nil
	}

	if h.allowedModules != nil {
		// Entries without a module are always let through
		if module, ok := entry.Data["module"].(string); ok && module != "" {
			if !h.allowedModules[strings.ToLower(module)] {
				entry.Data[filteredKey] = true
			}
		}
	}
	return nil
}

func filtered(entry *logrus.Entry) bool {
	v, ok := entry.Data[filteredKey].(bool)
	return ok && v
}
