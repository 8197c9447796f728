package branch

import (
	"fmt"
	"strings"

	weatherx "github.com/tanpawarit/agentic-query-router/pkg/weather"
)

var (
	adverseGroups = map[string]bool{
		"thunderstorm": true,
		"drizzle":      true,
		"rain":         true,
		"snow":         true,
		"squall":       true,
		"tornado":      true,
	}
	adverseKeywords = []string{"rain", "storm", "snow", "drizzle", "sleet", "hail", "shower", "thunder"}
)

// IsAdverse reports whether the weather should postpone a meeting. The
// decision depends only on the summary so the same weather always gives the
// same recommendation.
func IsAdverse(s weatherx.Summary) bool {
	if adverseGroups[strings.ToLower(strings.TrimSpace(s.Group))] {
		return true
	}
	condition := strings.ToLower(s.Condition)
	for _, kw := range adverseKeywords {
		if strings.Contains(condition, kw) {
			return true
		}
	}
	return false
}

func Recommend(s weatherx.Summary) string {
	if IsAdverse(s) {
		return fmt.Sprintf("Bad weather in %s (%s, %s). Postponing the meeting is recommended.", s.City, s.Description(), s.Temp())
	}
	return fmt.Sprintf("Good weather in %s (%s, %s). The meeting can be scheduled as planned.", s.City, s.Description(), s.Temp())
}
