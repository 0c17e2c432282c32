package classifier

import (
	"regexp"
	"strings"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
)

// Keyword sets driving the fallback verdict. A transcription is deemed
// newsworthy when it contains a newsworthy phrase and no routine phrase.
var (
	newsworthyPhrases = []string{
		"accident", "fire", "smoke", "injury", "transport", "custody",
		"backup", "emergency", "responding", "on scene",
	}
	routinePhrases = []string{
		"clear", "returning", "false alarm", "nothing showing",
		"refusal", "station", "under control",
	}
)

// locationPatterns are tried in order, first match wins.
var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)at (.+?)(?:\.|,|$)`),
	regexp.MustCompile(`(?i)responding to (.+?)(?:\.|,|$)`),
	regexp.MustCompile(`(?i)location:? (.+?)(?:\.|,|$)`),
}

// template holds canned output per incident category.
type template struct {
	summary     string
	severity    Severity
	category    Category
	socialMedia string
}

var fallbackTemplates = map[Category]template{
	CategoryAccident: {
		summary:     "Emergency units responding to vehicle accident in the area.",
		severity:    SeverityMedium,
		category:    CategoryAccident,
		socialMedia: "🚨 Emergency units responding to vehicle accident in Sandusky area. Drive safely and expect delays.",
	},
	CategoryFire: {
		summary:     "Fire department responding to reported fire alarm activation.",
		severity:    SeverityHigh,
		category:    CategoryFire,
		socialMedia: "🚒 Fire units responding to alarm in Sandusky. Please avoid the area if possible.",
	},
	CategoryMedical: {
		summary:     "EMS units providing medical assistance and transport.",
		severity:    SeverityMedium,
		category:    CategoryMedical,
		socialMedia: "🚑 EMS responding to medical emergency in Sandusky area.",
	},
	CategoryCrime: {
		summary:     "Law enforcement has taken a subject into custody following an incident.",
		severity:    SeverityMedium,
		category:    CategoryCrime,
		socialMedia: "👮 Subject in custody following police response in Sandusky. No ongoing threat.",
	},
}

// fallbackClassify applies the deterministic rule engine. It is always
// available and keeps the pipeline live when the LLM path fails.
func fallbackClassify(tr *datastore.Transcription) *IncidentSummary {
	text := strings.ToLower(tr.Text)

	newsworthy := containsAny(text, newsworthyPhrases)
	routine := containsAny(text, routinePhrases)

	if !newsworthy || routine {
		return &IncidentSummary{
			ID:           tr.ID,
			WorthPosting: false,
			Severity:     SeverityLow,
			Category:     CategoryOther,
			Timestamp:    time.Now(),
			IsMock:       true,
		}
	}

	// Category by keyword priority: fire beats medical beats custody,
	// anything else is treated as an accident.
	selected := fallbackTemplates[CategoryAccident]
	switch {
	case strings.Contains(text, "fire") || strings.Contains(text, "smoke"):
		selected = fallbackTemplates[CategoryFire]
	case strings.Contains(text, "medical") || strings.Contains(text, "transport"):
		selected = fallbackTemplates[CategoryMedical]
	case strings.Contains(text, "custody") || strings.Contains(text, "arrest"):
		selected = fallbackTemplates[CategoryCrime]
	}

	summary := selected.summary
	social := selected.socialMedia

	return &IncidentSummary{
		ID:           tr.ID,
		WorthPosting: true,
		Summary:      &summary,
		Severity:     selected.severity,
		Category:     selected.category,
		Location:     extractLocation(tr.Text),
		SocialMedia:  &social,
		Timestamp:    time.Now(),
		IsMock:       true,
	}
}

// extractLocation applies the ordered location patterns to the original
// (case-preserved) text. Returns nil when no pattern matches.
func extractLocation(text string) *string {
	for _, pattern := range locationPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			location := strings.TrimSpace(match[1])
			return &location
		}
	}
	return nil
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
