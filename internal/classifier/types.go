// Package classifier turns transcriptions into newsworthiness verdicts.
package classifier

import "time"

// Severity grades the public-safety impact of an incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Category buckets an incident for display and hashtag selection.
type Category string

const (
	CategoryTraffic  Category = "traffic"
	CategoryFire     Category = "fire"
	CategoryMedical  Category = "medical"
	CategoryCrime    Category = "crime"
	CategoryAccident Category = "accident"
	CategoryOther    Category = "other"
)

// IncidentSummary is the classification verdict for one transcription.
// Summary and SocialMedia are non-nil exactly when WorthPosting is true.
type IncidentSummary struct {
	ID           string    `json:"id"`
	WorthPosting bool      `json:"worthPosting"`
	Summary      *string   `json:"summary"`
	Severity     Severity  `json:"severity"`
	Category     Category  `json:"category"`
	Location     *string   `json:"location"`
	SocialMedia  *string   `json:"socialMedia"`
	Timestamp    time.Time `json:"timestamp"`
	IsMock       bool      `json:"isMock,omitempty"`
}

func validSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func validCategory(c Category) bool {
	switch c {
	case CategoryTraffic, CategoryFire, CategoryMedical, CategoryCrime, CategoryAccident, CategoryOther:
		return true
	}
	return false
}
