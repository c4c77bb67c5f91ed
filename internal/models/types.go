package models

import "time"

// CategoryOther is assigned to domains no category rule matches.
const CategoryOther = "other"

// NoCluster marks events that were not clustered (no domain).
const NoCluster = -1

// MethodKeywordHeuristic tags inferences derived from keyword matching.
const MethodKeywordHeuristic = "keyword-heuristic"

// RawRecord is one input row before cleaning.
type RawRecord struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// Inference is a best-effort guess together with how it was made.
type Inference struct {
	Value  string `json:"value"`
	Method string `json:"method"`
}

// Event is one cleaned browsing record, enriched stage by stage.
type Event struct {
	URL           string    `json:"url"`
	Timestamp     time.Time `json:"timestamp"`
	Host          string    `json:"host,omitempty"`
	Domain        string    `json:"domain,omitempty"`
	Hour          int       `json:"hour"`
	DayOfWeek     int       `json:"dayOfWeek"`
	Category      string    `json:"category,omitempty"`
	ClusterID     int       `json:"clusterId"`
	AgeGroup      Inference `json:"ageGroup"`
	Location      Inference `json:"location"`
	AddictionFlag bool      `json:"addictionFlag"`
	PrivacyFlag   bool      `json:"privacyFlag"`
}

// HasDomain reports whether feature extraction found a domain.
func (e Event) HasDomain() bool { return e.Domain != "" }

// MatchText is what keyword rules run against: the full host, or the domain when
// no host was recorded.
func (e Event) MatchText() string {
	if e.Host != "" {
		return e.Host
	}
	return e.Domain
}

// EventCollection keeps ingestion order.
type EventCollection []Event

// CategoryRule maps a category name to keyword substrings.
type CategoryRule struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// LabelRule maps a label (age bracket, location) to keyword substrings.
type LabelRule struct {
	Label    string   `json:"label" yaml:"label"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// ClusterDiagnostics describes how the interest clustering ended.
type ClusterDiagnostics struct {
	K          int      `json:"k"`
	Iterations int      `json:"iterations"`
	Converged  bool     `json:"converged"`
	Inertia    float64  `json:"inertia"`
	Clustered  int      `json:"clustered"`
	Vocabulary []string `json:"vocabulary"`
}
