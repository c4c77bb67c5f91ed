// Package profile reduces an enriched event collection into one summary record.
package profile

import (
	"bytes"
	"encoding/json"
	"strings"

	"browsify-profiler/internal/aggregate"
	"browsify-profiler/internal/models"
)

// Insight is one named field of a profile. Values are strings or ints.
type Insight struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Profile is an ordered flat mapping of insights.
type Profile struct {
	insights []Insight
	index    map[string]int
}

func (p *Profile) add(name string, v any) {
	if p.index == nil {
		p.index = map[string]int{}
	}
	p.index[name] = len(p.insights)
	p.insights = append(p.insights, Insight{Name: name, Value: v})
}

// Get returns the value of a named insight.
func (p *Profile) Get(name string) (any, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.insights[i].Value, true
}

// Insights returns the fields in report order.
func (p *Profile) Insights() []Insight {
	out := make([]Insight, len(p.insights))
	copy(out, p.insights)
	return out
}

func (p *Profile) Len() int { return len(p.insights) }

// MarshalJSON writes a JSON object whose keys keep report order.
func (p *Profile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, in := range p.insights {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(in.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(in.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Options tune synthesis.
type Options struct {
	// CategoryOrder breaks ties between equally frequent categories.
	CategoryOrder []string
	// RiskThreshold is the flagged fraction above which a risk is "High".
	RiskThreshold float64
}

// summary holds the modal values every field is computed from.
type summary struct {
	topCategory string
	ageGroup    string
	location    string
	domain      string
	url         string
	urlVisits   int
	peakHour    int
	addiction   int
	privacy     int
	total       int
}

// Synthesize builds the profile. It fails with *EmptyInputError when there are no
// events, or when no event has a domain to derive categorical fields from.
func Synthesize(events models.EventCollection, opts Options) (*Profile, error) {
	if len(events) == 0 {
		return nil, &EmptyInputError{Reason: "no events after cleaning"}
	}
	s, ok := summarize(events, opts)
	if !ok {
		return nil, &EmptyInputError{Reason: "no event has a recognised domain"}
	}

	p := &Profile{}
	for _, f := range fields {
		p.add(f.name, f.value(s, opts))
	}
	return p, nil
}

func summarize(events models.EventCollection, opts Options) (summary, bool) {
	rank := aggregate.Rank(opts.CategoryOrder)
	var (
		cats, ages, locs, domains []string
		urls                      = make([]string, 0, len(events))
		hours                     = make([]int, 0, len(events))
		s                         = summary{total: len(events)}
	)
	for _, e := range events {
		urls = append(urls, e.URL)
		hours = append(hours, e.Hour)
		if e.AddictionFlag {
			s.addiction++
		}
		if e.PrivacyFlag {
			s.privacy++
		}
		if !e.HasDomain() {
			continue
		}
		cats = append(cats, e.Category)
		ages = append(ages, e.AgeGroup.Value)
		locs = append(locs, e.Location.Value)
		domains = append(domains, e.Domain)
	}
	if len(domains) == 0 {
		return s, false
	}

	lexical := func(a, b string) bool { return a < b }
	s.topCategory, _ = mode(cats, rank.Less)
	s.ageGroup, _ = mode(ages, lexical)
	s.location, _ = mode(locs, lexical)
	s.domain, _ = mode(domains, lexical)
	s.url, s.urlVisits = mode(urls, lexical)
	s.peakHour, _ = mode(hours, func(a, b int) bool { return a < b })
	return s, true
}

// mode returns the most frequent value and its count; ties go to the value less ranks first.
func mode[T comparable](values []T, less func(a, b T) bool) (T, int) {
	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	var best T
	bestN := 0
	for v, n := range counts {
		if n > bestN || (n == bestN && less(v, best)) {
			best, bestN = v, n
		}
	}
	return best, bestN
}

// RiskLevel is "High" iff flagged/total exceeds threshold; exactly at threshold is "Low".
func RiskLevel(flagged, total int, threshold float64) string {
	if total > 0 && float64(flagged) > float64(total)*threshold {
		return "High"
	}
	return "Low"
}

type field struct {
	name  string
	value func(s summary, opts Options) any
}

// urlSignal checks the single most visited url for a literal.
func urlSignal(name, literal, yes, no string) field {
	return field{name: name, value: func(s summary, _ Options) any {
		if strings.Contains(s.url, literal) {
			return yes
		}
		return no
	}}
}

func topCategory(name string) field {
	return field{name: name, value: func(s summary, _ Options) any { return s.topCategory }}
}

var fields = []field{
	topCategory("Top Interests"),
	{"Predicted Age Group", func(s summary, _ Options) any { return s.ageGroup }},
	{"Predicted Location", func(s summary, _ Options) any { return s.location }},
	{"Addiction Risk", func(s summary, o Options) any { return RiskLevel(s.addiction, s.total, o.RiskThreshold) }},
	{"Privacy Risk", func(s summary, o Options) any { return RiskLevel(s.privacy, s.total, o.RiskThreshold) }},
	topCategory("Frequent Categories"),
	{"Peak Activity Hour", func(s summary, _ Options) any { return s.peakHour }},
	{"Frequent Domain", func(s summary, _ Options) any { return s.domain }},
	urlSignal("Shopping Preference", "amazon", "Yes", "No"),
	{"Health Risk", func(s summary, _ Options) any {
		if strings.Contains(s.topCategory, "fitness") {
			return "High"
		}
		return "Low"
	}},
	urlSignal("Tech Affinity", "techcrunch", "Yes", "No"),
	urlSignal("Social Media Usage", "instagram", "High", "Low"),
	urlSignal("Education Affinity", "coursera", "Yes", "No"),
	urlSignal("News Consumption", "bbc", "High", "Low"),
	topCategory("Frequent Content Type"),
	urlSignal("Preferred Shopping Sites", "amazon", "Amazon", "Others"),
	urlSignal("Favorite Brands", "nike", "Nike", "Others"),
	urlSignal("Time Spent on Social Media", "facebook", "High", "Low"),
	{"Peak Time of Activity", func(s summary, _ Options) any {
		if s.peakHour >= 18 {
			return "Evening"
		}
		return "Morning"
	}},
	{"Frequency of Visits", func(s summary, _ Options) any { return s.urlVisits }},
	urlSignal("Personal Health Interest", "healthline", "High", "Low"),
	urlSignal("E-Commerce Activity", "ebay", "High", "Low"),
	urlSignal("Job-Related Interest", "linkedin", "High", "Low"),
	urlSignal("Gaming Behavior", "gaming", "Frequent", "Rare"),
	urlSignal("Music & Entertainment Preference", "spotify", "High", "Low"),
	urlSignal("Political Interest", "nytimes", "High", "Low"),
	urlSignal("Work-Related Focus", "microsoft", "High", "Low"),
	urlSignal("Tech-Savvy", "theverge", "Yes", "No"),
	urlSignal("Mobile Usage", "instagram", "High", "Low"),
	urlSignal("Web Development Interest", "stackoverflow", "Yes", "No"),
}
