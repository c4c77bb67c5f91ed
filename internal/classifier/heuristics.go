package classifier

import (
	"browsify-profiler/internal/matcher"
	"browsify-profiler/internal/models"
)

// HeuristicRules are the keyword tables behind the risk and demographic guesses.
type HeuristicRules struct {
	AddictionKeywords []string
	PrivacyKeywords   []string
	AgeRules          []models.LabelRule
	DefaultAgeGroup   string
	LocationRules     []models.LabelRule
	DefaultLocation   string
}

// Heuristics tags events with coarse, keyword based signals. None of them are
// identity resolution: they are best-effort labels and are marked as such.
type Heuristics struct {
	addiction       *matcher.Set
	privacy         *matcher.Set
	age             *matcher.RuleSet
	defaultAge      string
	location        *matcher.RuleSet
	defaultLocation string
}

func NewHeuristics(r HeuristicRules) *Heuristics {
	return &Heuristics{
		addiction:       matcher.NewSet(r.AddictionKeywords),
		privacy:         matcher.NewSet(r.PrivacyKeywords),
		age:             matcher.NewRuleSet(labelRules(r.AgeRules)),
		defaultAge:      r.DefaultAgeGroup,
		location:        matcher.NewRuleSet(labelRules(r.LocationRules)),
		defaultLocation: r.DefaultLocation,
	}
}

func labelRules(rules []models.LabelRule) []matcher.Rule {
	out := make([]matcher.Rule, len(rules))
	for i, r := range rules {
		out[i] = matcher.Rule{Name: r.Label, Keywords: r.Keywords}
	}
	return out
}

// Addiction and privacy flags look at the raw url.
func (h *Heuristics) Addiction(url string) bool { return h.addiction.Any(url) }

func (h *Heuristics) Privacy(url string) bool { return h.privacy.Any(url) }

// AgeGroup is matched against the raw url.
func (h *Heuristics) AgeGroup(url string) models.Inference {
	if _, label, ok := h.age.First(url); ok {
		return models.Inference{Value: label, Method: models.MethodKeywordHeuristic}
	}
	return models.Inference{Value: h.defaultAge, Method: models.MethodKeywordHeuristic}
}

// Location is matched against the host.
func (h *Heuristics) Location(host string) models.Inference {
	if _, label, ok := h.location.First(host); ok {
		return models.Inference{Value: label, Method: models.MethodKeywordHeuristic}
	}
	return models.Inference{Value: h.defaultLocation, Method: models.MethodKeywordHeuristic}
}

// Apply enriches events that have a domain; the rest keep zero values.
func (h *Heuristics) Apply(events models.EventCollection) {
	for i := range events {
		e := &events[i]
		if !e.HasDomain() {
			continue
		}
		e.AddictionFlag = h.Addiction(e.URL)
		e.PrivacyFlag = h.Privacy(e.URL)
		e.AgeGroup = h.AgeGroup(e.URL)
		e.Location = h.Location(e.MatchText())
	}
}
