package classifier

import (
	"browsify-profiler/internal/matcher"
	"browsify-profiler/internal/models"
)

// Categorizer assigns each domain the first declared category whose keywords it contains.
type Categorizer struct {
	rules *matcher.RuleSet
}

func New(rules []models.CategoryRule) *Categorizer {
	mrules := make([]matcher.Rule, len(rules))
	for i, r := range rules {
		mrules[i] = matcher.Rule{Name: r.Name, Keywords: r.Keywords}
	}
	return &Categorizer{rules: matcher.NewRuleSet(mrules)}
}

// Categorize is total: unmatched hosts are "other".
func (c *Categorizer) Categorize(host string) string {
	if _, name, ok := c.rules.First(host); ok {
		return name
	}
	return models.CategoryOther
}

// CategorizeAll sets Category on events that have a domain.
func (c *Categorizer) CategorizeAll(events models.EventCollection) {
	for i := range events {
		if !events[i].HasDomain() {
			continue
		}
		events[i].Category = c.Categorize(events[i].MatchText())
	}
}

// Order lists categories in declaration order followed by "other".
func (c *Categorizer) Order() []string {
	return append(c.rules.Names(), models.CategoryOther)
}
