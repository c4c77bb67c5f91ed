// Package matcher implements ordered keyword rules on top of an Aho-Corasick automaton.
// All keywords of all rules are matched in a single pass over the input; the
// winning rule is the first declared one with at least one keyword hit.
package matcher

import (
	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Rule is one named keyword list. Matching is case-sensitive substring containment.
type Rule struct {
	Name     string
	Keywords []string
}

// RuleSet matches text against rules in declaration order.
// It is immutable after construction and safe for concurrent use.
type RuleSet struct {
	names     []string
	keywords  []string // dictionary, in automaton index order
	kwToRules [][]int  // dictionary index -> rule indexes that declared it
	matcher   *ahocorasick.Matcher
}

// NewRuleSet compiles rules. Empty keywords are ignored; a keyword shared by
// several rules maps to all of them.
func NewRuleSet(rules []Rule) *RuleSet {
	rs := &RuleSet{names: make([]string, len(rules))}
	index := make(map[string]int)
	for ri, r := range rules {
		rs.names[ri] = r.Name
		for _, kw := range r.Keywords {
			if kw == "" {
				continue
			}
			ki, ok := index[kw]
			if !ok {
				ki = len(rs.keywords)
				index[kw] = ki
				rs.keywords = append(rs.keywords, kw)
				rs.kwToRules = append(rs.kwToRules, nil)
			}
			if !containsInt(rs.kwToRules[ki], ri) {
				rs.kwToRules[ki] = append(rs.kwToRules[ki], ri)
			}
		}
	}
	if len(rs.keywords) > 0 {
		rs.matcher = ahocorasick.NewStringMatcher(rs.keywords)
	}
	return rs
}

// First returns the index and name of the first declared rule matching text.
func (rs *RuleSet) First(text string) (int, string, bool) {
	if rs.matcher == nil || text == "" {
		return -1, "", false
	}
	best := -1
	for _, hit := range rs.matcher.MatchThreadSafe([]byte(text)) {
		if hit < 0 || hit >= len(rs.kwToRules) {
			continue
		}
		for _, ri := range rs.kwToRules[hit] {
			if best == -1 || ri < best {
				best = ri
			}
		}
	}
	if best == -1 {
		return -1, "", false
	}
	return best, rs.names[best], true
}

// Names returns rule names in declaration order.
func (rs *RuleSet) Names() []string {
	out := make([]string, len(rs.names))
	copy(out, rs.names)
	return out
}

// Set reports whether text contains any of a flat keyword list.
type Set struct {
	rules *RuleSet
}

func NewSet(keywords []string) *Set {
	return &Set{rules: NewRuleSet([]Rule{{Keywords: keywords}})}
}

// Any reports whether text contains at least one keyword.
func (s *Set) Any(text string) bool {
	_, _, ok := s.rules.First(text)
	return ok
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
