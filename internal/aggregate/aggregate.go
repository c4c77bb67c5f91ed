// Package aggregate computes read-only summaries over an enriched event collection.
package aggregate

import (
	"sort"

	"browsify-profiler/internal/models"
)

// ActivityByHour counts events per hour of day. Hours without events have no entry.
func ActivityByHour(events models.EventCollection) map[int]int {
	out := make(map[int]int)
	for _, e := range events {
		out[e.Hour]++
	}
	return out
}

// ActivityByDay counts events per weekday (0=Monday).
func ActivityByDay(events models.EventCollection) map[int]int {
	out := make(map[int]int)
	for _, e := range events {
		out[e.DayOfWeek]++
	}
	return out
}

// SessionDurationByCategory is the mean hour of day of the events in each category.
// It is a "typical time of day" proxy, not a wall-clock duration.
func SessionDurationByCategory(events models.EventCollection) map[string]float64 {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, e := range events {
		if e.Category == "" {
			continue
		}
		sums[e.Category] += e.Hour
		counts[e.Category]++
	}
	out := make(map[string]float64, len(counts))
	for c, n := range counts {
		out[c] = float64(sums[c]) / float64(n)
	}
	return out
}

// InterestSummary counts events per category, most frequent first. Ties follow order;
// categories missing from order sort after it by name.
func InterestSummary(events models.EventCollection, order []string) []models.CategoryCount {
	freq := map[string]int{}
	for _, e := range events {
		if e.Category != "" {
			freq[e.Category]++
		}
	}
	rank := Rank(order)
	list := make([]models.CategoryCount, 0, len(freq))
	for k, v := range freq {
		list = append(list, models.CategoryCount{Category: k, Count: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return rank.Less(list[i].Category, list[j].Category)
	})
	return list
}

// TopDomains returns the n most visited domains, ties by name.
func TopDomains(events models.EventCollection, n int) []models.DomainCount {
	freq := map[string]int{}
	for _, e := range events {
		if e.HasDomain() {
			freq[e.Domain]++
		}
	}
	list := make([]models.DomainCount, 0, len(freq))
	for k, v := range freq {
		list = append(list, models.DomainCount{Domain: k, Count: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count == list[j].Count {
			return list[i].Domain < list[j].Domain
		}
		return list[i].Count > list[j].Count
	})
	if n >= 0 && n < len(list) {
		list = list[:n]
	}
	return list
}

// Ranking orders labels by a declared sequence; unknown labels sort last, by name.
type Ranking map[string]int

func Rank(order []string) Ranking {
	r := make(Ranking, len(order))
	for i, name := range order {
		if _, ok := r[name]; !ok {
			r[name] = i
		}
	}
	return r
}

func (r Ranking) Less(a, b string) bool {
	ra, oka := r[a]
	rb, okb := r[b]
	switch {
	case oka && okb:
		return ra < rb
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}
