package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleSetFirstDeclaredWins(t *testing.T) {
	rs := NewRuleSet([]Rule{
		{Name: "shopping", Keywords: []string{"amazon", "shop"}},
		{Name: "news", Keywords: []string{"bbc", "news"}},
	})

	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"amazon.com", "shopping", true},
		{"bbc.co.uk", "news", true},
		{"newsshop.com", "shopping", true}, // both match, shopping declared first
		{"example.org", "", false},
		{"", "", false},
		{"Amazon.com", "", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, got, ok := rs.First(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleSetSharedKeyword(t *testing.T) {
	rs := NewRuleSet([]Rule{
		{Name: "a", Keywords: []string{"x"}},
		{Name: "b", Keywords: []string{"shared", "y"}},
		{Name: "c", Keywords: []string{"shared"}},
	})
	idx, name, ok := rs.First("the-shared-site")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "b", name)
	assert.Equal(t, []string{"a", "b", "c"}, rs.Names())
}

func TestRuleSetNoKeywords(t *testing.T) {
	rs := NewRuleSet([]Rule{{Name: "empty", Keywords: []string{""}}})
	_, _, ok := rs.First("anything")
	assert.False(t, ok)
}

func TestSetAny(t *testing.T) {
	s := NewSet([]string{"gaming", "gambling"})
	assert.True(t, s.Any("https://gambling-site.com/play"))
	assert.False(t, s.Any("https://example.com"))
	assert.False(t, NewSet(nil).Any("gaming"))
}
