package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browsify-profiler/internal/models"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Clustering.K)
	assert.InDelta(t, 0.05, cfg.RiskThreshold, 1e-12)
	assert.Equal(t, "health", cfg.Categories[0].Name)
	assert.Equal(t, []string{"health", "shopping", "news", "social_media", "technology", "education"}, categoryNames(cfg))
}

func TestValidateRejectsMisconfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no categories", func(c *Config) { c.Categories = nil }},
		{"zero clusters", func(c *Config) { c.Clustering.K = 0 }},
		{"negative clusters", func(c *Config) { c.Clustering.K = -2 }},
		{"no iterations", func(c *Config) { c.Clustering.MaxIterations = 0 }},
		{"threshold too high", func(c *Config) { c.RiskThreshold = 1 }},
		{"negative threshold", func(c *Config) { c.RiskThreshold = -0.1 }},
		{"duplicate category", func(c *Config) {
			c.Categories = append(c.Categories, models.CategoryRule{Name: "news", Keywords: []string{"x"}})
		}},
		{"reserved category", func(c *Config) {
			c.Categories = append(c.Categories, models.CategoryRule{Name: "other", Keywords: []string{"x"}})
		}},
		{"category without keywords", func(c *Config) {
			c.Categories = []models.CategoryRule{{Name: "empty", Keywords: []string{""}}}
		}},
		{"no layouts", func(c *Config) { c.TimestampLayouts = nil }},
		{"no default location", func(c *Config) { c.DefaultLocation = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiler.yaml")
	body := `
categories:
  - name: sport
    keywords: [espn, nba]
  - name: news
    keywords: [bbc]
clustering:
  k: 3
risk_threshold: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"sport", "news"}, categoryNames(cfg))
	assert.Equal(t, 3, cfg.Clustering.K)
	assert.Equal(t, 300, cfg.Clustering.MaxIterations, "unset fields keep defaults")
	assert.InDelta(t, 0.2, cfg.RiskThreshold, 1e-12)
	assert.Equal(t, []string{"gaming", "gambling"}, cfg.AddictionKeywords)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().DefaultLocation, cfg.DefaultLocation)
}

func categoryNames(cfg Config) []string {
	var out []string
	for _, r := range cfg.Categories {
		out = append(out, r.Name)
	}
	return out
}
