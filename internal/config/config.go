package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"browsify-profiler/internal/models"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type ClusteringConfig struct {
	K             int     `yaml:"k"`              // number of interest clusters
	Seed          int64   `yaml:"seed"`           // centroid initialisation seed
	MaxIterations int     `yaml:"max_iterations"` // Lloyd iteration cap
	Tolerance     float64 `yaml:"tolerance"`      // max centroid shift treated as converged
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxUploadMB  int64  `yaml:"max_upload_mb"`
	FetchTimeout string `yaml:"fetch_timeout"` // e.g. 20s
}

// Config is the full tunable surface of the profiler.
type Config struct {
	Categories        []models.CategoryRule `yaml:"categories"` // declaration order is the tie-break
	AddictionKeywords []string              `yaml:"addiction_keywords"`
	PrivacyKeywords   []string              `yaml:"privacy_keywords"`
	AgeRules          []models.LabelRule    `yaml:"age_rules"`
	DefaultAgeGroup   string                `yaml:"default_age_group"`
	LocationRules     []models.LabelRule    `yaml:"location_rules"`
	DefaultLocation   string                `yaml:"default_location"`
	Clustering        ClusteringConfig      `yaml:"clustering"`
	RiskThreshold     float64               `yaml:"risk_threshold"`
	TimestampLayouts  []string              `yaml:"timestamp_layouts"`
	Dedupe            bool                  `yaml:"dedupe"`
	Logging           LoggingConfig         `yaml:"logging"`
	Server            ServerConfig          `yaml:"server"`
}

// Default returns the built-in rule tables.
func Default() Config {
	return Config{
		Categories: []models.CategoryRule{
			{Name: "health", Keywords: []string{"healthline", "fitness", "wellness", "medical"}},
			{Name: "shopping", Keywords: []string{"amazon", "nike", "ebay", "shop"}},
			{Name: "news", Keywords: []string{"nytimes", "bbc", "cnn", "theguardian"}},
			{Name: "social_media", Keywords: []string{"facebook", "instagram", "twitter", "reddit"}},
			{Name: "technology", Keywords: []string{"techcrunch", "wired", "theverge"}},
			{Name: "education", Keywords: []string{"coursera", "edx", "khanacademy"}},
		},
		AddictionKeywords: []string{"gaming", "gambling"},
		PrivacyKeywords:   []string{"phishing", "malware", "data-leak"},
		AgeRules: []models.LabelRule{
			{Label: "18-25", Keywords: []string{"instagram", "tiktok"}},
			{Label: "25-40", Keywords: []string{"linkedin", "career"}},
		},
		DefaultAgeGroup: "40+",
		LocationRules: []models.LabelRule{
			{Label: "United Kingdom", Keywords: []string{"uk"}},
			{Label: "India", Keywords: []string{"in"}},
		},
		DefaultLocation: "Other",
		Clustering: ClusteringConfig{
			K:             5,
			Seed:          0,
			MaxIterations: 300,
			Tolerance:     1e-4,
		},
		RiskThreshold: 0.05,
		TimestampLayouts: []string{
			"2006-01-02T15:04:05.999999999Z07:00",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05.999999999Z07:00",
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
			"2006-01-02",
			"01/02/2006 15:04:05",
			"01/02/2006 15:04",
			"01/02/2006",
			"20060102",
		},
		Logging: LoggingConfig{Level: "info"},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxUploadMB:  32,
			FetchTimeout: "20s",
		},
	}
}

// Load overlays the YAML file at path onto Default. An empty path returns the defaults.
// Lists in the file replace the default lists wholesale.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports misconfiguration. All problems are joined into one error.
func (c Config) Validate() error {
	var errs []error
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("categories: at least one rule is required"))
	}
	seen := make(map[string]bool, len(c.Categories))
	for i, r := range c.Categories {
		switch {
		case r.Name == "":
			errs = append(errs, fmt.Errorf("categories[%d]: name is required", i))
		case r.Name == models.CategoryOther:
			errs = append(errs, fmt.Errorf("categories[%d]: %q is reserved for unmatched domains", i, r.Name))
		case seen[r.Name]:
			errs = append(errs, fmt.Errorf("categories[%d]: duplicate name %q", i, r.Name))
		}
		seen[r.Name] = true
		if !hasKeyword(r.Keywords) {
			errs = append(errs, fmt.Errorf("categories[%d] %q: at least one keyword is required", i, r.Name))
		}
	}
	for i, r := range c.AgeRules {
		if r.Label == "" {
			errs = append(errs, fmt.Errorf("age_rules[%d]: label is required", i))
		}
	}
	for i, r := range c.LocationRules {
		if r.Label == "" {
			errs = append(errs, fmt.Errorf("location_rules[%d]: label is required", i))
		}
	}
	if c.DefaultAgeGroup == "" {
		errs = append(errs, errors.New("default_age_group is required"))
	}
	if c.DefaultLocation == "" {
		errs = append(errs, errors.New("default_location is required"))
	}
	if c.Clustering.K <= 0 {
		errs = append(errs, fmt.Errorf("clustering.k must be positive, got %d", c.Clustering.K))
	}
	if c.Clustering.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("clustering.max_iterations must be positive, got %d", c.Clustering.MaxIterations))
	}
	if c.Clustering.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("clustering.tolerance must not be negative, got %g", c.Clustering.Tolerance))
	}
	if c.RiskThreshold < 0 || c.RiskThreshold >= 1 {
		errs = append(errs, fmt.Errorf("risk_threshold must be in [0,1), got %g", c.RiskThreshold))
	}
	if len(c.TimestampLayouts) == 0 {
		errs = append(errs, errors.New("timestamp_layouts: at least one layout is required"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func hasKeyword(kws []string) bool {
	for _, k := range kws {
		if k != "" {
			return true
		}
	}
	return false
}
