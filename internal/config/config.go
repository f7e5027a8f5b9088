package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"cycle-planner/internal/models"
)

// Config represents the application configuration
type Config struct {
	Jira       JiraConfig               `yaml:"jira"`
	HR         HRConfig                 `yaml:"hr"`
	Anthropic  AnthropicConfig          `yaml:"anthropic"`
	Planning   PlanningConfig           `yaml:"planning"`
	Teams      []TeamConfig             `yaml:"teams"`
	Quarters   map[string]QuarterConfig `yaml:"quarters"`
	Categories []CategoryConfig         `yaml:"categories"`
}

// JiraConfig represents JIRA API configuration
type JiraConfig struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
	Timeout  int    `yaml:"timeout_seconds"`
}

// HRConfig represents the HR time-off API configuration. All fields are
// optional; an unconfigured client degrades to a zero PTO reduction.
type HRConfig struct {
	Subdomain string `yaml:"subdomain"`
	APIKey    string `yaml:"api_key"`
	Timeout   int    `yaml:"timeout_seconds"`
}

// AnthropicConfig represents the optional AI summary configuration
type AnthropicConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PlanningConfig represents tunables of the planning jobs
type PlanningConfig struct {
	OutputDir       string  `yaml:"output_dir"`
	LinkType        string  `yaml:"link_type"`
	MaxDepth        int     `yaml:"max_depth"`
	RequestDelayMs  int     `yaml:"request_delay_ms"`
	DefaultVelocity float64 `yaml:"default_velocity"`
	SprintsPerCycle int     `yaml:"sprints_per_cycle"`
	SprintWeeks     int     `yaml:"sprint_weeks"`
	ExcludeResolved bool    `yaml:"exclude_resolved"`
}

// TeamConfig represents one team's capacity profile
type TeamConfig struct {
	Name            string    `yaml:"name"`
	Aliases         []string  `yaml:"aliases"`
	Headcount       int       `yaml:"headcount"`
	Roster          []string  `yaml:"roster"`
	BoardID         int       `yaml:"board_id"`
	VelocitySamples []float64 `yaml:"velocity_samples"`
}

// CategoryConfig represents one keyword category for ticket classification
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// QuarterConfig represents one planning period's date range (DD-MM-YYYY)
type QuarterConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Planning.LinkType == "" {
		c.Planning.LinkType = "Polaris work item link"
	}
	if c.Planning.MaxDepth == 0 {
		c.Planning.MaxDepth = 3
	}
	if c.Planning.DefaultVelocity == 0 {
		c.Planning.DefaultVelocity = 20
	}
	if c.Planning.SprintsPerCycle == 0 {
		c.Planning.SprintsPerCycle = 3
	}
	if c.Planning.SprintWeeks == 0 {
		c.Planning.SprintWeeks = 2
	}
	if c.Planning.OutputDir == "" {
		c.Planning.OutputDir = "output"
	}
	if c.Jira.Timeout == 0 {
		c.Jira.Timeout = 30
	}
	if c.HR.Timeout == 0 {
		c.HR.Timeout = 30
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-3-haiku-20240307"
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = 1024
	}
	if c.Anthropic.TimeoutSeconds == 0 {
		c.Anthropic.TimeoutSeconds = 60
	}
	if len(c.Categories) == 0 {
		c.Categories = []CategoryConfig{
			{Name: "Voice", Keywords: []string{"voice"}},
			{Name: "Analytics/CIP", Keywords: []string{"analytics", "cip", "call-information-processing", "[AN]"}},
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Jira.BaseURL == "" {
		return fmt.Errorf("JIRA base URL is required")
	}

	if c.Jira.Email == "" {
		return fmt.Errorf("JIRA email is required")
	}

	if c.Jira.APIToken == "" {
		return fmt.Errorf("JIRA API token is required")
	}

	for _, team := range c.Teams {
		if team.Name == "" {
			return fmt.Errorf("team name is required")
		}
	}

	for _, category := range c.Categories {
		if category.Name == "" {
			return fmt.Errorf("category name is required")
		}
		if len(category.Keywords) == 0 {
			return fmt.Errorf("category %s has no keywords", category.Name)
		}
	}

	for key, q := range c.Quarters {
		if _, err := parseDate(q.Start); err != nil {
			return fmt.Errorf("quarter %s has invalid start date: %w", key, err)
		}
		if _, err := parseDate(q.End); err != nil {
			return fmt.Errorf("quarter %s has invalid end date: %w", key, err)
		}
	}

	return nil
}

// TeamProfile resolves a team name or alias to its capacity profile. The
// second return value is false when the team has no configuration; callers
// fall back to documented defaults rather than failing.
func (c *Config) TeamProfile(name string) (models.TeamCapacityProfile, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, team := range c.Teams {
		if strings.ToLower(team.Name) == lower {
			return team.toProfile(), true
		}
		for _, alias := range team.Aliases {
			if strings.ToLower(alias) == lower {
				return team.toProfile(), true
			}
		}
	}
	return models.TeamCapacityProfile{Name: name}, false
}

func (t TeamConfig) toProfile() models.TeamCapacityProfile {
	return models.TeamCapacityProfile{
		Name:            t.Name,
		Aliases:         t.Aliases,
		Headcount:       t.Headcount,
		Roster:          t.Roster,
		BoardID:         t.BoardID,
		VelocitySamples: t.VelocitySamples,
	}
}

// KeywordCategories returns the configured classification categories as
// domain values.
func (c *Config) KeywordCategories() []models.KeywordCategory {
	out := make([]models.KeywordCategory, 0, len(c.Categories))
	for _, category := range c.Categories {
		out = append(out, models.KeywordCategory{Name: category.Name, Keywords: category.Keywords})
	}
	return out
}

// QuarterRange resolves a cycle label (either the JIRA form 26'Q1.C1 or the
// config key form q126c1) to its configured date range.
func (c *Config) QuarterRange(label string) (models.DateRange, bool) {
	key := CycleKey(label)
	q, ok := c.Quarters[key]
	if !ok {
		return models.DateRange{Label: label}, false
	}

	start, err := parseDate(q.Start)
	if err != nil {
		return models.DateRange{Label: label}, false
	}
	end, err := parseDate(q.End)
	if err != nil {
		return models.DateRange{Label: label}, false
	}

	return models.DateRange{Label: label, Start: start, End: end}, true
}

// CycleKey normalizes a cycle label to the config key form, e.g.
// 26'Q1.C1 -> q126c1.
func CycleKey(label string) string {
	cleaned := strings.ToLower(label)
	cleaned = strings.NewReplacer("'", "", "’", "", ".", "").Replace(cleaned)
	// JIRA form puts the year first (26q1c1); config keys put the quarter
	// first (q126c1).
	if len(cleaned) >= 6 && cleaned[0] >= '0' && cleaned[0] <= '9' {
		year := cleaned[:2]
		rest := cleaned[2:]
		if strings.HasPrefix(rest, "q") && len(rest) >= 2 {
			return "q" + rest[1:2] + year + rest[2:]
		}
	}
	return cleaned
}

// parseDate parses the DD-MM-YYYY format used in quarter config.
func parseDate(s string) (time.Time, error) {
	return time.Parse("02-01-2006", strings.TrimSpace(s))
}
