// Package config provides configuration loading and validation for the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. APPLY_LOCATION.
const EnvPrefix = "APPLY"

// Partial-success policies for the company-site flow.
const (
	PartialSuccessOptimistic   = "optimistic"
	PartialSuccessConservative = "conservative"
)

// PacingConfig holds the jittered delay bounds between actions, jobs and keywords.
type PacingConfig struct {
	ActionMin  time.Duration `mapstructure:"action_min" json:"action_min"`
	ActionMax  time.Duration `mapstructure:"action_max" json:"action_max"`
	JobMin     time.Duration `mapstructure:"job_min" json:"job_min"`
	JobMax     time.Duration `mapstructure:"job_max" json:"job_max"`
	KeywordMin time.Duration `mapstructure:"keyword_min" json:"keyword_min"`
	KeywordMax time.Duration `mapstructure:"keyword_max" json:"keyword_max"`
}

// Config represents the run configuration loaded from a JSON or YAML file.
// It is built once at startup and passed explicitly; nothing mutates it afterwards.
type Config struct {
	// Search
	Keywords          []string `mapstructure:"keywords" json:"keywords,omitempty" validate:"dive,required"`
	Location          string   `mapstructure:"location" json:"location,omitempty"`
	MaxJobsPerKeyword int      `mapstructure:"max_jobs_per_keyword" json:"max_jobs_per_keyword,omitempty" validate:"gte=0"`
	TargetRoles       []string `mapstructure:"target_roles" json:"target_roles,omitempty"`
	BaseURL           string   `mapstructure:"base_url" json:"base_url,omitempty" validate:"omitempty,url"`

	// Behavior
	SkipAppliedJobs    bool          `mapstructure:"skip_applied_jobs" json:"skip_applied_jobs"`
	HandleCompanySites bool          `mapstructure:"handle_company_sites" json:"handle_company_sites"`
	MaxEasyApplySteps  int           `mapstructure:"max_easy_apply_steps" json:"max_easy_apply_steps,omitempty" validate:"gte=0"`
	PartialSuccess     string        `mapstructure:"partial_success" json:"partial_success,omitempty" validate:"omitempty,oneof=optimistic conservative"`
	LocatorTimeout     time.Duration `mapstructure:"locator_timeout" json:"locator_timeout,omitempty" validate:"gte=0"`
	Headless           bool          `mapstructure:"headless" json:"headless"`
	Pacing             PacingConfig  `mapstructure:"pacing" json:"pacing"`

	// Applicant
	ResumePath    string            `mapstructure:"resume_path" json:"resume_path,omitempty"`
	ProfileValues map[string]string `mapstructure:"profile" json:"profile,omitempty"`

	// Storage
	LedgerPath  string `mapstructure:"ledger_path" json:"ledger_path,omitempty"`
	DatabaseURL string `mapstructure:"database_url" json:"database_url,omitempty"`

	// Observability
	LogLevel    string `mapstructure:"log_level" json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string `mapstructure:"log_format" json:"log_format,omitempty" validate:"omitempty,oneof=console json"`
	MetricsFile string `mapstructure:"metrics_file" json:"metrics_file,omitempty"`

	APIKey string `mapstructure:"api_key" json:"api_key,omitempty"` // Gemini API key for answer suggestions
}

// DefaultTargetRoles are the title keywords a posting must contain to be considered.
var DefaultTargetRoles = []string{
	"data analyst", "data analysis", "data science", "data scientist",
	"python developer", "python", "data engineer", "machine learning",
	"business analyst", "analytics", "bi analyst", "sql",
}

// Defaults returns the configuration used when no file overrides a value.
func Defaults() Config {
	return Config{
		Keywords:           []string{"data analyst"},
		MaxJobsPerKeyword:  25,
		TargetRoles:        append([]string(nil), DefaultTargetRoles...),
		BaseURL:            "https://www.linkedin.com",
		SkipAppliedJobs:    true,
		HandleCompanySites: true,
		MaxEasyApplySteps:  5,
		PartialSuccess:     PartialSuccessOptimistic,
		LocatorTimeout:     3 * time.Second,
		Pacing: PacingConfig{
			ActionMin:  2 * time.Second,
			ActionMax:  5 * time.Second,
			JobMin:     5 * time.Second,
			JobMax:     8 * time.Second,
			KeywordMin: 8 * time.Second,
			KeywordMax: 15 * time.Second,
		},
		LedgerPath: "applied_jobs.json",
		LogLevel:   "info",
		LogFormat:  "console",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, layered over Defaults
// and APPLY_* environment variables.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns Defaults with APPLY_* environment overrides applied. Used when no file is given.
func FromEnv() (*Config, error) {
	v := newViper()
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("keywords", d.Keywords)
	v.SetDefault("location", d.Location)
	v.SetDefault("max_jobs_per_keyword", d.MaxJobsPerKeyword)
	v.SetDefault("target_roles", d.TargetRoles)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("skip_applied_jobs", d.SkipAppliedJobs)
	v.SetDefault("handle_company_sites", d.HandleCompanySites)
	v.SetDefault("max_easy_apply_steps", d.MaxEasyApplySteps)
	v.SetDefault("partial_success", d.PartialSuccess)
	v.SetDefault("locator_timeout", d.LocatorTimeout)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("pacing.action_min", d.Pacing.ActionMin)
	v.SetDefault("pacing.action_max", d.Pacing.ActionMax)
	v.SetDefault("pacing.job_min", d.Pacing.JobMin)
	v.SetDefault("pacing.job_max", d.Pacing.JobMax)
	v.SetDefault("pacing.keyword_min", d.Pacing.KeywordMin)
	v.SetDefault("pacing.keyword_max", d.Pacing.KeywordMax)
	v.SetDefault("resume_path", d.ResumePath)
	v.SetDefault("ledger_path", d.LedgerPath)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("api_key", d.APIKey)
	return v
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	bounds := []struct {
		name     string
		min, max time.Duration
	}{
		{"action", c.Pacing.ActionMin, c.Pacing.ActionMax},
		{"job", c.Pacing.JobMin, c.Pacing.JobMax},
		{"keyword", c.Pacing.KeywordMin, c.Pacing.KeywordMax},
	}
	for _, b := range bounds {
		if b.min < 0 || b.max < 0 {
			return fmt.Errorf("config error: 'pacing.%s' bounds must be non-negative", b.name)
		}
		if b.max < b.min {
			return fmt.Errorf("config error: 'pacing.%s_max' must not be less than 'pacing.%s_min'", b.name, b.name)
		}
	}

	if c.LedgerPath == "" && c.DatabaseURL == "" {
		return fmt.Errorf("config error: one of 'ledger_path' or 'database_url' is required")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Bools are not merged: an unset bool cannot be told apart from false.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if len(result.Keywords) == 0 {
		result.Keywords = defaults.Keywords
	}
	if len(result.TargetRoles) == 0 {
		result.TargetRoles = defaults.TargetRoles
	}
	if result.Location == "" {
		result.Location = defaults.Location
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.PartialSuccess == "" {
		result.PartialSuccess = defaults.PartialSuccess
	}
	if result.ResumePath == "" {
		result.ResumePath = defaults.ResumePath
	}
	if result.LedgerPath == "" {
		result.LedgerPath = defaults.LedgerPath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.MetricsFile == "" {
		result.MetricsFile = defaults.MetricsFile
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}

	if result.MaxJobsPerKeyword == 0 {
		result.MaxJobsPerKeyword = defaults.MaxJobsPerKeyword
	}
	if result.MaxEasyApplySteps == 0 {
		result.MaxEasyApplySteps = defaults.MaxEasyApplySteps
	}
	if result.LocatorTimeout == 0 {
		result.LocatorTimeout = defaults.LocatorTimeout
	}
	if result.Pacing == (PacingConfig{}) {
		result.Pacing = defaults.Pacing
	}

	if len(defaults.ProfileValues) > 0 {
		merged := make(map[string]string, len(defaults.ProfileValues)+len(result.ProfileValues))
		for k, v := range defaults.ProfileValues {
			merged[k] = v
		}
		for k, v := range result.ProfileValues {
			if strings.TrimSpace(v) != "" {
				merged[k] = v
			}
		}
		result.ProfileValues = merged
	}

	return result
}

// Profile returns the applicant profile as an immutable value.
func (c *Config) Profile() types.Profile {
	return types.NewProfile(c.ProfileValues)
}

// ResumeAvailable reports whether a resume path is configured and exists on disk.
func (c *Config) ResumeAvailable() bool {
	if c.ResumePath == "" {
		return false
	}
	info, err := os.Stat(c.ResumePath)
	return err == nil && !info.IsDir()
}

// Optimistic reports whether a company-site form without a submit control counts as applied.
func (c *Config) Optimistic() bool {
	return c.PartialSuccess != PartialSuccessConservative
}
