package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/expenses/internal/naming"
)

// Environment variables that override the file.
const (
	EnvToken     = "MONZO_TOKEN"
	EnvAccountID = "MONZO_ACCOUNT_ID"
	EnvBaseURL   = "MONZO_BASE_URL"
)

// Config represents the top-level expenses.yaml configuration.
type Config struct {
	Monzo            MonzoConfig   `yaml:"monzo"`
	Output           OutputConfig  `yaml:"output"`
	ExpenseCategory  string        `yaml:"expense_category"`
	DownloadReceipts bool          `yaml:"download_receipts"`
	StartDate        civil.Date    `yaml:"start_date"` // inclusive
	EndDate          civil.Date    `yaml:"end_date"`   // inclusive
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	Git              GitConfig     `yaml:"git"`
}

// MonzoConfig identifies the account and how to reach the API.
type MonzoConfig struct {
	BaseURL      string `yaml:"base_url"`
	AccountID    string `yaml:"account_id"`
	Token        string `yaml:"token,omitempty"`
	HomeCurrency string `yaml:"home_currency"`
}

// OutputConfig controls where and how files are written.
type OutputConfig struct {
	Folder           string `yaml:"folder"`
	FilenameTemplate string `yaml:"filename_template"` // placeholders: {start} {end} {tag}
	DateFormat       string `yaml:"date_format"`       // strftime, e.g. "%Y%m%d"
}

// GitConfig controls committing the output folder after a run.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads an expenses.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults. The date range covers
// the previous calendar month.
func Default() *Config {
	now := time.Now()
	firstOfMonth := civil.Date{Year: now.Year(), Month: now.Month(), Day: 1}
	lastMonth := civil.DateOf(now.AddDate(0, 0, 1-now.Day()).AddDate(0, -1, 0))
	return &Config{
		Monzo: MonzoConfig{
			BaseURL:      "https://api.monzo.com",
			HomeCurrency: "GBP",
		},
		Output: OutputConfig{
			Folder:           "receipts",
			FilenameTemplate: naming.DefaultReportTemplate,
			DateFormat:       naming.DefaultDateFormat,
		},
		ExpenseCategory:  "expenses",
		DownloadReceipts: true,
		StartDate:        lastMonth,
		EndDate:          firstOfMonth.AddDays(-1),
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Expenses Bot",
			AuthorEmail: "expenses@localhost",
		},
	}
}

// ApplyEnv loads envFile if it exists, then lets the process environment
// override the API credentials.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Monzo.Token = v
	}
	if v := os.Getenv(EnvAccountID); v != "" {
		cfg.Monzo.AccountID = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Monzo.BaseURL = v
	}
	return nil
}

// Validate checks that a run can start with this configuration.
func (c *Config) Validate() error {
	var problems []string
	if c.Monzo.AccountID == "" {
		problems = append(problems, "monzo.account_id is required (or set "+EnvAccountID+")")
	}
	if c.Monzo.Token == "" {
		problems = append(problems, "monzo.token is required (or set "+EnvToken+")")
	}
	if c.Monzo.HomeCurrency == "" {
		problems = append(problems, "monzo.home_currency is required")
	}
	if c.Output.Folder == "" {
		problems = append(problems, "output.folder is required")
	}
	if c.Output.FilenameTemplate == "" {
		problems = append(problems, "output.filename_template is required")
	}
	if c.ExpenseCategory == "" {
		problems = append(problems, "expense_category is required")
	}
	if !c.StartDate.IsValid() {
		problems = append(problems, "start_date is not a valid date")
	}
	if !c.EndDate.IsValid() {
		problems = append(problems, "end_date is not a valid date")
	}
	if c.StartDate.IsValid() && c.EndDate.IsValid() && c.EndDate.Before(c.StartDate) {
		problems = append(problems, fmt.Sprintf("end_date %s is before start_date %s", c.EndDate, c.StartDate))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
