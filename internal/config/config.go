package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level beanflow.yaml configuration.
type Config struct {
	Ledger    LedgerConfig    `yaml:"ledger"`
	Detection DetectionConfig `yaml:"detection"`
	Git       GitConfig       `yaml:"git"`
}

// LedgerConfig identifies the ledger this project feeds.
type LedgerConfig struct {
	Name        string `yaml:"name"`
	FeesAccount string `yaml:"fees_account"` // counter-account for importer fee legs
}

// DetectionConfig tunes the transfer detector. All values have working
// defaults; they are configuration, not fixed behavior.
type DetectionConfig struct {
	WindowDays        int                `yaml:"window_days"`
	Workers           int                `yaml:"workers"`
	Weights           WeightsConfig      `yaml:"weights"`
	AmountTolerance   string             `yaml:"amount_tolerance"`   // absolute, in account currency units
	RelativeTolerance float64            `yaml:"relative_tolerance"` // e.g. 0.01 = 1%
	AmbiguityEpsilon  float64            `yaml:"ambiguity_epsilon"`
	CrossCurrencyCap  float64            `yaml:"cross_currency_cap"`
	ReferenceRates    map[string]float64 `yaml:"reference_rates,omitempty"` // "EUR/USD": 1.08
	NarrationPriority []string           `yaml:"narration_priority,omitempty"`
}

// WeightsConfig holds the scorer's sub-score weights.
type WeightsConfig struct {
	Date      float64 `yaml:"date"`
	Amount    float64 `yaml:"amount"`
	Narration float64 `yaml:"narration"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// ValidationError aggregates every configuration problem found before any
// transaction processing starts.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Issues, "; "))
}

// Load reads a beanflow.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with working defaults for a new project.
func Default(name string) *Config {
	return &Config{
		Ledger: LedgerConfig{
			Name:        name,
			FeesAccount: "Expenses:Fees",
		},
		Detection: DetectionConfig{
			WindowDays:        3,
			Workers:           4,
			Weights:           WeightsConfig{Date: 0.35, Amount: 0.45, Narration: 0.20},
			AmountTolerance:   "0.01",
			RelativeTolerance: 0.01,
			AmbiguityEpsilon:  0.05,
			CrossCurrencyCap:  0.6,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Beanflow",
			AuthorEmail: "beanflow@localhost",
		},
	}
}

// Validate checks the configuration. Extra issues (typically from account-map
// validation) are folded into the same error so the caller sees everything at
// once. Returns nil when there is nothing to report.
func (c *Config) Validate(extra ...string) error {
	var issues []string

	d := c.Detection
	if d.WindowDays < 0 {
		issues = append(issues, fmt.Sprintf("detection.window_days must be >= 0, got %d", d.WindowDays))
	}
	if d.Workers < 1 {
		issues = append(issues, fmt.Sprintf("detection.workers must be >= 1, got %d", d.Workers))
	}
	if d.Weights.Date < 0 || d.Weights.Amount < 0 || d.Weights.Narration < 0 {
		issues = append(issues, "detection.weights must be non-negative")
	}
	if d.Weights.Date+d.Weights.Amount+d.Weights.Narration <= 0 {
		issues = append(issues, "detection.weights must not all be zero")
	}
	if d.AmountTolerance != "" {
		if tol, err := decimal.NewFromString(d.AmountTolerance); err != nil {
			issues = append(issues, fmt.Sprintf("detection.amount_tolerance %q is not a decimal", d.AmountTolerance))
		} else if tol.IsNegative() {
			issues = append(issues, fmt.Sprintf("detection.amount_tolerance must be >= 0, got %s", tol))
		}
	}
	if d.RelativeTolerance < 0 {
		issues = append(issues, fmt.Sprintf("detection.relative_tolerance must be >= 0, got %g", d.RelativeTolerance))
	}
	if d.AmbiguityEpsilon < 0 {
		issues = append(issues, fmt.Sprintf("detection.ambiguity_epsilon must be >= 0, got %g", d.AmbiguityEpsilon))
	}
	if d.CrossCurrencyCap <= 0 || d.CrossCurrencyCap > 1 {
		issues = append(issues, fmt.Sprintf("detection.cross_currency_cap must be in (0,1], got %g", d.CrossCurrencyCap))
	}
	for pair, rate := range d.ReferenceRates {
		from, to, ok := strings.Cut(pair, "/")
		if !ok || len(from) != 3 || len(to) != 3 {
			issues = append(issues, fmt.Sprintf("detection.reference_rates: key %q is not of the form XXX/YYY", pair))
		}
		if rate <= 0 {
			issues = append(issues, fmt.Sprintf("detection.reference_rates[%q] must be > 0, got %g", pair, rate))
		}
	}

	issues = append(issues, extra...)
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
