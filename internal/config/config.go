package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigNotFound is returned when the configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

// FieldError reports an invalid configuration value.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

type Rates struct {
	Maker decimal.Decimal `yaml:"maker"`
	Taker decimal.Decimal `yaml:"taker"`
}

type Engine struct {
	// StepSize is the quantity increment amount orders are rounded down to.
	StepSize decimal.Decimal `yaml:"step_size"`
	// PricePrecision is the number of decimal places each trade's fees are rounded to.
	PricePrecision int32 `yaml:"price_precision"`
}

type Fees struct {
	Default Rates           `yaml:"default"`
	Tiers   map[int16]Rates `yaml:"tiers"`
}

type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Journal struct {
	Path string `yaml:"path"`
}

type Config struct {
	Engine  Engine  `yaml:"engine"`
	Fees    Fees    `yaml:"fees"`
	Logging Logging `yaml:"logging"`
	Journal Journal `yaml:"journal"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: Engine{
			StepSize:       decimal.NewFromInt(1),
			PricePrecision: 2,
		},
		Fees: Fees{
			Default: Rates{
				Maker: decimal.RequireFromString("0.2"),
				Taker: decimal.RequireFromString("0.5"),
			},
		},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads a yaml file on top of Default, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !c.Engine.StepSize.IsPositive() {
		return &FieldError{Field: "engine.step_size", Err: errors.New("must be positive")}
	}
	if c.Engine.PricePrecision < 0 || c.Engine.PricePrecision > 8 {
		return &FieldError{Field: "engine.price_precision", Err: errors.New("must be between 0 and 8")}
	}
	if err := c.Fees.Default.validate("fees.default"); err != nil {
		return err
	}
	for id, rates := range c.Fees.Tiers {
		if err := rates.validate(fmt.Sprintf("fees.tiers.%d", id)); err != nil {
			return err
		}
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return &FieldError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}
	return nil
}

func (r Rates) validate(field string) error {
	if r.Maker.IsNegative() || r.Taker.IsNegative() {
		return &FieldError{Field: field, Err: errors.New("fee rates cannot be negative")}
	}
	return nil
}

func overrideWithEnv(cfg *Config) {
	if level := os.Getenv("ORDER_MATCHER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("ORDER_MATCHER_JOURNAL"); path != "" {
		cfg.Journal.Path = path
	}
}
