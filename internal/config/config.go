// Package config loads the evaluator's YAML configuration with defaults,
// validation, and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the top-level configuration.
type Config struct {
	Dataset   string `yaml:"dataset" validate:"required"`
	AssetType string `yaml:"asset_type" default:"stocks" validate:"oneof=stocks crypto"`

	API struct {
		BaseURL         string        `yaml:"base_url"`
		DecisionBaseURL string        `yaml:"decision_base_url"`
		Token           string        `yaml:"token"`
		Timeout         time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"api"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	ClickHouse struct {
		DSN string `yaml:"dsn"`
	} `yaml:"clickhouse"`

	Evaluation struct {
		STDays     int     `yaml:"st_days" default:"20" validate:"gt=0"`
		MTDays     int     `yaml:"mt_days" default:"100" validate:"gt=0"`
		LTDays     int     `yaml:"lt_days" default:"250" validate:"gt=0"`
		OutlierPct float64 `yaml:"outlier_pct" default:"50" validate:"gt=0"`
		Workers    int     `yaml:"workers" default:"4" validate:"gte=1"`
	} `yaml:"evaluation"`

	Output struct {
		Dir string `yaml:"dir" default:"output"`
	} `yaml:"output"`
}

// Load reads and parses a YAML configuration file, applies defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PERF_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("PERF_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("PERF_CLICKHOUSE_DSN"); v != "" {
		c.ClickHouse.DSN = v
	}
	if v := os.Getenv("PERF_DATASET"); v != "" {
		c.Dataset = v
	}
	if v := os.Getenv("PERF_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse PERF_WORKERS: %w", err)
		}
		c.Evaluation.Workers = n
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fields := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}

	// The horizons must nest, shortest to longest.
	e := c.Evaluation
	if !(e.STDays < e.MTDays && e.MTDays < e.LTDays) {
		return fmt.Errorf("horizon windows must satisfy st < mt < lt, got %d/%d/%d",
			e.STDays, e.MTDays, e.LTDays)
	}

	return nil
}
