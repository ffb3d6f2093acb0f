// Package config loads pageview settings from a YAML file and
// PAGEVIEW_* environment variables, then validates them against an
// embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pageview/internal/pager"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PAGEVIEW_"

// DefaultRowHeight makes the default threshold about three rows.
const DefaultRowHeight = 100

// Source kinds.
const (
	SourceSQLite = "sqlite"
	SourceHTTP   = "http"
)

// Config holds view and source settings.
type Config struct {
	PageSize  int          `yaml:"page_size" json:"page_size" env:"PAGE_SIZE"`
	Threshold float64      `yaml:"threshold" json:"threshold" env:"THRESHOLD"`
	RowHeight float64      `yaml:"row_height" json:"row_height" env:"ROW_HEIGHT"`
	Columns   []string     `yaml:"columns" json:"columns" env:"COLUMNS" envSeparator:","`
	Source    SourceConfig `yaml:"source" json:"source" envPrefix:"SOURCE_"`
}

// SourceConfig selects where pages come from.
type SourceConfig struct {
	Kind       string        `yaml:"kind" json:"kind" env:"KIND"`
	Database   string        `yaml:"database,omitempty" json:"database,omitempty" env:"DATABASE"`
	URL        string        `yaml:"url,omitempty" json:"url,omitempty" env:"URL"`
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" env:"TIMEOUT"`
	MaxRetries int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty" env:"MAX_RETRIES"`
}

// Default returns the built-in configuration: the datasets table of a
// local SQLite database.
func Default() Config {
	return Config{
		PageSize:  pager.DefaultPageSize,
		Threshold: pager.DefaultThreshold,
		RowHeight: DefaultRowHeight,
		Columns:   []string{"name", "description", "metadata", "created_at"},
		Source: SourceConfig{
			Kind:       SourceSQLite,
			Database:   "pageview.db",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides, in that order, and validates
// the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readFile overlays the YAML file onto cfg. Unknown keys are rejected.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration against the CUE schema.
func (c Config) Validate() error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename("config.json"))
	if err := value.Err(); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}

// PagerColumns converts the configured column names into pager columns.
func (c Config) PagerColumns() []pager.Column {
	return pager.Columns(c.Columns...)
}

// ViewOptions returns the pager options implied by the configuration.
func (c Config) ViewOptions() []pager.Option {
	return []pager.Option{
		pager.WithPageSize(c.PageSize),
		pager.WithThreshold(c.Threshold),
	}
}
