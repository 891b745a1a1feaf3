// Package config exposes the run configuration loaded from YAML, overlaid on
// documented defaults and overridable from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/signal"
)

// Environment variables that override file values.
const (
	EnvPostgresDSN   = "NBF_POSTGRES_DSN"
	EnvClickHouseDSN = "NBF_CLICKHOUSE_DSN"
	EnvDuckDBPath    = "NBF_DUCKDB_PATH"
	EnvLogLevel      = "NBF_LOG_LEVEL"
)

// Config is the immutable run configuration handed to the pipeline.
type Config struct {
	App        App        `yaml:"app"`
	Run        Run        `yaml:"run"`
	Thresholds Thresholds `yaml:"thresholds"`
	Joint      Joint      `yaml:"joint"`
	Inputs     Inputs     `yaml:"inputs"`
	Output     Output     `yaml:"output"`
	Storage    Storage    `yaml:"storage"`
}

// App holds process settings.
type App struct {
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	MetricsAddr string `yaml:"metrics_addr"`
	Schedule    string `yaml:"schedule"` // standard 5-field cron spec; empty runs once
}

// Run selects the instrument, date range and classifier.
type Run struct {
	Instrument string `yaml:"instrument" validate:"required"`
	StartDate  int    `yaml:"start_date" validate:"tradedate"`
	EndDate    int    `yaml:"end_date" validate:"tradedate,gtefield=StartDate"`
	Variant    string `yaml:"variant" validate:"oneof=threshold joint"`
}

// Thresholds parameterises the factor-only classifier.
type Thresholds struct {
	Upper float64 `yaml:"upper" validate:"gtfield=Lower"`
	Lower float64 `yaml:"lower"`
}

// Joint parameterises the factor + inflow tension classifier.
type Joint struct {
	FactorUpper float64 `yaml:"factor_upper" validate:"gtfield=FactorLower"`
	FactorLower float64 `yaml:"factor_lower"`
	RatioUpper  float64 `yaml:"ratio_upper" validate:"gtfield=RatioLower"`
	RatioLower  float64 `yaml:"ratio_lower"`
}

// Inputs locates source tables.
type Inputs struct {
	StockCSV   string `yaml:"stock_csv"`
	FuturesCSV string `yaml:"futures_csv"`
	NorthFlow  string `yaml:"north_flow"` // .xlsx or .csv
	Encoding   string `yaml:"encoding" validate:"omitempty,oneof=utf8 gbk gb18030"`
	DuckDBPath string `yaml:"duckdb_path"` // stock records source, used when StockCSV is empty
}

// Output controls where reports land.
type Output struct {
	Dir string `yaml:"dir" validate:"required"`
}

// Storage holds optional export sinks. Empty DSNs disable them.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// Default returns the reference run: IC futures, 2017-01-01..2021-06-17,
// threshold classifier with 60/-40.
func Default() Config {
	tp := signal.DefaultThresholdParams()
	jp := signal.DefaultJointParams()
	return Config{
		App: App{LogLevel: "info"},
		Run: Run{
			Instrument: "IC",
			StartDate:  20170101,
			EndDate:    20210617,
			Variant:    string(domain.VariantThreshold),
		},
		Thresholds: Thresholds{Upper: tp.Upper, Lower: tp.Lower},
		Joint: Joint{
			FactorUpper: jp.FactorUpper,
			FactorLower: jp.FactorLower,
			RatioUpper:  jp.RatioUpper,
			RatioLower:  jp.RatioLower,
		},
		Inputs: Inputs{
			NorthFlow: "data/northway/northway_buy_sell.xlsx",
			Encoding:  "utf8",
		},
		Output: Output{Dir: "out"},
	}
}

// Load reads a YAML file over Default, applies environment overrides and validates.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from files into the process environment
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv(EnvClickHouseDSN); v != "" {
		c.Storage.ClickHouseDSN = v
	}
	if v := os.Getenv(EnvDuckDBPath); v != "" {
		c.Inputs.DuckDBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.App.LogLevel = strings.ToLower(v)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("tradedate", func(fl validator.FieldLevel) bool {
		return domain.TradeDate(fl.Field().Int()).Valid()
	})
	return v
}

// Validate checks field constraints and the cron schedule.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.App.Schedule != "" {
		if _, err := cron.ParseStandard(c.App.Schedule); err != nil {
			return fmt.Errorf("invalid config: schedule %q: %w", c.App.Schedule, err)
		}
	}
	return nil
}

// Variant returns the configured classifier.
func (c *Config) Variant() domain.Variant {
	return domain.Variant(c.Run.Variant)
}

// StartDate returns the first trading day of the run.
func (c *Config) StartDate() domain.TradeDate {
	return domain.TradeDate(c.Run.StartDate)
}

// EndDate returns the last trading day of the run.
func (c *Config) EndDate() domain.TradeDate {
	return domain.TradeDate(c.Run.EndDate)
}

// ThresholdParams returns the factor-only classifier parameters.
func (c *Config) ThresholdParams() signal.ThresholdParams {
	return signal.ThresholdParams{Upper: c.Thresholds.Upper, Lower: c.Thresholds.Lower}
}

// JointParams returns the joint classifier parameters.
func (c *Config) JointParams() signal.JointParams {
	return signal.JointParams{
		FactorUpper: c.Joint.FactorUpper,
		FactorLower: c.Joint.FactorLower,
		RatioUpper:  c.Joint.RatioUpper,
		RatioLower:  c.Joint.RatioLower,
	}
}
