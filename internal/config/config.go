package config

import (
	"fmt"
	"os"
	"time"

	"divrotation/internal/domain"
	"divrotation/internal/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the single explicit configuration object handed to every
// component; nothing in the engine reads ambient globals. Yield and
// allocation values are fractions, never percentages.
type Config struct {
	Start string `yaml:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" validate:"required,datetime=2006-01-02"`
	// AsOf anchors "today" for scoring and forward planning so that runs
	// are reproducible; the CLI defaults it to the current date.
	AsOf string `yaml:"as_of" validate:"omitempty,datetime=2006-01-02"`

	InitialCash float64 `yaml:"initial_cash" default:"100000" validate:"gt=0"`

	MinYieldFraction float64 `yaml:"min_yield" default:"0.009" validate:"gte=0"`
	MinAvgVolume     int64   `yaml:"min_avg_volume" default:"200000" validate:"gte=0"`
	TopK             int     `yaml:"top_k" default:"10" validate:"gt=0"`

	HoldPre  int `yaml:"hold_pre" default:"2" validate:"gte=0"`
	HoldPost int `yaml:"hold_post" default:"1" validate:"gte=0"`

	WeightYield     float64 `yaml:"weight_yield" default:"0.4" validate:"gte=0"`
	WeightLiquidity float64 `yaml:"weight_liquidity" default:"0.25" validate:"gte=0"`
	WeightProximity float64 `yaml:"weight_proximity" default:"0.35" validate:"gte=0"`
	ScoreExpression string  `yaml:"score_expression"`

	LookaheadDays int `yaml:"lookahead_days" default:"90" validate:"gt=0"`

	AllocFraction    float64 `yaml:"alloc_fraction" default:"0.33" validate:"gt=0,lte=1"`
	MaxPositionCap   float64 `yaml:"max_position_cap" validate:"gte=0"`
	MinPositionFloor float64 `yaml:"min_position_floor" validate:"gte=0"`

	OutputPrefix string `yaml:"output_prefix" default:"Dividend_Rotation"`
}

// Load reads the YAML config at path, after loading .env if one exists.
// A missing file yields pure defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration with every default applied and no file
// input. Start/End are still required and must be set by the caller.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// struct tags are static; this cannot fail at runtime
		panic(err)
	}
	return cfg
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules. All violations
// surface as ErrInvalidConfiguration: configuration misuse is the only
// fatal error class in the engine.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfiguration, err)
	}
	start, err := util.ParseDate(c.Start)
	if err != nil {
		return fmt.Errorf("%w: start date: %s", domain.ErrInvalidConfiguration, err)
	}
	end, err := util.ParseDate(c.End)
	if err != nil {
		return fmt.Errorf("%w: end date: %s", domain.ErrInvalidConfiguration, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidConfiguration, c.End, c.Start)
	}
	if c.WeightYield+c.WeightLiquidity+c.WeightProximity <= 0 && c.ScoreExpression == "" {
		return fmt.Errorf("%w: score weights sum to zero", domain.ErrInvalidConfiguration)
	}
	return nil
}

func (c *Config) StartDate() time.Time {
	return mustDate(c.Start)
}

func (c *Config) EndDate() time.Time {
	return mustDate(c.End)
}

// AsOfDate falls back to the backtest end date when as_of is unset.
func (c *Config) AsOfDate() time.Time {
	if c.AsOf == "" {
		return c.EndDate()
	}
	return mustDate(c.AsOf)
}

// mustDate is safe after Validate; accessors must not be called before it.
func mustDate(s string) time.Time {
	d, err := util.ParseDate(s)
	if err != nil {
		panic(fmt.Errorf("date accessor called on unvalidated config: %w", err))
	}
	return d
}
