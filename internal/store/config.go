package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mtf-simulator/internal/mtf"
	"mtf-simulator/internal/types"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Defaults is the scenario the form and CLI start from.
	Defaults struct {
		Symbol                string  `yaml:"symbol"`
		LTP                   float64 `yaml:"ltp"`
		Investment            float64 `yaml:"investment"`
		Exposure              float64 `yaml:"exposure"`
		TargetPrice           float64 `yaml:"target_price"`
		StopPrice             float64 `yaml:"stop_price"`
		HoldingDays           int     `yaml:"holding_days"`
		InterestRatePct       float64 `yaml:"interest_rate_pct"`
		BrokeragePct          float64 `yaml:"brokerage_pct"`
		TransactionChargesPct float64 `yaml:"txn_charges_pct"`
		OtherChargesPct       float64 `yaml:"other_charges_pct"`
	} `yaml:"defaults"`
	Sweep          mtf.SweepRange `yaml:"sweep"`
	Recommendation struct {
		LeverageROIFactor float64 `yaml:"leverage_roi_factor"`
	} `yaml:"recommendation"`
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	} `yaml:"server"`
}

// DefaultConfig returns the built-in configuration: an NSE:ITC scenario
// with 5x exposure and typical Indian discount-broker charges.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	d := &c.Defaults
	if d.Symbol == "" {
		d.Symbol = "NSE:ITC"
	}
	if d.LTP == 0 {
		d.LTP = 412.8
	}
	if d.Investment == 0 {
		d.Investment = 200000
	}
	if d.Exposure == 0 {
		d.Exposure = 5
	}
	if d.TargetPrice == 0 {
		d.TargetPrice = 495.36
	}
	if d.StopPrice == 0 {
		d.StopPrice = 380.0
	}
	if d.HoldingDays == 0 {
		d.HoldingDays = 30
	}
	if d.InterestRatePct == 0 {
		d.InterestRatePct = 9.0
	}
	if d.BrokeragePct == 0 {
		d.BrokeragePct = 0.05
	}
	if d.TransactionChargesPct == 0 {
		d.TransactionChargesPct = 0.02
	}
	if d.OtherChargesPct == 0 {
		d.OtherChargesPct = 0.01
	}

	if c.Sweep == (mtf.SweepRange{}) {
		c.Sweep = mtf.DefaultSweepRange()
	}
	if c.Recommendation.LeverageROIFactor == 0 {
		c.Recommendation.LeverageROIFactor = mtf.DefaultLeverageROIFactor
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 10
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 10
	}
}

func (c *Config) Validate() error {
	if c.Defaults.LTP <= 0 {
		return fmt.Errorf("%w: defaults.ltp must be positive, got %.2f", ErrInvalidConfig, c.Defaults.LTP)
	}
	if c.Defaults.Investment < 0 {
		return fmt.Errorf("%w: defaults.investment must not be negative, got %.2f", ErrInvalidConfig, c.Defaults.Investment)
	}
	if c.Defaults.Exposure < 0 {
		return fmt.Errorf("%w: defaults.exposure must not be negative, got %.2f", ErrInvalidConfig, c.Defaults.Exposure)
	}
	if c.Defaults.HoldingDays < 0 {
		return fmt.Errorf("%w: defaults.holding_days must not be negative, got %d", ErrInvalidConfig, c.Defaults.HoldingDays)
	}
	if c.Sweep.Points() == 0 {
		return fmt.Errorf("%w: sweep must have step_pct > 0 and low_pct <= high_pct, got %+v", ErrInvalidConfig, c.Sweep)
	}
	if c.Sweep.LowPct < 0 {
		return fmt.Errorf("%w: sweep.low_pct must not be negative, got %d", ErrInvalidConfig, c.Sweep.LowPct)
	}
	if c.Recommendation.LeverageROIFactor < 0 {
		return fmt.Errorf("%w: recommendation.leverage_roi_factor must not be negative, got %.2f", ErrInvalidConfig, c.Recommendation.LeverageROIFactor)
	}
	return nil
}

// DefaultParameters returns the configured default scenario as an
// immutable parameter record.
func (c *Config) DefaultParameters() types.TradeParameters {
	d := c.Defaults
	return types.TradeParameters{
		Symbol:                d.Symbol,
		LastTradedPrice:       d.LTP,
		Investment:            d.Investment,
		ExposureMultiplier:    d.Exposure,
		TargetPrice:           d.TargetPrice,
		StopPrice:             d.StopPrice,
		HoldingDays:           d.HoldingDays,
		AnnualInterestRatePct: d.InterestRatePct,
		BrokeragePct:          d.BrokeragePct,
		TransactionChargesPct: d.TransactionChargesPct,
		OtherChargesPct:       d.OtherChargesPct,
	}
}

// LoadConfig reads path, fills unset values with defaults and validates
// the result. A missing file yields DefaultConfig.
// MTF_SERVER_ADDR overrides server.addr.
func LoadConfig(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	c.applyDefaults()

	if v := os.Getenv("MTF_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
