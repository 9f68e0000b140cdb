package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a YAML overlay describing one backtest run. Fields left out
// of the file keep the base config's values; cost fields are pointers so an
// explicit zero (a frictionless run) is distinguishable from absent.
type Scenario struct {
	Name       string                 `yaml:"name"`
	Strategy   string                 `yaml:"strategy"`
	Parameters map[string]interface{} `yaml:"parameters"`
	Provider   string                 `yaml:"provider"`
	Markets    []string               `yaml:"markets"`

	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`

	InitialCapital *float64 `yaml:"initial_capital"`
	MaxPositions   *int     `yaml:"max_positions"`
	Slippage       *float64 `yaml:"slippage"`
	FeeRate        *float64 `yaml:"fee_rate"`
	MinNotional    *float64 `yaml:"min_notional"`
	RiskFreeRate   *float64 `yaml:"risk_free_rate"`
	PeriodsPerYear *float64 `yaml:"periods_per_year"`
}

// LoadScenario reads a scenario definition from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario := &Scenario{}
	if err := yaml.Unmarshal(data, scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	if scenario.Name == "" {
		return nil, fmt.Errorf("scenario name is required")
	}

	return scenario, nil
}

// Apply overlays the scenario onto the backtest section of the config
func (s *Scenario) Apply(cfg *Config) {
	if s.Strategy != "" {
		cfg.Backtest.Strategy = s.Strategy
	}
	if s.Parameters != nil {
		if cfg.Backtest.Parameters == nil {
			cfg.Backtest.Parameters = map[string]interface{}{}
		}
		for k, v := range s.Parameters {
			cfg.Backtest.Parameters[k] = v
		}
	}
	if s.Provider != "" {
		cfg.Backtest.Provider = s.Provider
	}
	if len(s.Markets) > 0 {
		cfg.Backtest.Markets = s.Markets
	}
	if s.StartDate != "" {
		cfg.Backtest.StartDate = s.StartDate
	}
	if s.EndDate != "" {
		cfg.Backtest.EndDate = s.EndDate
	}
	if s.InitialCapital != nil {
		cfg.Backtest.InitialCapital = *s.InitialCapital
	}
	if s.MaxPositions != nil {
		cfg.Backtest.MaxPositions = *s.MaxPositions
	}
	if s.Slippage != nil {
		cfg.Backtest.Slippage = *s.Slippage
	}
	if s.FeeRate != nil {
		cfg.Backtest.FeeRate = *s.FeeRate
	}
	if s.MinNotional != nil {
		cfg.Backtest.MinNotional = *s.MinNotional
	}
	if s.RiskFreeRate != nil {
		cfg.Backtest.RiskFreeRate = *s.RiskFreeRate
	}
	if s.PeriodsPerYear != nil {
		cfg.Backtest.PeriodsPerYear = *s.PeriodsPerYear
	}
}
