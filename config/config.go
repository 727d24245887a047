// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/claims"
)

// Config is the full server configuration. Every field has a default so a
// bare environment starts a working dev server.
type Config struct {
	Port     int    `env:"COVERAGE_PORT"      envDefault:"8080"`
	DBPath   string `env:"COVERAGE_DB"        envDefault:"coverage.db"`
	LogLevel string `env:"COVERAGE_LOG_LEVEL" envDefault:"info"`

	MediatorResponsePeriod   time.Duration `env:"COVERAGE_MEDIATOR_RESPONSE_PERIOD"   envDefault:"72h"`
	ClaimantResponsePeriod   time.Duration `env:"COVERAGE_CLAIMANT_RESPONSE_PERIOD"   envDefault:"72h"`
	ArbitratorResponsePeriod time.Duration `env:"COVERAGE_ARBITRATOR_RESPONSE_PERIOD" envDefault:"720h"`

	AdminRole       string   `env:"COVERAGE_ROLE_ADMIN"        envDefault:"admin"`
	PolicyAgentRole string   `env:"COVERAGE_ROLE_POLICY_AGENT" envDefault:"policy_agent"`
	MediatorRole    string   `env:"COVERAGE_ROLE_MEDIATOR"     envDefault:"mediator"`
	ArbitratorRole  string   `env:"COVERAGE_ROLE_ARBITRATOR"   envDefault:"arbitrator"`
	RoleGrants      []string `env:"COVERAGE_ROLE_GRANTS"       envSeparator:","`

	SelfQuotaKey string `env:"COVERAGE_SELF_QUOTA_KEY" envDefault:"self"`

	AssetPriceUSD string        `env:"COVERAGE_ASSET_PRICE_USD" envDefault:"1"`
	MaxPriceAge   time.Duration `env:"COVERAGE_MAX_PRICE_AGE"   envDefault:"24h"`
	PoolStake     string        `env:"COVERAGE_POOL_STAKE"      envDefault:"1000000"`

	PassiveArbitrator string `env:"COVERAGE_PASSIVE_ARBITRATOR" envDefault:"passive-arbitrator"`
	PassiveOperator   string `env:"COVERAGE_PASSIVE_OPERATOR"   envDefault:"passive-operator"`
	CourtProxy        string `env:"COVERAGE_COURT_PROXY"        envDefault:"court-proxy"`
	Court             string `env:"COVERAGE_COURT"              envDefault:"court"`
	CourtSubcourt     uint64 `env:"COVERAGE_COURT_SUBCOURT"     envDefault:"0"`
	CourtJurors       uint64 `env:"COVERAGE_COURT_JURORS"       envDefault:"3"`
	ArbitrationCost   string `env:"COVERAGE_ARBITRATION_COST"   envDefault:"0.1"`
	AppealCost        string `env:"COVERAGE_APPEAL_COST"        envDefault:"0.2"`

	MonitorInterval time.Duration `env:"COVERAGE_MONITOR_INTERVAL" envDefault:"1m"`
}

// Load parses the environment into a validated Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MediatorResponsePeriod <= 0 || c.ClaimantResponsePeriod <= 0 || c.ArbitratorResponsePeriod <= 0 {
		errs = append(errs, errors.New("response periods must be positive"))
	}
	if c.MonitorInterval <= 0 {
		errs = append(errs, errors.New("monitor interval must be positive"))
	}
	if c.MaxPriceAge <= 0 {
		errs = append(errs, errors.New("max price age must be positive"))
	}
	for name, v := range map[string]string{
		"asset price":      c.AssetPriceUSD,
		"pool stake":       c.PoolStake,
		"arbitration cost": c.ArbitrationCost,
		"appeal cost":      c.AppealCost,
	} {
		d, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", name, v, err))
			continue
		}
		if d.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	for _, g := range c.RoleGrants {
		if role, addr, ok := strings.Cut(g, "="); !ok || role == "" || addr == "" {
			errs = append(errs, fmt.Errorf("role grant %q: want ROLE=ADDRESS", g))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Periods returns the configured response periods.
func (c Config) Periods() claims.ResponsePeriods {
	return claims.ResponsePeriods{
		Mediator:   c.MediatorResponsePeriod,
		Claimant:   c.ClaimantResponsePeriod,
		Arbitrator: c.ArbitratorResponsePeriod,
	}
}

// Roles returns the configured role identifiers.
func (c Config) Roles() claims.Roles {
	return claims.Roles{
		Admin:       c.AdminRole,
		PolicyAgent: c.PolicyAgentRole,
		Mediator:    c.MediatorRole,
		Arbitrator:  c.ArbitratorRole,
	}
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// MustDecimal parses a field already checked by Validate.
func MustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
