package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"bank_core/internal/domain"
)

// Config holds the process configuration. Monetary values stay as
// strings until parsed so the yaml form matches what operators write.
type Config struct {
	ListenAddr    string `yaml:"listen_addr"`
	MetricsAddr   string `yaml:"metrics_addr"`
	LockTimeoutMS int    `yaml:"lock_timeout_ms"`
	BcryptCost    int    `yaml:"bcrypt_cost"`

	OverdraftLimit string `yaml:"overdraft_limit"`
	AccrualRate    string `yaml:"accrual_rate"`
}

func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		MetricsAddr:    ":9090",
		LockTimeoutMS:  3000,
		BcryptCost:     10,
		OverdraftLimit: "500.00",
		AccrualRate:    "0.005",
	}
}

// Load reads yaml config from path on top of the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LockTimeoutMS <= 0 {
		return fmt.Errorf("lock_timeout_ms must be positive, got %d", c.LockTimeoutMS)
	}
	limit, err := decimal.NewFromString(c.OverdraftLimit)
	if err != nil {
		return fmt.Errorf("parsing overdraft_limit: %w", err)
	}
	if limit.Sign() < 0 {
		return fmt.Errorf("overdraft_limit must not be negative, got %s", c.OverdraftLimit)
	}
	rate, err := decimal.NewFromString(c.AccrualRate)
	if err != nil {
		return fmt.Errorf("parsing accrual_rate: %w", err)
	}
	if rate.Sign() < 0 {
		return fmt.Errorf("accrual_rate must not be negative, got %s", c.AccrualRate)
	}
	return nil
}

func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

// DefaultKindParams returns the configured behavior parameters for an
// account kind. Load validates the decimal strings, so parsing here
// cannot fail for a loaded config.
func (c *Config) DefaultKindParams(kind domain.Kind) domain.KindParams {
	switch kind {
	case domain.KindChecking:
		limit, _ := decimal.NewFromString(c.OverdraftLimit)
		return domain.KindParams{OverdraftLimit: limit}
	case domain.KindSavings:
		rate, _ := decimal.NewFromString(c.AccrualRate)
		return domain.KindParams{AccrualRate: rate}
	}
	return domain.KindParams{}
}
