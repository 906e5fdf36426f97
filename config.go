package ledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the process configuration for the ledger engine.
type Config struct {
	// DatabasePath is the path to the SQLite ledger file.
	DatabasePath string `yaml:"database"`
	// Currency is the default reporting currency.
	Currency string `yaml:"currency"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Dividends maps a currency code to the accounts a cash dividend in that
	// currency is booked against. Corporate action processing never creates
	// accounts: both mapped accounts must already exist.
	Dividends map[string]DividendAccounts `yaml:"dividends"`
}

// DividendAccounts designates the cash and income accounts for cash
// dividends of one currency.
type DividendAccounts struct {
	Cash   string `yaml:"cash"`
	Income string `yaml:"income"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath: "ledger.db",
		Currency:     "USD",
		LogLevel:     "info",
	}
}

// LoadConfig loads a YAML configuration from path. Fields left empty in the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// DividendAccountsFor resolves the dividend account mapping for a currency.
func (c *Config) DividendAccountsFor(currency string) (DividendAccounts, error) {
	da, ok := c.Dividends[currency]
	if !ok {
		return DividendAccounts{}, Validationf("no dividend account mapping configured for currency %q", currency)
	}
	if da.Cash == "" || da.Income == "" {
		return DividendAccounts{}, Validationf("incomplete dividend account mapping for currency %q", currency)
	}
	return da, nil
}
