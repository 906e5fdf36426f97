package ledger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	content := `
database: /tmp/test-ledger.db
currency: EUR
log_level: debug
dividends:
  EUR:
    cash: Cash EUR
    income: Dividend Income EUR
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.DatabasePath != "/tmp/test-ledger.db" {
		t.Errorf("database = %q", cfg.DatabasePath)
	}
	if cfg.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", cfg.Currency)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}

	da, err := cfg.DividendAccountsFor("EUR")
	if err != nil {
		t.Fatalf("DividendAccountsFor(EUR) failed: %v", err)
	}
	if da.Cash != "Cash EUR" || da.Income != "Dividend Income EUR" {
		t.Errorf("dividend accounts = %+v", da)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	if err := os.WriteFile(path, []byte("currency: CHF\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Currency != "CHF" {
		t.Errorf("currency = %q, want CHF", cfg.Currency)
	}
	if cfg.DatabasePath != "ledger.db" {
		t.Errorf("database = %q, want the default ledger.db", cfg.DatabasePath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want the default info", cfg.LogLevel)
	}
}

func TestDividendAccountsFor(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := cfg.DividendAccountsFor("USD"); !IsValidation(err) {
		t.Errorf("unmapped currency error = %v, want a validation error", err)
	}

	cfg.Dividends = map[string]DividendAccounts{
		"USD": {Cash: "Cash"}, // income missing
	}
	if _, err := cfg.DividendAccountsFor("USD"); !IsValidation(err) {
		t.Errorf("incomplete mapping error = %v, want a validation error", err)
	}
}
