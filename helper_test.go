package ledger

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// testSystem creates a system over a fresh SQLite file with a dividend
// mapping for USD.
func testSystem(t *testing.T) *System {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := DefaultConfig()
	cfg.Dividends = map[string]DividendAccounts{
		"USD": {Cash: "Cash", Income: "Dividend Income"},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSystem(store, cfg, log)
}

// newAccount creates an account or fails the test.
func newAccount(t *testing.T, s *System, name string, typ AccountType) *Account {
	t.Helper()
	a := &Account{Name: name, Type: typ, Currency: "USD"}
	if err := s.Store().CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount(%q) failed: %v", name, err)
	}
	return a
}

// newInstrument creates an instrument or fails the test.
func newInstrument(t *testing.T, s *System, symbol string) *Instrument {
	t.Helper()
	i := &Instrument{Symbol: symbol, Name: symbol, Type: EquityInstrument, Currency: "USD"}
	if err := s.Store().CreateInstrument(i); err != nil {
		t.Fatalf("CreateInstrument(%q) failed: %v", symbol, err)
	}
	return i
}

// brokerage is the standard test fixture: a funded cash account, a holding
// account, a fee account, the dividend income account, and one instrument.
type brokerage struct {
	sys       *System
	cash      *Account
	holdings  *Account
	fees      *Account
	dividends *Account
	equity    *Account
	aapl      *Instrument
}

// setupBrokerage builds the fixture and funds the cash account with 100000
// from an equity opening balance.
func setupBrokerage(t *testing.T) *brokerage {
	t.Helper()
	sys := testSystem(t)
	b := &brokerage{
		sys:       sys,
		cash:      newAccount(t, sys, "Cash", Asset),
		holdings:  newAccount(t, sys, "Brokerage", Asset),
		fees:      newAccount(t, sys, "Fees", Expense),
		dividends: newAccount(t, sys, "Dividend Income", Income),
		equity:    newAccount(t, sys, "Opening Balance", Equity),
		aapl:      newInstrument(t, sys, "AAPL"),
	}
	_, err := sys.CreateSimpleTransfer(b.equity.ID, b.cash.ID, USD(100000), NewDate(2025, 1, 1), "opening balance", true)
	if err != nil {
		t.Fatalf("funding the cash account failed: %v", err)
	}
	return b
}

// buy records a posted purchase on the fixture.
func (b *brokerage) buy(t *testing.T, on Date, qty, price float64) *Transaction {
	t.Helper()
	tx, err := b.sys.CreateTradeTransaction(b.holdings.ID, b.aapl.ID, b.cash.ID,
		Q(qty), USD(price), on, USD(0), 0, "", true)
	if err != nil {
		t.Fatalf("buy of %v at %v failed: %v", qty, price, err)
	}
	return tx
}

// sell records a posted sale on the fixture.
func (b *brokerage) sell(t *testing.T, on Date, qty, price float64) *Transaction {
	t.Helper()
	tx, err := b.sys.CreateTradeTransaction(b.holdings.ID, b.aapl.ID, b.cash.ID,
		Q(-qty), USD(price), on, USD(0), 0, "", true)
	if err != nil {
		t.Fatalf("sell of %v at %v failed: %v", qty, price, err)
	}
	return tx
}
