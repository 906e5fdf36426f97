package cmd

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/etnz/ledger"
)

func seedSystem(t *testing.T) *ledger.System {
	t.Helper()

	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ledger.NewSystem(store, ledger.DefaultConfig(), log)
}

func TestSeedDemo(t *testing.T) {
	sys := seedSystem(t)

	if err := seedDemo(sys); err != nil {
		t.Fatalf("seedDemo() failed: %v", err)
	}

	cash, err := sys.Store().AccountByName("Assets:Cash")
	if err != nil {
		t.Fatalf("AccountByName(Assets:Cash) failed: %v", err)
	}
	if cash.Type != ledger.Asset {
		t.Errorf("cash account type = %v, want %v", cash.Type, ledger.Asset)
	}
	for _, name := range []string{"Assets:Brokerage", "Income:Dividends", "Expenses:Fees", "Equity:Opening Balance"} {
		if _, err := sys.Store().AccountByName(name); err != nil {
			t.Errorf("AccountByName(%q) failed: %v", name, err)
		}
	}

	spy, err := sys.Store().InstrumentBySymbol("SPY")
	if err != nil {
		t.Fatalf("InstrumentBySymbol(SPY) failed: %v", err)
	}
	price, err := sys.Store().PriceAsOf(spy.ID, ledger.Today())
	if err != nil {
		t.Fatalf("PriceAsOf(SPY) failed: %v", err)
	}
	if !price.Close.Equal(ledger.M(430, "USD")) {
		t.Errorf("SPY close = %s, want 430 USD", price.Close)
	}

	balance, err := sys.AccountBalance(cash.ID, ledger.Today(), true)
	if err != nil {
		t.Fatalf("AccountBalance(cash) failed: %v", err)
	}
	if !balance.Equal(ledger.M(1000, "USD")) {
		t.Errorf("cash balance = %s, want 1000 USD", balance)
	}
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	sys := seedSystem(t)

	if err := seedDemo(sys); err != nil {
		t.Fatalf("first seedDemo() failed: %v", err)
	}
	if err := seedDemo(sys); err != nil {
		t.Fatalf("second seedDemo() failed: %v", err)
	}

	accounts, err := sys.Store().Accounts()
	if err != nil {
		t.Fatalf("Accounts() failed: %v", err)
	}
	if len(accounts) != 5 {
		t.Errorf("len(accounts) = %d, want 5", len(accounts))
	}
	instruments, err := sys.Store().Instruments()
	if err != nil {
		t.Fatalf("Instruments() failed: %v", err)
	}
	if len(instruments) != 2 {
		t.Errorf("len(instruments) = %d, want 2", len(instruments))
	}

	// The opening balance must not be booked twice.
	cash, err := sys.Store().AccountByName("Assets:Cash")
	if err != nil {
		t.Fatalf("AccountByName(Assets:Cash) failed: %v", err)
	}
	balance, err := sys.AccountBalance(cash.ID, ledger.Today(), true)
	if err != nil {
		t.Fatalf("AccountBalance(cash) failed: %v", err)
	}
	if !balance.Equal(ledger.M(1000, "USD")) {
		t.Errorf("cash balance = %s, want 1000 USD", balance)
	}
}
