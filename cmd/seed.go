package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/ledger"
	"github.com/google/subcommands"
)

type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "populate the ledger with a starter dataset" }
func (*seedCmd) Usage() string {
	return `pledger seed

  Creates a minimal chart of accounts, two sample instruments with a
  price for today, and a posted opening balance. Safe to run more than
  once: anything already present is left untouched.
`
}

func (*seedCmd) SetFlags(f *flag.FlagSet) {}

func (p *seedCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	if err := seedDemo(sys); err != nil {
		return fail(err)
	}
	fmt.Println("Ledger seeded.")
	return subcommands.ExitSuccess
}

// seedDemo creates the starter dataset: five accounts, AAPL and SPY with a
// close for today, and a posted opening balance moving 1000 into cash.
// Every step skips whatever already exists.
func seedDemo(sys *ledger.System) error {
	currency := sys.Config().Currency

	accounts := []ledger.Account{
		{Name: "Assets:Cash", Type: ledger.Asset, Currency: currency},
		{Name: "Assets:Brokerage", Type: ledger.Asset, Currency: currency},
		{Name: "Income:Dividends", Type: ledger.Income, Currency: currency},
		{Name: "Expenses:Fees", Type: ledger.Expense, Currency: currency},
		{Name: "Equity:Opening Balance", Type: ledger.Equity, Currency: currency},
	}
	for i := range accounts {
		if _, err := sys.Store().AccountByName(accounts[i].Name); err == nil {
			continue
		} else if !ledger.IsNotFound(err) {
			return err
		}
		if err := sys.Store().CreateAccount(&accounts[i]); err != nil {
			return err
		}
	}

	instruments := []ledger.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Type: ledger.EquityInstrument, Currency: currency},
		{Symbol: "SPY", Name: "SPDR S&P 500 ETF Trust", Type: ledger.ETF, Currency: currency},
	}
	closes := map[string]ledger.Money{
		"AAPL": ledger.M(150, currency),
		"SPY":  ledger.M(430, currency),
	}
	today := ledger.Today()
	for i := range instruments {
		existing, err := sys.Store().InstrumentBySymbol(instruments[i].Symbol)
		if err == nil {
			instruments[i].ID = existing.ID
		} else if !ledger.IsNotFound(err) {
			return err
		} else if err := sys.Store().CreateInstrument(&instruments[i]); err != nil {
			return err
		}
		if err := sys.Store().SetPrice(instruments[i].ID, today, closes[instruments[i].Symbol]); err != nil {
			return err
		}
	}

	return seedOpeningBalance(sys, today)
}

// seedOpeningBalance posts the initial funding unless an opening balance
// adjustment is already recorded.
func seedOpeningBalance(sys *ledger.System, on ledger.Date) error {
	const memo = "Opening Balance"

	recorded, err := sys.Transactions(ledger.NewRange(ledger.NewDate(1970, 1, 1), on), false)
	if err != nil {
		return err
	}
	for _, t := range recorded {
		if t.Type == ledger.Adjust && t.Memo == memo {
			return nil
		}
	}

	cash, err := sys.Store().AccountByName("Assets:Cash")
	if err != nil {
		return err
	}
	equity, err := sys.Store().AccountByName("Equity:Opening Balance")
	if err != nil {
		return err
	}

	amount := ledger.M(1000, sys.Config().Currency)
	_, err = sys.CreateTransaction(ledger.Adjust, on, []ledger.LineInput{
		{AccountID: cash.ID, Amount: amount, Side: ledger.Debit},
		{AccountID: equity.ID, Amount: amount, Side: ledger.Credit},
	}, memo, true)
	return err
}
