// Package cmd implements the CLI application to manage a personal
// investment ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/ledger"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&newAccountCmd{}, "ledger")
	c.Register(&accountsCmd{}, "ledger")
	c.Register(&newInstrumentCmd{}, "ledger")
	c.Register(&instrumentsCmd{}, "ledger")
	c.Register(&seedCmd{}, "ledger")

	c.Register(&transferCmd{}, "transactions")
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")
	c.Register(&postCmd{}, "transactions")
	c.Register(&unpostCmd{}, "transactions")
	c.Register(&deleteTxCmd{}, "transactions")
	c.Register(&summaryCmd{}, "transactions")

	c.Register(&lotsCmd{}, "lots")
	c.Register(&positionsCmd{}, "lots")
	c.Register(&reconcileCmd{}, "lots")

	c.Register(&newActionCmd{}, "corporate actions")
	c.Register(&processActionCmd{}, "corporate actions")
	c.Register(&processPendingCmd{}, "corporate actions")
	c.Register(&actionsCmd{}, "corporate actions")
	c.Register(&actionSummaryCmd{}, "corporate actions")

	c.Register(&pnlCmd{}, "reports")
	c.Register(&returnCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")
	c.Register(&statementCmd{}, "reports")

	c.Register(&setPriceCmd{}, "prices")
	c.Register(&fetchPricesCmd{}, "prices")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "ledger.yaml", "Path to the YAML configuration file")

// OpenSystem is the central function to open the ledger.
// A missing configuration file is not an error, defaults apply instead.
func OpenSystem() (*ledger.System, error) {
	cfg, err := ledger.LoadConfig(*configFile)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = ledger.DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	log := ledger.InitLogger(cfg.LogLevel)

	store, err := ledger.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open ledger %q: %w", cfg.DatabasePath, err)
	}
	return ledger.NewSystem(store, cfg, log), nil
}

// resolveAccount finds an account by name.
func resolveAccount(sys *ledger.System, name string) (*ledger.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("an account name is required")
	}
	return sys.Store().AccountByName(name)
}

// resolveInstrument finds an instrument by symbol.
func resolveInstrument(sys *ledger.System, symbol string) (*ledger.Instrument, error) {
	if symbol == "" {
		return nil, fmt.Errorf("an instrument symbol is required")
	}
	return sys.Store().InstrumentBySymbol(symbol)
}

// ledgerNames carries the id-to-name lookups the renderer views need.
type ledgerNames struct {
	accounts    map[int64]string
	instruments map[int64]string
}

func (n ledgerNames) account(id int64) string {
	if name, ok := n.accounts[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

func (n ledgerNames) instrument(id int64) string {
	if id == 0 {
		return ""
	}
	if sym, ok := n.instruments[id]; ok {
		return sym
	}
	return fmt.Sprintf("#%d", id)
}

// loadNames builds the lookups from the stored accounts and instruments.
func loadNames(sys *ledger.System) (ledgerNames, error) {
	n := ledgerNames{
		accounts:    map[int64]string{},
		instruments: map[int64]string{},
	}
	accounts, err := sys.Store().Accounts()
	if err != nil {
		return n, err
	}
	for _, a := range accounts {
		n.accounts[a.ID] = a.Name
	}
	instruments, err := sys.Store().Instruments()
	if err != nil {
		return n, err
	}
	for _, i := range instruments {
		n.instruments[i.ID] = i.Symbol
	}
	return n, nil
}

// parseDateFlag parses a date flag, an empty value yielding def.
func parseDateFlag(s string, def ledger.Date) (ledger.Date, error) {
	if s == "" {
		return def, nil
	}
	return ledger.ParseDate(s)
}

// parseRangeFlags builds a range from the -from and -to flags. Both empty
// yields the zero range matching everything.
func parseRangeFlags(from, to string) (ledger.Range, error) {
	var r ledger.Range
	if from == "" && to == "" {
		return r, nil
	}
	var err error
	if from != "" {
		if r.From, err = ledger.ParseDate(from); err != nil {
			return r, fmt.Errorf("parsing start date: %w", err)
		}
	}
	if to == "" {
		r.To = ledger.Today()
	} else if r.To, err = ledger.ParseDate(to); err != nil {
		return r, fmt.Errorf("parsing end date: %w", err)
	}
	return r, nil
}

// fail prints the error and maps it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	if ledger.IsValidation(err) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}
