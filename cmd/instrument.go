package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/ledger"
	"github.com/google/subcommands"
)

type newInstrumentCmd struct {
	symbol   string
	name     string
	typ      string
	currency string
}

func (*newInstrumentCmd) Name() string     { return "new-instrument" }
func (*newInstrumentCmd) Synopsis() string { return "declare a new instrument" }
func (*newInstrumentCmd) Usage() string {
	return `pledger new-instrument -symbol <symbol> [-name <name>] [-type <type>] [-currency <code>]

  Declares an instrument. Type is one of EQUITY, ETF, BOND, CASH, CRYPTO
  and defaults to EQUITY.
`
}

func (p *newInstrumentCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.symbol, "symbol", "", "Ticker symbol, unique in the ledger.")
	f.StringVar(&p.name, "name", "", "Human readable name.")
	f.StringVar(&p.typ, "type", "EQUITY", "Instrument type (EQUITY, ETF, BOND, CASH, CRYPTO).")
	f.StringVar(&p.currency, "currency", "", "ISO currency code. Defaults to the configured currency.")
}

func (p *newInstrumentCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	typ, err := ledger.ParseInstrumentType(p.typ)
	if err != nil {
		return fail(err)
	}
	currency := p.currency
	if currency == "" {
		currency = sys.Config().Currency
	}
	name := p.name
	if name == "" {
		name = p.symbol
	}

	i := &ledger.Instrument{Symbol: p.symbol, Name: name, Type: typ, Currency: currency}
	if err := sys.Store().CreateInstrument(i); err != nil {
		return fail(err)
	}
	fmt.Printf("Created instrument %s (#%d, %s, %s)\n", i.Symbol, i.ID, i.Type, i.Currency)
	return subcommands.ExitSuccess
}

type instrumentsCmd struct{}

func (*instrumentsCmd) Name() string     { return "instruments" }
func (*instrumentsCmd) Synopsis() string { return "list declared instruments" }
func (*instrumentsCmd) Usage() string {
	return `pledger instruments

  Lists every declared instrument.
`
}

func (p *instrumentsCmd) SetFlags(f *flag.FlagSet) {}

func (p *instrumentsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	instruments, err := sys.Store().Instruments()
	if err != nil {
		return fail(err)
	}

	var b strings.Builder
	b.WriteString("# Instruments\n\n")
	if len(instruments) == 0 {
		b.WriteString("No instruments.\n")
	} else {
		b.WriteString("| Symbol | Name | Type | Currency |\n|---|---|---|---|\n")
		for _, i := range instruments {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", i.Symbol, i.Name, i.Type, i.Currency)
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
