package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/etnz/ledger"
	"github.com/google/subcommands"
)

type setPriceCmd struct {
	instrument string
	date       string
	close      float64
}

func (*setPriceCmd) Name() string     { return "set-price" }
func (*setPriceCmd) Synopsis() string { return "record a closing price" }
func (*setPriceCmd) Usage() string {
	return `pledger set-price -instrument <symbol> -d <date> -close <price>

  Records the closing price of an instrument for a date, overwriting any
  previous price for the same date.
`
}

func (p *setPriceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.instrument, "instrument", "", "Instrument symbol.")
	f.StringVar(&p.date, "d", "", "Price date.")
	f.Float64Var(&p.close, "close", 0, "Closing price.")
}

func (p *setPriceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	instrument, err := resolveInstrument(sys, p.instrument)
	if err != nil {
		return fail(err)
	}
	on, err := ledger.ParseDate(p.date)
	if err != nil {
		return fail(err)
	}
	close := ledger.M(p.close, instrument.Currency)
	if err := sys.SetPrice(instrument.ID, on, close); err != nil {
		return fail(err)
	}
	fmt.Printf("Recorded %s at %s on %s\n", instrument.Symbol, close, on)
	return subcommands.ExitSuccess
}

type fetchPricesCmd struct {
	instrument string
	url        string
}

func (*fetchPricesCmd) Name() string     { return "fetch-prices" }
func (*fetchPricesCmd) Synopsis() string { return "import closing prices from a JSON feed" }
func (*fetchPricesCmd) Usage() string {
	return `pledger fetch-prices -instrument <symbol> -url <address>

  Fetches a JSON array of {date, close} objects from the address and
  records every price against the instrument.
`
}

func (p *fetchPricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.instrument, "instrument", "", "Instrument symbol.")
	f.StringVar(&p.url, "url", "", "Address of the JSON price feed.")
}

func (p *fetchPricesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	instrument, err := resolveInstrument(sys, p.instrument)
	if err != nil {
		return fail(err)
	}
	if p.url == "" {
		return fail(fmt.Errorf("a feed address is required"))
	}

	n, err := sys.ImportPrices(http.DefaultClient, p.url, instrument.ID)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Imported %d price(s) for %s\n", n, instrument.Symbol)
	return subcommands.ExitSuccess
}
