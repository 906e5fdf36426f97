package cmd

import (
	"context"
	"flag"

	"github.com/etnz/ledger"
	"github.com/etnz/ledger/renderer"
	"github.com/google/subcommands"
)

type pnlCmd struct {
	holdingFilter
	from string
	to   string
	date string
}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "show realized and unrealized profit and loss" }
func (*pnlCmd) Usage() string {
	return `pledger pnl [-instrument <symbol>] [-account <name>] [-from <date>] [-to <date>] [-d <date>]

  Shows realized gains over the range, unrealized gains as of -d
  (default today), and, when the range is bounded, the time-weighted
  return of the period.
`
}

func (p *pnlCmd) SetFlags(f *flag.FlagSet) {
	p.holdingFilter.SetFlags(f)
	f.StringVar(&p.from, "from", "", "Start date of the realized range.")
	f.StringVar(&p.to, "to", "", "End date of the realized range (defaults to today when -from is set).")
	f.StringVar(&p.date, "d", "", "Valuation date for unrealized gains (defaults to today).")
}

func (p *pnlCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	instrumentID, accountID, err := p.resolve(sys)
	if err != nil {
		return fail(err)
	}
	r, err := parseRangeFlags(p.from, p.to)
	if err != nil {
		return fail(err)
	}
	asOf, err := parseDateFlag(p.date, ledger.Today())
	if err != nil {
		return fail(err)
	}

	report, err := sys.Report(instrumentID, accountID, r, asOf)
	if err != nil {
		return fail(err)
	}
	names, err := loadNames(sys)
	if err != nil {
		return fail(err)
	}

	view := &renderer.PnL{
		Realized:   realizedView(report.Realized, r, names),
		Unrealized: unrealizedView(report.Unrealized, names),
	}
	if report.Return != nil {
		view.Return = returnView(report.Return)
	}
	printMarkdown(renderer.RenderPnL(view))
	return subcommands.ExitSuccess
}

func realizedView(r *ledger.RealizedReport, rng ledger.Range, names ledgerNames) *renderer.Realized {
	view := &renderer.Realized{
		Proceeds:  r.Proceeds.String(),
		CostBasis: r.CostBasis.String(),
		Total:     r.Realized.SignedString(),
	}
	if !rng.IsZero() {
		view.Range = rng.Name()
	}
	for _, e := range r.Entries {
		view.Rows = append(view.Rows, renderer.RealizedRow{
			Symbol:    names.instrument(e.InstrumentID),
			Account:   names.account(e.AccountID),
			Quantity:  e.QtySold.String(),
			Proceeds:  e.Proceeds.String(),
			CostBasis: e.CostBasis.String(),
			Realized:  e.Realized.SignedString(),
			Method:    e.Method.String(),
		})
	}
	return view
}

func unrealizedView(u *ledger.UnrealizedReport, names ledgerNames) *renderer.Unrealized {
	view := &renderer.Unrealized{
		AsOf:        u.AsOf.String(),
		CostBasis:   u.CostBasis.String(),
		MarketValue: u.MarketValue.String(),
		Total:       u.Unrealized.SignedString(),
		Skipped:     u.Skipped,
	}
	for _, e := range u.Entries {
		view.Rows = append(view.Rows, renderer.UnrealizedRow{
			Symbol:      names.instrument(e.InstrumentID),
			Account:     names.account(e.AccountID),
			Quantity:    e.Quantity.String(),
			CostBasis:   e.CostBasis.String(),
			Price:       e.Price.String(),
			PriceDate:   e.PriceDate.String(),
			MarketValue: e.MarketValue.String(),
			Unrealized:  e.Unrealized.SignedString(),
		})
	}
	return view
}

func returnView(r *ledger.ReturnReport) *renderer.Return {
	return &renderer.Return{
		Range:      r.Range.Name(),
		Method:     ledger.TimeWeighted,
		Begin:      r.BeginningValue.String(),
		End:        r.EndingValue.String(),
		NetFlows:   r.NetCashFlows.String(),
		Simple:     r.SimpleReturn.String(),
		Annualized: r.AnnualizedReturn.String(),
		Days:       r.Days,
	}
}

type returnCmd struct {
	from   string
	to     string
	method string
}

func (*returnCmd) Name() string     { return "return" }
func (*returnCmd) Synopsis() string { return "compute the portfolio return over a period" }
func (*returnCmd) Usage() string {
	return `pledger return -from <date> [-to <date>] [-method <method>]

  Values the portfolio at both ends of the period, removes the external
  cash flows, and reports the simple and annualized return. The only
  supported method is time-weighted.
`
}

func (p *returnCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.from, "from", "", "Start date of the period.")
	f.StringVar(&p.to, "to", "", "End date of the period (defaults to today).")
	f.StringVar(&p.method, "method", ledger.TimeWeighted, "Return method.")
}

func (p *returnCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	r, err := parseRangeFlags(p.from, p.to)
	if err != nil {
		return fail(err)
	}
	report, err := sys.TotalReturn(r, p.method)
	if err != nil {
		return fail(err)
	}

	view := &renderer.PnL{Return: returnView(report)}
	printMarkdown(renderer.RenderPnL(view))
	return subcommands.ExitSuccess
}
