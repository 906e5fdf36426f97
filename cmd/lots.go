package cmd

import (
	"context"
	"flag"

	"github.com/etnz/ledger"
	"github.com/etnz/ledger/renderer"
	"github.com/google/subcommands"
)

// holdingFilter resolves the optional -instrument and -account filter flags
// shared by the lot and reporting commands.
type holdingFilter struct {
	instrument string
	account    string
}

func (p *holdingFilter) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.instrument, "instrument", "", "Filter by instrument symbol.")
	f.StringVar(&p.account, "account", "", "Filter by holding account name.")
}

// resolve maps the flags to filter ids, 0 meaning no filter.
func (p *holdingFilter) resolve(sys *ledger.System) (instrumentID, accountID int64, err error) {
	if p.instrument != "" {
		instrument, err := resolveInstrument(sys, p.instrument)
		if err != nil {
			return 0, 0, err
		}
		instrumentID = instrument.ID
	}
	if p.account != "" {
		account, err := resolveAccount(sys, p.account)
		if err != nil {
			return 0, 0, err
		}
		accountID = account.ID
	}
	return instrumentID, accountID, nil
}

type lotsCmd struct {
	holdingFilter
	closed bool
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "list share lots oldest first" }
func (*lotsCmd) Usage() string {
	return `pledger lots [-instrument <symbol>] [-account <name>] [-closed]

  Lists share lots in first-in first-out order. Fully closed lots are
  hidden unless -closed is set.
`
}

func (p *lotsCmd) SetFlags(f *flag.FlagSet) {
	p.holdingFilter.SetFlags(f)
	f.BoolVar(&p.closed, "closed", false, "Include fully closed lots.")
}

func (p *lotsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	instrumentID, accountID, err := p.resolve(sys)
	if err != nil {
		return fail(err)
	}
	lots, err := sys.AvailableLots(instrumentID, accountID, p.closed)
	if err != nil {
		return fail(err)
	}
	names, err := loadNames(sys)
	if err != nil {
		return fail(err)
	}

	view := &renderer.Lots{}
	for _, l := range lots {
		state := "open"
		if l.Closed {
			state = "closed"
		}
		view.Rows = append(view.Rows, renderer.LotRow{
			ID:        l.ID,
			Symbol:    names.instrument(l.InstrumentID),
			Account:   names.account(l.AccountID),
			OpenDate:  l.OpenDate.String(),
			Opened:    l.QtyOpened.String(),
			Closed:    l.QtyClosed.String(),
			Remaining: l.Remaining().String(),
			CostTotal: l.CostTotal.String(),
			CostShare: l.CostPerShare().Round(2).String(),
			State:     state,
		})
	}
	printMarkdown(renderer.RenderLots(view))
	return subcommands.ExitSuccess
}

type positionsCmd struct {
	holdingFilter
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "show open positions with their cost basis" }
func (*positionsCmd) Usage() string {
	return `pledger positions [-instrument <symbol>] [-account <name>]

  Aggregates open lots into one position per instrument and account,
  with remaining quantity, cost basis and average cost.
`
}

func (p *positionsCmd) SetFlags(f *flag.FlagSet) {
	p.holdingFilter.SetFlags(f)
}

func (p *positionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	instrumentID, accountID, err := p.resolve(sys)
	if err != nil {
		return fail(err)
	}
	positions, err := sys.Positions(instrumentID, accountID)
	if err != nil {
		return fail(err)
	}
	names, err := loadNames(sys)
	if err != nil {
		return fail(err)
	}

	view := &renderer.Positions{AsOf: ledger.Today().String()}
	for _, pos := range positions {
		view.Rows = append(view.Rows, renderer.PositionRow{
			Symbol:    names.instrument(pos.InstrumentID),
			Account:   names.account(pos.AccountID),
			Quantity:  pos.Quantity.String(),
			CostBasis: pos.CostBasis.String(),
			AvgCost:   pos.AvgCost.Round(2).String(),
			Lots:      pos.Lots,
		})
	}
	printMarkdown(renderer.RenderPositions(view))
	return subcommands.ExitSuccess
}

type reconcileCmd struct {
	holdingFilter
	tolerance float64
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "check lot state against transaction history" }
func (*reconcileCmd) Usage() string {
	return `pledger reconcile [-instrument <symbol>] [-account <name>] [-tolerance <amount>]

  Compares lot quantities and realized figures against the posted trade
  history and lists every discrepancy beyond the tolerance. Nothing is
  corrected automatically.
`
}

func (p *reconcileCmd) SetFlags(f *flag.FlagSet) {
	p.holdingFilter.SetFlags(f)
	f.Float64Var(&p.tolerance, "tolerance", 0, "Amount tolerance (defaults to 0.01).")
}

func (p *reconcileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	instrumentID, accountID, err := p.resolve(sys)
	if err != nil {
		return fail(err)
	}
	tolerance := ledger.M(p.tolerance, sys.Config().Currency)
	findings, err := sys.Reconcile(instrumentID, accountID, tolerance)
	if err != nil {
		return fail(err)
	}
	names, err := loadNames(sys)
	if err != nil {
		return fail(err)
	}

	view := &renderer.Reconciliation{}
	if p.tolerance > 0 {
		view.Tolerance = tolerance.String()
	}
	for _, d := range findings {
		view.Rows = append(view.Rows, renderer.FindingRow{
			Symbol:   names.instrument(d.InstrumentID),
			Account:  names.account(d.AccountID),
			Kind:     d.Kind,
			Expected: d.Expected,
			Actual:   d.Actual,
			Detail:   d.Detail,
		})
	}
	printMarkdown(renderer.RenderReconciliation(view))
	return subcommands.ExitSuccess
}
