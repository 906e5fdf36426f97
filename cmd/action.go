package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/etnz/ledger"
	"github.com/etnz/ledger/renderer"
	"github.com/google/subcommands"
)

type newActionCmd struct {
	instrument string
	typ        string
	date       string
	ratio      float64
	cash       float64
	notes      string
	process    bool
}

func (*newActionCmd) Name() string     { return "new-action" }
func (*newActionCmd) Synopsis() string { return "record a corporate action" }
func (*newActionCmd) Usage() string {
	return `pledger new-action -instrument <symbol> -type <type> -d <date> [-ratio <r>] [-cash <c>] [-notes <text>] [-process]

  Records a corporate action without touching the ledger. Type is one of
  SPLIT, CASH_DIVIDEND, STOCK_DIVIDEND, SYMBOL_CHANGE, MERGER, SPINOFF.
  SPLIT and STOCK_DIVIDEND need -ratio, CASH_DIVIDEND needs -cash, and
  SYMBOL_CHANGE carries the new symbol in -notes. With -process the
  action is applied immediately.
`
}

func (p *newActionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.instrument, "instrument", "", "Instrument symbol.")
	f.StringVar(&p.typ, "type", "", "Corporate action type.")
	f.StringVar(&p.date, "d", "", "Effective date.")
	f.Float64Var(&p.ratio, "ratio", 0, "Split or stock dividend ratio.")
	f.Float64Var(&p.cash, "cash", 0, "Cash amount per share.")
	f.StringVar(&p.notes, "notes", "", "Notes, the new symbol for SYMBOL_CHANGE.")
	f.BoolVar(&p.process, "process", false, "Process the action immediately.")
}

func (p *newActionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	instrument, err := resolveInstrument(sys, p.instrument)
	if err != nil {
		return fail(err)
	}
	typ, err := ledger.ParseActionType(p.typ)
	if err != nil {
		return fail(err)
	}
	effective, err := ledger.ParseDate(p.date)
	if err != nil {
		return fail(err)
	}

	a, err := sys.CreateAction(instrument.ID, typ, effective,
		ledger.Q(p.ratio), ledger.M(p.cash, instrument.Currency), p.notes, p.process)
	if err != nil {
		return fail(err)
	}

	state := "pending"
	if a.Processed {
		state = "processed"
	}
	fmt.Printf("Recorded %s #%d on %s effective %s (%s)\n", a.Type, a.ID, instrument.Symbol, a.EffectiveDate, state)
	return subcommands.ExitSuccess
}

type processActionCmd struct {
	id int64
}

func (*processActionCmd) Name() string     { return "process-action" }
func (*processActionCmd) Synopsis() string { return "apply a pending corporate action" }
func (*processActionCmd) Usage() string {
	return `pledger process-action -id <action>

  Applies a pending corporate action to the ledger, all or nothing, and
  marks it processed. A processed action cannot be applied twice.
`
}

func (p *processActionCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&p.id, "id", 0, "Corporate action id.")
}

func (p *processActionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	if err := sys.ProcessAction(p.id); err != nil {
		return fail(err)
	}
	fmt.Printf("Processed corporate action #%d\n", p.id)
	return subcommands.ExitSuccess
}

type processPendingCmd struct {
	until      string
	instrument string
}

func (*processPendingCmd) Name() string     { return "process-pending" }
func (*processPendingCmd) Synopsis() string { return "apply all pending corporate actions in order" }
func (*processPendingCmd) Usage() string {
	return `pledger process-pending [-until <date>] [-instrument <symbol>]

  Applies every pending corporate action due at or before the date,
  oldest first. A failing action is reported and skipped, it does not
  stop the batch.
`
}

func (p *processPendingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.until, "until", "", "Only actions effective at or before this date (defaults to today).")
	f.StringVar(&p.instrument, "instrument", "", "Filter by instrument symbol.")
}

func (p *processPendingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	until, err := parseDateFlag(p.until, ledger.Today())
	if err != nil {
		return fail(err)
	}
	var instrumentID int64
	if p.instrument != "" {
		instrument, err := resolveInstrument(sys, p.instrument)
		if err != nil {
			return fail(err)
		}
		instrumentID = instrument.ID
	}

	results, err := sys.ProcessPending(until, instrumentID)
	if err != nil {
		return fail(err)
	}

	var failures int
	for _, res := range results {
		if res.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "action #%d (%s) failed: %v\n", res.ActionID, res.Type, res.Err)
			continue
		}
		fmt.Printf("Processed action #%d (%s)\n", res.ActionID, res.Type)
	}
	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d pending action(s) failed\n", failures, len(results))
		return subcommands.ExitFailure
	}
	fmt.Printf("Processed %d pending action(s)\n", len(results))
	return subcommands.ExitSuccess
}

type actionsCmd struct {
	instrument string
	pending    bool
	until      string
}

func (*actionsCmd) Name() string     { return "actions" }
func (*actionsCmd) Synopsis() string { return "list corporate actions" }
func (*actionsCmd) Usage() string {
	return `pledger actions [-instrument <symbol>] [-pending] [-until <date>]

  Lists corporate actions ordered by effective date.
`
}

func (p *actionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.instrument, "instrument", "", "Filter by instrument symbol.")
	f.BoolVar(&p.pending, "pending", false, "Only unprocessed actions.")
	f.StringVar(&p.until, "until", "", "Only actions effective at or before this date.")
}

func (p *actionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	var filter ledger.ActionFilter
	if p.instrument != "" {
		instrument, err := resolveInstrument(sys, p.instrument)
		if err != nil {
			return fail(err)
		}
		filter.InstrumentID = instrument.ID
	}
	if p.pending {
		processed := false
		filter.Processed = &processed
	}
	if p.until != "" {
		if filter.Until, err = ledger.ParseDate(p.until); err != nil {
			return fail(err)
		}
	}

	actions, err := sys.Actions(filter)
	if err != nil {
		return fail(err)
	}
	names, err := loadNames(sys)
	if err != nil {
		return fail(err)
	}

	view := &renderer.Actions{}
	for _, a := range actions {
		status := "pending"
		if a.Processed {
			status = "processed"
		}
		row := renderer.ActionRow{
			ID:            a.ID,
			Symbol:        names.instrument(a.InstrumentID),
			Type:          a.Type.String(),
			EffectiveDate: a.EffectiveDate.String(),
			Notes:         a.Notes,
			Status:        status,
		}
		if !a.Ratio.IsZero() {
			row.Ratio = a.Ratio.String()
		}
		if !a.CashPerShare.IsZero() {
			row.CashPerShare = a.CashPerShare.String()
		}
		view.Rows = append(view.Rows, row)
	}
	printMarkdown(renderer.RenderActions(view))
	return subcommands.ExitSuccess
}

type actionSummaryCmd struct{}

func (*actionSummaryCmd) Name() string     { return "action-summary" }
func (*actionSummaryCmd) Synopsis() string { return "summarize corporate actions by type and state" }
func (*actionSummaryCmd) Usage() string {
	return `pledger action-summary

  Counts corporate actions per type and processed state, and pending
  actions per instrument.
`
}

func (p *actionSummaryCmd) SetFlags(f *flag.FlagSet) {}

func (p *actionSummaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	summary, err := sys.SummaryReport()
	if err != nil {
		return fail(err)
	}
	names, err := loadNames(sys)
	if err != nil {
		return fail(err)
	}

	view := &renderer.ActionSummary{Total: summary.Total}
	for typ, count := range summary.ByType {
		view.ByType = append(view.ByType, renderer.ActionCount{
			Type:      typ.String(),
			Total:     count,
			Processed: summary.ProcessedByType[typ],
		})
	}
	sort.Slice(view.ByType, func(i, j int) bool { return view.ByType[i].Type < view.ByType[j].Type })
	for id, count := range summary.PendingByInstrument {
		view.Pending = append(view.Pending, renderer.PendingCount{
			Symbol:  names.instrument(id),
			Pending: count,
		})
	}
	sort.Slice(view.Pending, func(i, j int) bool { return view.Pending[i].Symbol < view.Pending[j].Symbol })

	printMarkdown(renderer.RenderActionSummary(view))
	return subcommands.ExitSuccess
}
