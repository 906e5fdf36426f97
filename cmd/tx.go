package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/etnz/ledger"
	"github.com/etnz/ledger/renderer"
	"github.com/google/subcommands"
)

type txCmd struct {
	from   string
	to     string
	drafts bool
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list transactions in the ledger" }
func (*txCmd) Usage() string {
	return `pledger tx [-from <date>] [-to <date>] [-drafts]

  Lists transactions with their lines, oldest first. Without a range the
  whole ledger is listed. Draft transactions are excluded unless -drafts
  is set.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.from, "from", "", "Start date of the range.")
	f.StringVar(&p.to, "to", "", "End date of the range (defaults to today when -from is set).")
	f.BoolVar(&p.drafts, "drafts", false, "Include draft transactions.")
}

func (p *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	r, err := parseRangeFlags(p.from, p.to)
	if err != nil {
		return fail(err)
	}
	txs, err := sys.Transactions(r, !p.drafts)
	if err != nil {
		return fail(err)
	}
	names, err := loadNames(sys)
	if err != nil {
		return fail(err)
	}

	view := &renderer.Transactions{}
	for _, t := range txs {
		view.Rows = append(view.Rows, transactionRow(t, names))
	}
	printMarkdown(renderer.RenderTransactions(view))
	return subcommands.ExitSuccess
}

// transactionRow maps a transaction to its renderer view.
func transactionRow(t ledger.Transaction, names ledgerNames) renderer.TransactionRow {
	row := renderer.TransactionRow{
		ID:     t.ID,
		Date:   t.Date.String(),
		Type:   t.Type.String(),
		Memo:   t.Memo,
		Status: "draft",
	}
	if t.Posted {
		row.Status = "posted"
	}
	for _, l := range t.Lines {
		qty := ""
		if !l.Quantity.IsZero() {
			qty = l.Quantity.String()
		}
		row.Lines = append(row.Lines, renderer.TransactionLineRow{
			Account:  names.account(l.AccountID),
			Symbol:   names.instrument(l.InstrumentID),
			Quantity: qty,
			Amount:   l.Amount.String(),
			Side:     l.Side.String(),
		})
	}
	return row
}

type postCmd struct {
	id int64
}

func (*postCmd) Name() string     { return "post" }
func (*postCmd) Synopsis() string { return "post a draft transaction" }
func (*postCmd) Usage() string {
	return `pledger post -id <transaction>

  Posts a draft transaction, making it count in balances and reports.
  Posting re-checks that debits equal credits.
`
}

func (p *postCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&p.id, "id", 0, "Transaction id.")
}

func (p *postCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	if err := sys.PostTransaction(p.id); err != nil {
		return fail(err)
	}
	fmt.Printf("Posted transaction #%d\n", p.id)
	return subcommands.ExitSuccess
}

type unpostCmd struct {
	id int64
}

func (*unpostCmd) Name() string     { return "unpost" }
func (*unpostCmd) Synopsis() string { return "revert a transaction to draft" }
func (*unpostCmd) Usage() string {
	return `pledger unpost -id <transaction>

  Reverts a posted transaction to draft. Lots opened or closed by the
  transaction are not reverted; run reconcile after correcting trades.
`
}

func (p *unpostCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&p.id, "id", 0, "Transaction id.")
}

func (p *unpostCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	if err := sys.UnpostTransaction(p.id); err != nil {
		return fail(err)
	}
	fmt.Printf("Unposted transaction #%d\n", p.id)
	return subcommands.ExitSuccess
}

type deleteTxCmd struct {
	id int64
}

func (*deleteTxCmd) Name() string     { return "delete-tx" }
func (*deleteTxCmd) Synopsis() string { return "delete a draft transaction" }
func (*deleteTxCmd) Usage() string {
	return `pledger delete-tx -id <transaction>

  Deletes a draft transaction and its lines. Posted transactions must be
  unposted first.
`
}

func (p *deleteTxCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&p.id, "id", 0, "Transaction id.")
}

func (p *deleteTxCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	if err := sys.DeleteTransaction(p.id); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted transaction #%d\n", p.id)
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	from   string
	to     string
	drafts bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "summarize activity per transaction type" }
func (*summaryCmd) Usage() string {
	return `pledger summary [-from <date>] [-to <date>] [-drafts]

  Shows the count and debit/credit totals per transaction type over the
  range.
`
}

func (p *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.from, "from", "", "Start date of the range.")
	f.StringVar(&p.to, "to", "", "End date of the range (defaults to today when -from is set).")
	f.BoolVar(&p.drafts, "drafts", false, "Include draft transactions.")
}

func (p *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	r, err := parseRangeFlags(p.from, p.to)
	if err != nil {
		return fail(err)
	}
	summary, err := sys.SummaryByType(r, !p.drafts)
	if err != nil {
		return fail(err)
	}

	types := make([]ledger.TransactionType, 0, len(summary))
	for typ := range summary {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })

	var b strings.Builder
	b.WriteString("# Activity Summary\n\n")
	if len(types) == 0 {
		b.WriteString("No transactions.\n")
	} else {
		b.WriteString("| Type | Count | Debits | Credits |\n|---|---:|---:|---:|\n")
		for _, typ := range types {
			s := summary[typ]
			fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", typ, s.Count, s.Debits, s.Credits)
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
