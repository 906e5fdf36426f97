package cmd

import (
	"context"
	"flag"

	"github.com/etnz/ledger"
	"github.com/etnz/ledger/renderer"
	"github.com/google/subcommands"
)

type historyCmd struct {
	account string
	from    string
	to      string
	period  string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "sample an account balance over time" }
func (*historyCmd) Usage() string {
	return `pledger history -account <name> -from <date> [-to <date>] [-period <period>]

  Samples the posted balance of the account across the period at the
  given frequency (daily, weekly, monthly, quarterly, yearly). The end
  date is always included.
`
}

func (p *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.account, "account", "", "Account name.")
	f.StringVar(&p.from, "from", "", "Start date of the period.")
	f.StringVar(&p.to, "to", "", "End date of the period (defaults to today).")
	f.StringVar(&p.period, "period", "monthly", "Sampling frequency.")
}

func (p *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	account, err := resolveAccount(sys, p.account)
	if err != nil {
		return fail(err)
	}
	r, err := parseRangeFlags(p.from, p.to)
	if err != nil {
		return fail(err)
	}
	period, err := ledger.ParsePeriod(p.period)
	if err != nil {
		return fail(err)
	}

	points, err := sys.BalanceHistory(account.ID, r, period)
	if err != nil {
		return fail(err)
	}

	view := &renderer.History{Account: account.Name, Period: period.String()}
	for _, point := range points {
		view.Rows = append(view.Rows, renderer.HistoryRow{
			Date:    point.Date.String(),
			Balance: point.Balance.String(),
		})
	}
	printMarkdown(renderer.RenderHistory(view))
	return subcommands.ExitSuccess
}

type statementCmd struct {
	account string
	from    string
	to      string
}

func (*statementCmd) Name() string     { return "statement" }
func (*statementCmd) Synopsis() string { return "list an account's activity with a running balance" }
func (*statementCmd) Usage() string {
	return `pledger statement -account <name> -from <date> [-to <date>]

  Lists the posted lines touching the account over the period, oldest
  first, with the running balance after each line, framed by the opening
  and closing balances.
`
}

func (p *statementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.account, "account", "", "Account name.")
	f.StringVar(&p.from, "from", "", "Start date of the period.")
	f.StringVar(&p.to, "to", "", "End date of the period (defaults to today).")
}

func (p *statementCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	account, err := resolveAccount(sys, p.account)
	if err != nil {
		return fail(err)
	}
	r, err := parseRangeFlags(p.from, p.to)
	if err != nil {
		return fail(err)
	}

	statement, err := sys.AccountLedger(account.ID, r)
	if err != nil {
		return fail(err)
	}

	view := &renderer.Statement{
		Account: statement.Account.Name,
		From:    statement.From.String(),
		To:      statement.To.String(),
		Opening: statement.Opening.String(),
		Closing: statement.Closing.String(),
	}
	for _, entry := range statement.Entries {
		view.Rows = append(view.Rows, renderer.StatementRow{
			Date:    entry.Date.String(),
			Tx:      entry.TransactionID,
			Type:    entry.Type.String(),
			Memo:    entry.Memo,
			Side:    entry.Side.String(),
			Amount:  entry.Amount.String(),
			Balance: entry.Balance.String(),
		})
	}
	printMarkdown(renderer.RenderStatement(view))
	return subcommands.ExitSuccess
}
