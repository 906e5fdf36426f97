package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/ledger"
	"github.com/google/subcommands"
)

type transferCmd struct {
	from   string
	to     string
	amount float64
	date   string
	memo   string
	draft  bool
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move money between two accounts" }
func (*transferCmd) Usage() string {
	return `pledger transfer -from <account> -to <account> -amount <value> [-d <date>] [-memo <text>] [-draft]

  Records a balanced two-line TRANSFER transaction. The transaction is
  posted immediately unless -draft is set.
`
}

func (p *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.from, "from", "", "Source account name.")
	f.StringVar(&p.to, "to", "", "Destination account name.")
	f.Float64Var(&p.amount, "amount", 0, "Amount to move.")
	f.StringVar(&p.date, "d", "", "Transaction date (defaults to today).")
	f.StringVar(&p.memo, "memo", "", "Free text memo.")
	f.BoolVar(&p.draft, "draft", false, "Leave the transaction unposted.")
}

func (p *transferCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	from, err := resolveAccount(sys, p.from)
	if err != nil {
		return fail(err)
	}
	to, err := resolveAccount(sys, p.to)
	if err != nil {
		return fail(err)
	}
	on, err := parseDateFlag(p.date, ledger.Today())
	if err != nil {
		return fail(err)
	}

	amount := ledger.M(p.amount, from.Currency)
	t, err := sys.CreateSimpleTransfer(from.ID, to.ID, amount, on, p.memo, !p.draft)
	if err != nil {
		return fail(err)
	}

	state := "posted"
	if !t.Posted {
		state = "draft"
	}
	fmt.Printf("Recorded transfer #%d of %s from %q to %q (%s)\n", t.ID, amount, from.Name, to.Name, state)
	return subcommands.ExitSuccess
}
