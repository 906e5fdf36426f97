package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/ledger"
	"github.com/google/subcommands"
)

// tradeFlags are the flags shared by the buy and sell commands.
type tradeFlags struct {
	account    string
	instrument string
	cash       string
	feeAccount string
	qty        float64
	price      float64
	fees       float64
	date       string
	memo       string
	draft      bool
}

func (p *tradeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.account, "account", "", "Holding account name.")
	f.StringVar(&p.instrument, "instrument", "", "Instrument symbol.")
	f.StringVar(&p.cash, "cash", "", "Cash account name.")
	f.StringVar(&p.feeAccount, "fee-account", "", "Expense account for selling fees.")
	f.Float64Var(&p.qty, "qty", 0, "Number of shares.")
	f.Float64Var(&p.price, "price", 0, "Price per share.")
	f.Float64Var(&p.fees, "fees", 0, "Broker fees.")
	f.StringVar(&p.date, "d", "", "Trade date (defaults to today).")
	f.StringVar(&p.memo, "memo", "", "Free text memo.")
	f.BoolVar(&p.draft, "draft", false, "Leave the transaction unposted.")
}

// execute records the trade, selling when sell is true.
func (p *tradeFlags) execute(sell bool) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	account, err := resolveAccount(sys, p.account)
	if err != nil {
		return fail(err)
	}
	cash, err := resolveAccount(sys, p.cash)
	if err != nil {
		return fail(err)
	}
	instrument, err := resolveInstrument(sys, p.instrument)
	if err != nil {
		return fail(err)
	}
	var feeAccountID int64
	if p.feeAccount != "" {
		feeAccount, err := resolveAccount(sys, p.feeAccount)
		if err != nil {
			return fail(err)
		}
		feeAccountID = feeAccount.ID
	}
	on, err := parseDateFlag(p.date, ledger.Today())
	if err != nil {
		return fail(err)
	}

	qty := ledger.Q(p.qty)
	if sell {
		qty = qty.Neg()
	}
	price := ledger.M(p.price, instrument.Currency)
	fees := ledger.M(p.fees, instrument.Currency)

	t, err := sys.CreateTradeTransaction(account.ID, instrument.ID, cash.ID, qty, price, on, fees, feeAccountID, p.memo, !p.draft)
	if err != nil {
		return fail(err)
	}

	verb := "Bought"
	if sell {
		verb = "Sold"
	}
	fmt.Printf("%s %s %s at %s (transaction #%d)\n", verb, qty.Abs(), instrument.Symbol, price, t.ID)
	return subcommands.ExitSuccess
}

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy shares of an instrument" }
func (*buyCmd) Usage() string {
	return `pledger buy -account <holding> -instrument <symbol> -cash <account> -qty <n> -price <p> [-fees <f>] [-d <date>] [-memo <text>] [-draft]

  Records a purchase as a balanced TRADE transaction and opens a lot for
  the acquired shares. Fees are capitalized into the lot's cost.
`
}

func (p *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return p.execute(false)
}

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares of an instrument" }
func (*sellCmd) Usage() string {
	return `pledger sell -account <holding> -instrument <symbol> -cash <account> -qty <n> -price <p> [-fees <f> -fee-account <account>] [-d <date>] [-memo <text>] [-draft]

  Records a sale as a balanced TRADE transaction and closes lots oldest
  first. Selling more shares than the open lots hold is rejected.
`
}

func (p *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return p.execute(true)
}
