package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/ledger"
	"github.com/etnz/ledger/renderer"
	"github.com/google/subcommands"
)

type newAccountCmd struct {
	name     string
	typ      string
	currency string
}

func (*newAccountCmd) Name() string     { return "new-account" }
func (*newAccountCmd) Synopsis() string { return "create a new account in the ledger" }
func (*newAccountCmd) Usage() string {
	return `pledger new-account -name <name> -type <type> [-currency <code>]

  Creates an account. Type is one of ASSET, LIABILITY, INCOME, EXPENSE,
  EQUITY. The currency defaults to the reporting currency.
`
}

func (p *newAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.name, "name", "", "Account name, unique in the ledger.")
	f.StringVar(&p.typ, "type", "", "Account type (ASSET, LIABILITY, INCOME, EXPENSE, EQUITY).")
	f.StringVar(&p.currency, "currency", "", "ISO currency code. Defaults to the configured currency.")
}

func (p *newAccountCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	typ, err := ledger.ParseAccountType(p.typ)
	if err != nil {
		return fail(err)
	}
	currency := p.currency
	if currency == "" {
		currency = sys.Config().Currency
	}

	a := &ledger.Account{Name: p.name, Type: typ, Currency: currency}
	if err := sys.Store().CreateAccount(a); err != nil {
		return fail(err)
	}
	fmt.Printf("Created account %q (#%d, %s, %s)\n", a.Name, a.ID, a.Type, a.Currency)
	return subcommands.ExitSuccess
}

type accountsCmd struct {
	date   string
	drafts bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts with their balances" }
func (*accountsCmd) Usage() string {
	return `pledger accounts [-d <date>] [-drafts]

  Lists every account with its balance as of the given date. Draft
  transactions are excluded unless -drafts is set.
`
}

func (p *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.date, "d", "", "Balance date (defaults to today).")
	f.BoolVar(&p.drafts, "drafts", false, "Include draft transactions in balances.")
}

func (p *accountsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, err := OpenSystem()
	if err != nil {
		return fail(err)
	}
	defer sys.Close()

	asOf, err := parseDateFlag(p.date, ledger.Today())
	if err != nil {
		return fail(err)
	}

	accounts, err := sys.Store().Accounts()
	if err != nil {
		return fail(err)
	}

	view := &renderer.Balances{AsOf: asOf.String()}
	for _, a := range accounts {
		balance, err := sys.AccountBalance(a.ID, asOf, !p.drafts)
		if err != nil {
			return fail(err)
		}
		view.Rows = append(view.Rows, renderer.BalanceRow{
			Account: a.Name,
			Type:    a.Type.String(),
			Balance: balance.String(),
		})
	}
	printMarkdown(renderer.RenderBalances(view))
	return subcommands.ExitSuccess
}
