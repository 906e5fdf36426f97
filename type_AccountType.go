package ledger

// AccountType classifies an account for the balance sign convention.
type AccountType int

const (
	Asset AccountType = iota
	Liability
	Income
	Expense
	Equity
)

func (t AccountType) String() string {
	switch t {
	case Asset:
		return "ASSET"
	case Liability:
		return "LIABILITY"
	case Income:
		return "INCOME"
	case Expense:
		return "EXPENSE"
	case Equity:
		return "EQUITY"
	default:
		return "unknown"
	}
}

// DebitPositive reports whether a debit increases the account's balance.
// Assets and expenses carry a debit normal balance; liabilities, equity and
// income carry a credit normal balance.
func (t AccountType) DebitPositive() bool {
	return t == Asset || t == Expense
}

// ParseAccountType parses a string into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	switch s {
	case "ASSET":
		return Asset, nil
	case "LIABILITY":
		return Liability, nil
	case "INCOME":
		return Income, nil
	case "EXPENSE":
		return Expense, nil
	case "EQUITY":
		return Equity, nil
	default:
		return 0, Validationf("unknown account type: %q", s)
	}
}
