package ledger

// TransactionType classifies a ledger transaction.
type TransactionType int

const (
	Trade TransactionType = iota
	Transfer
	Dividend
	Fee
	Tax
	FX
	Adjust
)

func (t TransactionType) String() string {
	switch t {
	case Trade:
		return "TRADE"
	case Transfer:
		return "TRANSFER"
	case Dividend:
		return "DIVIDEND"
	case Fee:
		return "FEE"
	case Tax:
		return "TAX"
	case FX:
		return "FX"
	case Adjust:
		return "ADJUST"
	default:
		return "unknown"
	}
}

// ParseTransactionType parses a string into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case "TRADE":
		return Trade, nil
	case "TRANSFER":
		return Transfer, nil
	case "DIVIDEND":
		return Dividend, nil
	case "FEE":
		return Fee, nil
	case "TAX":
		return Tax, nil
	case "FX":
		return FX, nil
	case "ADJUST":
		return Adjust, nil
	default:
		return 0, Validationf("unknown transaction type: %q", s)
	}
}

// Side is the debit/credit indicator of a transaction line.
type Side int

const (
	Debit Side = iota
	Credit
)

func (s Side) String() string {
	if s == Debit {
		return "DR"
	}
	return "CR"
}

// ParseSide parses a "DR" or "CR" indicator.
func ParseSide(s string) (Side, error) {
	switch s {
	case "DR":
		return Debit, nil
	case "CR":
		return Credit, nil
	default:
		return 0, Validationf("unknown debit/credit indicator: %q", s)
	}
}
