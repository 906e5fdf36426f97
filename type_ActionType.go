package ledger

// ActionType classifies a corporate action.
type ActionType int

const (
	Split ActionType = iota
	CashDividend
	StockDividend
	SymbolChange
	Merger
	Spinoff
)

func (t ActionType) String() string {
	switch t {
	case Split:
		return "SPLIT"
	case CashDividend:
		return "CASH_DIVIDEND"
	case StockDividend:
		return "STOCK_DIVIDEND"
	case SymbolChange:
		return "SYMBOL_CHANGE"
	case Merger:
		return "MERGER"
	case Spinoff:
		return "SPINOFF"
	default:
		return "unknown"
	}
}

// ParseActionType parses a string into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "SPLIT":
		return Split, nil
	case "CASH_DIVIDEND":
		return CashDividend, nil
	case "STOCK_DIVIDEND":
		return StockDividend, nil
	case "SYMBOL_CHANGE":
		return SymbolChange, nil
	case "MERGER":
		return Merger, nil
	case "SPINOFF":
		return Spinoff, nil
	default:
		return 0, Validationf("unknown corporate action type: %q", s)
	}
}
