package ledger

// InstrumentType classifies a tradable instrument.
type InstrumentType int

const (
	EquityInstrument InstrumentType = iota
	ETF
	Bond
	Cash
	Crypto
)

func (t InstrumentType) String() string {
	switch t {
	case EquityInstrument:
		return "EQUITY"
	case ETF:
		return "ETF"
	case Bond:
		return "BOND"
	case Cash:
		return "CASH"
	case Crypto:
		return "CRYPTO"
	default:
		return "unknown"
	}
}

// ParseInstrumentType parses a string into an InstrumentType.
func ParseInstrumentType(s string) (InstrumentType, error) {
	switch s {
	case "EQUITY":
		return EquityInstrument, nil
	case "ETF":
		return ETF, nil
	case "BOND":
		return Bond, nil
	case "CASH":
		return Cash, nil
	case "CRYPTO":
		return Crypto, nil
	default:
		return 0, Validationf("unknown instrument type: %q", s)
	}
}
