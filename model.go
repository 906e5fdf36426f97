package ledger

import "time"

// Account is a double-entry account. The type is immutable in practice after
// creation; the balance sign convention depends on it.
type Account struct {
	ID       int64
	Name     string
	Type     AccountType
	Currency string
}

// Instrument is a tradable security. The symbol may be rewritten in place by
// a SYMBOL_CHANGE corporate action; lots, lines and prices follow the
// instrument by id, not by symbol.
type Instrument struct {
	ID       int64
	Symbol   string
	Name     string
	Type     InstrumentType
	Currency string
}

// Price is a daily closing price, at most one per instrument per date.
type Price struct {
	InstrumentID int64
	Date         Date
	Close        Money
}

// Transaction owns an ordered set of lines. Line order is insertion order,
// kept for audit purposes only.
type Transaction struct {
	ID        int64
	Date      Date
	Type      TransactionType
	Memo      string
	Posted    bool
	CreatedAt time.Time
	Lines     []Line
}

// Line belongs to exactly one transaction. Amount is a non-negative magnitude
// qualified by the debit/credit side. InstrumentID is 0 when the line does
// not reference an instrument; Quantity is signed, positive for an increase
// in holding.
type Line struct {
	ID            int64
	TransactionID int64
	AccountID     int64
	InstrumentID  int64
	Quantity      Quantity
	Amount        Money
	Side          Side
}

// Lot is a discrete acquisition of an instrument. QtyClosed only ever
// increases, and never exceeds QtyOpened. CostTotal is the acquisition cost
// of the full original quantity.
type Lot struct {
	ID           int64
	InstrumentID int64
	AccountID    int64
	OpenDate     Date
	QtyOpened    Quantity
	QtyClosed    Quantity
	CostTotal    Money
	Closed       bool
}

// Remaining returns the open quantity of the lot.
func (l Lot) Remaining() Quantity { return l.QtyOpened.Sub(l.QtyClosed) }

// CostPerShare returns the acquisition cost of one unit.
func (l Lot) CostPerShare() Money {
	if l.QtyOpened.IsZero() {
		return M(0, l.CostTotal.Currency())
	}
	return l.CostTotal.Div(l.QtyOpened)
}

// RemainingCost returns the cost basis of the open quantity, rounded to
// 2 decimal places.
func (l Lot) RemainingCost() Money {
	if l.QtyOpened.IsZero() {
		return M(0, l.CostTotal.Currency())
	}
	return l.CostTotal.Mul(l.Remaining()).Div(l.QtyOpened).Round(2)
}

// CorporateAction is a security-level event. Processed is monotonic: once
// set it is never reset, and the action can no longer be updated or deleted.
type CorporateAction struct {
	ID            int64
	InstrumentID  int64
	Type          ActionType
	EffectiveDate Date
	Ratio         Quantity // SPLIT, STOCK_DIVIDEND
	CashPerShare  Money    // CASH_DIVIDEND
	Notes         string   // SYMBOL_CHANGE carries the new symbol here
	Processed     bool
}
