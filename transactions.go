package ledger

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// LineInput describes one line of a transaction to create. Amount is a
// non-negative magnitude qualified by Side; Quantity is signed and requires
// an instrument reference.
type LineInput struct {
	AccountID    int64
	InstrumentID int64
	Quantity     Quantity
	Amount       Money
	Side         Side
}

// CreateTransaction validates and creates a balanced double-entry
// transaction. Validation happens before any mutation; the transaction and
// its lines are persisted atomically, posted in the same unit of work when
// autoPost is set.
//
// For TRADE transactions, every line carrying an instrument and a non-zero
// quantity is handed to the lot tracker after the transaction commits: a
// positive quantity opens a lot with the line's amount as total cost, a
// negative quantity closes that many units FIFO. A lot-tracking failure is
// logged and does not undo the created transaction; reconciliation surfaces
// the drift.
func (s *System) CreateTransaction(typ TransactionType, on Date, lines []LineInput, memo string, autoPost bool) (*Transaction, error) {
	if on.IsZero() {
		return nil, Validationf("transaction date is required")
	}
	if len(lines) < 2 {
		return nil, Validationf("a transaction requires at least 2 lines, got %d", len(lines))
	}

	prepared := make([]Line, 0, len(lines))
	debits, credits := decimal.Zero, decimal.Zero
	for i, in := range lines {
		account, err := s.store.Account(in.AccountID)
		if err != nil {
			return nil, err
		}
		if !in.Amount.IsPositive() {
			return nil, Validationf("line %d: amount must be strictly positive, got %s", i+1, in.Amount.Text())
		}
		if c := in.Amount.Currency(); c != "" && c != account.Currency {
			return nil, Validationf("line %d: amount currency %s does not match account currency %s", i+1, c, account.Currency)
		}
		if in.InstrumentID != 0 {
			if _, err := s.store.Instrument(in.InstrumentID); err != nil {
				return nil, err
			}
		} else if !in.Quantity.IsZero() {
			return nil, Validationf("line %d: a quantity requires an instrument reference", i+1)
		}
		amount := Money{value: in.Amount.value, cur: account.Currency}
		if in.Side == Debit {
			debits = debits.Add(amount.value)
		} else {
			credits = credits.Add(amount.value)
		}
		prepared = append(prepared, Line{
			AccountID:    in.AccountID,
			InstrumentID: in.InstrumentID,
			Quantity:     in.Quantity,
			Amount:       amount,
			Side:         in.Side,
		})
	}

	// Exact equality on the prepared values, not on rounded display values.
	if !debits.Equal(credits) {
		return nil, Businessf("transaction is not balanced: debits %s, credits %s", debits, credits)
	}

	t := &Transaction{Date: on, Type: typ, Memo: memo, Posted: autoPost, Lines: prepared}
	if err := s.store.withTx(func(tx *sql.Tx) error {
		return s.store.insertTransaction(tx, t)
	}); err != nil {
		return nil, err
	}

	if typ == Trade {
		s.trackTradeLots(t)
	}
	return t, nil
}

// trackTradeLots applies the lot side effects of a created TRADE
// transaction. Failures are deliberately isolated: the trade's ledger entry
// stands, the failure is logged, and reconcile is the recovery path.
func (s *System) trackTradeLots(t *Transaction) {
	for _, line := range t.Lines {
		if line.InstrumentID == 0 || line.Quantity.IsZero() {
			continue
		}
		var err error
		if line.Quantity.IsPositive() {
			_, err = s.OpenLot(line.InstrumentID, line.AccountID, line.Quantity, line.Amount, t.Date)
		} else {
			_, err = s.CloseLotsFIFO(line.InstrumentID, line.AccountID, line.Quantity.Abs())
		}
		if err != nil {
			s.log.Error("lot tracking failed for trade line",
				"transaction", t.ID, "line", line.ID,
				"instrument", line.InstrumentID, "account", line.AccountID,
				"quantity", line.Quantity.String(), "err", err)
		}
	}
}

// PostTransaction flips a draft transaction to posted, re-checking the
// balance invariant at the storage boundary.
func (s *System) PostTransaction(id int64) error {
	return s.store.PostTransaction(id)
}

// UnpostTransaction returns a posted transaction to draft. Lot side effects
// of TRADE transactions are not reversed.
func (s *System) UnpostTransaction(id int64) error {
	return s.store.UnpostTransaction(id)
}

// DeleteTransaction removes a draft transaction and its lines.
func (s *System) DeleteTransaction(id int64) error {
	return s.store.DeleteTransaction(id)
}

// Transaction returns a transaction with its lines.
func (s *System) Transaction(id int64) (*Transaction, error) {
	return s.store.Transaction(id)
}

// Transactions returns the transactions within the range, oldest first.
func (s *System) Transactions(r Range, postedOnly bool) ([]Transaction, error) {
	return s.store.TransactionsByRange(r, postedOnly)
}

// UnpostedTransactions returns all drafts, oldest first.
func (s *System) UnpostedTransactions() ([]Transaction, error) {
	return s.store.UnpostedTransactions()
}

// AccountBalance sums the signed line amounts of an account per its sign
// convention: debits increase assets and expenses, credits increase
// liabilities, equity and income. A zero asOf date means no date bound.
func (s *System) AccountBalance(accountID int64, asOf Date, postedOnly bool) (Money, error) {
	account, err := s.store.Account(accountID)
	if err != nil {
		return Money{}, err
	}
	lines, err := s.store.accountLines(accountID, asOf, postedOnly)
	if err != nil {
		return Money{}, err
	}
	balance := M(0, account.Currency)
	for _, line := range lines {
		signed := line.Amount
		if line.Side == Credit {
			signed = signed.Neg()
		}
		balance = balance.Add(signed)
	}
	if !account.Type.DebitPositive() {
		balance = balance.Neg()
	}
	return balance, nil
}

// CreateSimpleTransfer creates a two-line TRANSFER moving amount from one
// account to another.
func (s *System) CreateSimpleTransfer(fromAccountID, toAccountID int64, amount Money, on Date, memo string, autoPost bool) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, Validationf("transfer amount must be strictly positive, got %s", amount.Text())
	}
	lines := []LineInput{
		{AccountID: toAccountID, Amount: amount, Side: Debit},
		{AccountID: fromAccountID, Amount: amount, Side: Credit},
	}
	return s.CreateTransaction(Transfer, on, lines, memo, autoPost)
}

// CreateTradeTransaction builds the balanced line set of a buy or sell and
// creates it as a TRADE. A positive quantity buys: fees are capitalized into
// the holding's cost. A negative quantity sells: fees reduce the cash
// proceeds and are booked against the fee account.
func (s *System) CreateTradeTransaction(accountID, instrumentID, cashAccountID int64, qty Quantity, price Money, on Date, fees Money, feeAccountID int64, memo string, autoPost bool) (*Transaction, error) {
	if qty.IsZero() {
		return nil, Validationf("trade quantity must be non-zero")
	}
	if !price.IsPositive() {
		return nil, Validationf("trade price must be strictly positive, got %s", price.Text())
	}
	if fees.IsNegative() {
		return nil, Validationf("trade fees cannot be negative, got %s", fees.Text())
	}

	gross := price.Mul(qty.Abs())
	var lines []LineInput
	if qty.IsPositive() {
		cost := gross.Add(fees)
		lines = []LineInput{
			{AccountID: accountID, InstrumentID: instrumentID, Quantity: qty, Amount: cost, Side: Debit},
			{AccountID: cashAccountID, Amount: cost, Side: Credit},
		}
	} else {
		proceeds := gross.Sub(fees)
		if !proceeds.IsPositive() {
			return nil, Validationf("trade fees %s exceed gross proceeds %s", fees.Text(), gross.Text())
		}
		lines = []LineInput{
			{AccountID: cashAccountID, Amount: proceeds, Side: Debit},
		}
		if fees.IsPositive() {
			if feeAccountID == 0 {
				return nil, Validationf("a fee account is required when selling with fees")
			}
			lines = append(lines, LineInput{AccountID: feeAccountID, Amount: fees, Side: Debit})
		}
		lines = append(lines, LineInput{AccountID: accountID, InstrumentID: instrumentID, Quantity: qty, Amount: gross, Side: Credit})
	}
	return s.CreateTransaction(Trade, on, lines, memo, autoPost)
}

// BalanceInfo reports the debit and credit totals of one transaction.
type BalanceInfo struct {
	TransactionID int64
	Debits        Money
	Credits       Money
	Balanced      bool
}

// TransactionBalance returns the debit/credit totals of a transaction and
// whether they agree exactly.
func (s *System) TransactionBalance(id int64) (*BalanceInfo, error) {
	t, err := s.store.Transaction(id)
	if err != nil {
		return nil, err
	}
	var debits, credits Money
	for _, line := range t.Lines {
		if line.Side == Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}
	return &BalanceInfo{
		TransactionID: id,
		Debits:        debits,
		Credits:       credits,
		Balanced:      debits.Sub(credits).IsZero(),
	}, nil
}

// TypeSummary aggregates transactions of one type.
type TypeSummary struct {
	Count   int
	Debits  Money
	Credits Money
}

// SummaryByType aggregates transaction counts and debit/credit totals per
// transaction type within the range.
func (s *System) SummaryByType(r Range, postedOnly bool) (map[TransactionType]TypeSummary, error) {
	txs, err := s.store.TransactionsByRange(r, postedOnly)
	if err != nil {
		return nil, err
	}
	summary := make(map[TransactionType]TypeSummary)
	for _, t := range txs {
		entry := summary[t.Type]
		entry.Count++
		for _, line := range t.Lines {
			if line.Side == Debit {
				entry.Debits = entry.Debits.Add(line.Amount)
			} else {
				entry.Credits = entry.Credits.Add(line.Amount)
			}
		}
		summary[t.Type] = entry
	}
	return summary, nil
}
