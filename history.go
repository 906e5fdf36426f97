package ledger

// BalancePoint is an account balance sampled on a date.
type BalancePoint struct {
	Date    Date
	Balance Money
}

// BalanceHistory samples the posted balance of an account across the range
// at the given period. The range end is always sampled, so the last point
// reflects the balance as of r.To even when the period step overshoots it.
func (s *System) BalanceHistory(accountID int64, r Range, p Period) ([]BalancePoint, error) {
	if err := checkStatementRange(r); err != nil {
		return nil, err
	}
	if _, err := s.store.Account(accountID); err != nil {
		return nil, err
	}
	var points []BalancePoint
	for on := r.From; on.Before(r.To); on = stepDate(on, p) {
		balance, err := s.AccountBalance(accountID, on, true)
		if err != nil {
			return nil, err
		}
		points = append(points, BalancePoint{Date: on, Balance: balance})
	}
	closing, err := s.AccountBalance(accountID, r.To, true)
	if err != nil {
		return nil, err
	}
	return append(points, BalancePoint{Date: r.To, Balance: closing}), nil
}

func checkStatementRange(r Range) error {
	if r.From.IsZero() || r.To.IsZero() {
		return Validationf("a start and an end date are required")
	}
	if r.From.After(r.To) {
		return Validationf("start date %s is after end date %s", r.From, r.To)
	}
	return nil
}

// stepDate advances a sampling date by one period.
func stepDate(d Date, p Period) Date {
	switch p {
	case Weekly:
		return d.Add(7)
	case Monthly:
		return d.AddMonth(1)
	case Quarterly:
		return d.AddMonth(3)
	case Yearly:
		return d.AddMonth(12)
	default:
		return d.Add(1)
	}
}

// StatementEntry is one statement line with the running balance after the
// line is applied.
type StatementEntry struct {
	Date          Date
	TransactionID int64
	Type          TransactionType
	Memo          string
	Side          Side
	Amount        Money
	Balance       Money
}

// AccountStatement lists an account's posted activity over a range between
// its opening and closing balances.
type AccountStatement struct {
	Account  *Account
	From, To Date
	Opening  Money
	Entries  []StatementEntry
	Closing  Money
}

// AccountLedger builds the statement of one account over the range. The
// running balance follows the account's normal side: debits increase assets
// and expenses, credits increase the rest.
func (s *System) AccountLedger(accountID int64, r Range) (*AccountStatement, error) {
	if err := checkStatementRange(r); err != nil {
		return nil, err
	}
	account, err := s.store.Account(accountID)
	if err != nil {
		return nil, err
	}
	opening, err := s.AccountBalance(accountID, r.From.Add(-1), true)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.accountLedgerLines(accountID, r)
	if err != nil {
		return nil, err
	}

	running := opening
	entries := make([]StatementEntry, 0, len(lines))
	for _, line := range lines {
		signed := line.Amount
		if (line.Side == Debit) != account.Type.DebitPositive() {
			signed = signed.Neg()
		}
		running = running.Add(signed)
		entries = append(entries, StatementEntry{
			Date:          line.Date,
			TransactionID: line.TransactionID,
			Type:          line.Type,
			Memo:          line.Memo,
			Side:          line.Side,
			Amount:        line.Amount,
			Balance:       running,
		})
	}
	return &AccountStatement{
		Account: account,
		From:    r.From,
		To:      r.To,
		Opening: opening,
		Entries: entries,
		Closing: running,
	}, nil
}
