package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// balancePrecision is the rounding applied before the storage-boundary
// balance check: a transaction posts only if debits and credits agree to
// 6 decimal places.
const balancePrecision = 6

// insertTransaction persists a transaction and its lines, setting their IDs.
// It runs against the caller's unit of work.
func (s *Store) insertTransaction(q dbtx, t *Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	posted := 0
	if t.Posted {
		posted = 1
	}
	res, err := q.Exec(
		`INSERT INTO transactions (date, type, memo, posted, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.Date.String(), t.Type.String(), t.Memo, posted, t.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	for i := range t.Lines {
		line := &t.Lines[i]
		line.TransactionID = t.ID
		var instrumentID any
		var quantity any
		if line.InstrumentID != 0 {
			instrumentID = line.InstrumentID
			quantity = line.Quantity.String()
		}
		res, err := q.Exec(
			`INSERT INTO transaction_lines (transaction_id, account_id, instrument_id, quantity, amount, dr_cr)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, line.AccountID, instrumentID, quantity, line.Amount.Text(), line.Side.String())
		if err != nil {
			return fmt.Errorf("insert transaction line: %w", err)
		}
		if line.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

// Transaction returns the transaction with the given id, lines included.
func (s *Store) Transaction(id int64) (*Transaction, error) {
	return s.transaction(s.db, id)
}

func (s *Store) transaction(q dbtx, id int64) (*Transaction, error) {
	row := q.QueryRow(
		`SELECT id, date, type, memo, posted, created_at FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row, id)
	if err != nil {
		return nil, err
	}
	if t.Lines, err = s.linesOf(q, id); err != nil {
		return nil, err
	}
	return t, nil
}

func scanTransaction(row *sql.Row, key any) (*Transaction, error) {
	var t Transaction
	var dateStr, typStr, createdStr string
	var posted int
	err := row.Scan(&t.ID, &dateStr, &typStr, &t.Memo, &posted, &createdStr)
	if err == sql.ErrNoRows {
		return nil, NotFoundf("transaction", key)
	}
	if err != nil {
		return nil, err
	}
	return fillTransaction(&t, dateStr, typStr, createdStr, posted)
}

func fillTransaction(t *Transaction, dateStr, typStr, createdStr string, posted int) (*Transaction, error) {
	var err error
	if t.Date, err = ParseDate(dateStr); err != nil {
		return nil, err
	}
	if t.Type, err = ParseTransactionType(typStr); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, err
	}
	t.Posted = posted == 1
	return t, nil
}

// linesOf returns the lines of a transaction in insertion order, with amounts
// carrying the currency of the line's account.
func (s *Store) linesOf(q dbtx, txID int64) ([]Line, error) {
	rows, err := q.Query(
		`SELECT l.id, l.account_id, l.instrument_id, l.quantity, l.amount, l.dr_cr, a.currency
		 FROM transaction_lines l JOIN accounts a ON a.id = l.account_id
		 WHERE l.transaction_id = ? ORDER BY l.id`, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		line, err := scanLine(rows, txID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

func scanLine(rows *sql.Rows, txID int64) (*Line, error) {
	var line Line
	var instrumentID sql.NullInt64
	var quantity sql.NullString
	var amountStr, sideStr, currency string
	if err := rows.Scan(&line.ID, &line.AccountID, &instrumentID, &quantity, &amountStr, &sideStr, &currency); err != nil {
		return nil, err
	}
	line.TransactionID = txID
	line.InstrumentID = instrumentID.Int64
	var err error
	if quantity.Valid {
		if line.Quantity, err = ParseQuantity(quantity.String); err != nil {
			return nil, err
		}
	}
	if line.Amount, err = ParseMoney(amountStr, currency); err != nil {
		return nil, err
	}
	if line.Side, err = ParseSide(sideStr); err != nil {
		return nil, err
	}
	return &line, nil
}

// TransactionsByRange returns transactions whose date falls within r,
// oldest first. A zero range matches everything.
func (s *Store) TransactionsByRange(r Range, postedOnly bool) ([]Transaction, error) {
	query := `SELECT id, date, type, memo, posted, created_at FROM transactions WHERE 1=1`
	var args []any
	if !r.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, r.From.String())
	}
	if !r.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, r.To.String())
	}
	if postedOnly {
		query += ` AND posted = 1`
	}
	query += ` ORDER BY date, id`
	return s.listTransactions(query, args...)
}

// UnpostedTransactions returns all draft transactions, oldest first.
func (s *Store) UnpostedTransactions() ([]Transaction, error) {
	return s.listTransactions(
		`SELECT id, date, type, memo, posted, created_at FROM transactions WHERE posted = 0 ORDER BY date, id`)
}

func (s *Store) listTransactions(query string, args ...any) ([]Transaction, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var dateStr, typStr, createdStr string
		var posted int
		if err := rows.Scan(&t.ID, &dateStr, &typStr, &t.Memo, &posted, &createdStr); err != nil {
			return nil, err
		}
		if _, err := fillTransaction(&t, dateStr, typStr, createdStr, posted); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].Lines, err = s.linesOf(s.db, txs[i].ID); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

// PostTransaction flips a draft transaction to posted. As the last line of
// defense it re-sums the lines inside the same unit of work and refuses to
// post when debits and credits differ after rounding to 6 decimal places.
func (s *Store) PostTransaction(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		return s.postTransaction(tx, id)
	})
}

func (s *Store) postTransaction(q dbtx, id int64) error {
	var posted int
	err := q.QueryRow(`SELECT posted FROM transactions WHERE id = ?`, id).Scan(&posted)
	if err == sql.ErrNoRows {
		return NotFoundf("transaction", id)
	}
	if err != nil {
		return err
	}
	if posted == 1 {
		return Businessf("transaction %d is already posted", id)
	}
	signed, err := s.signedLineSum(q, id)
	if err != nil {
		return err
	}
	if !signed.Round(balancePrecision).IsZero() {
		return Businessf("transaction %d is not balanced: debits and credits differ by %s", id, signed.String())
	}
	_, err = q.Exec(`UPDATE transactions SET posted = 1 WHERE id = ?`, id)
	return err
}

// signedLineSum sums debits minus credits over the transaction's lines,
// exactly, without rounding.
func (s *Store) signedLineSum(q dbtx, id int64) (decimal.Decimal, error) {
	rows, err := q.Query(`SELECT amount, dr_cr FROM transaction_lines WHERE transaction_id = ?`, id)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	sum := decimal.Zero
	for rows.Next() {
		var amountStr, side string
		if err := rows.Scan(&amountStr, &side); err != nil {
			return decimal.Zero, err
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, err
		}
		if side == "DR" {
			sum = sum.Add(amount)
		} else {
			sum = sum.Sub(amount)
		}
	}
	return sum, rows.Err()
}

// UnpostTransaction returns a posted transaction to draft. It does not
// reverse lot side effects of TRADE transactions; reconciliation surfaces
// any resulting drift.
func (s *Store) UnpostTransaction(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		var posted int
		err := tx.QueryRow(`SELECT posted FROM transactions WHERE id = ?`, id).Scan(&posted)
		if err == sql.ErrNoRows {
			return NotFoundf("transaction", id)
		}
		if err != nil {
			return err
		}
		if posted == 0 {
			return Businessf("transaction %d is not posted", id)
		}
		_, err = tx.Exec(`UPDATE transactions SET posted = 0 WHERE id = ?`, id)
		return err
	})
}

// DeleteTransaction removes a draft transaction and its lines. Posted
// transactions cannot be deleted.
func (s *Store) DeleteTransaction(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		var posted int
		err := tx.QueryRow(`SELECT posted FROM transactions WHERE id = ?`, id).Scan(&posted)
		if err == sql.ErrNoRows {
			return NotFoundf("transaction", id)
		}
		if err != nil {
			return err
		}
		if posted == 1 {
			return Businessf("transaction %d is posted and cannot be deleted", id)
		}
		if _, err := tx.Exec(`DELETE FROM transaction_lines WHERE transaction_id = ?`, id); err != nil {
			return err
		}
		_, err = tx.Exec(`DELETE FROM transactions WHERE id = ?`, id)
		return err
	})
}

// accountLines returns the lines touching an account, optionally bounded by
// date and posted status, for balance computation.
func (s *Store) accountLines(accountID int64, asOf Date, postedOnly bool) ([]Line, error) {
	query := `SELECT l.id, l.account_id, l.instrument_id, l.quantity, l.amount, l.dr_cr, a.currency
	          FROM transaction_lines l
	          JOIN accounts a ON a.id = l.account_id
	          JOIN transactions t ON t.id = l.transaction_id
	          WHERE l.account_id = ?`
	args := []any{accountID}
	if !asOf.IsZero() {
		query += ` AND t.date <= ?`
		args = append(args, asOf.String())
	}
	if postedOnly {
		query += ` AND t.posted = 1`
	}
	query += ` ORDER BY l.id`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		line, err := scanLine(rows, 0)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

// positionKey identifies one (instrument, account) holding.
type positionKey struct {
	InstrumentID int64
	AccountID    int64
}

// tradeQuantities returns the net signed quantity of posted TRADE lines per
// (instrument, account). Zero filter values match everything.
func (s *Store) tradeQuantities(instrumentID, accountID int64) (map[positionKey]Quantity, error) {
	query := `SELECT l.instrument_id, l.account_id, l.quantity
	          FROM transaction_lines l
	          JOIN transactions t ON t.id = l.transaction_id
	          WHERE t.type = 'TRADE' AND l.instrument_id IS NOT NULL AND l.quantity IS NOT NULL`
	var args []any
	if instrumentID != 0 {
		query += ` AND l.instrument_id = ?`
		args = append(args, instrumentID)
	}
	if accountID != 0 {
		query += ` AND l.account_id = ?`
		args = append(args, accountID)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	net := make(map[positionKey]Quantity)
	for rows.Next() {
		var key positionKey
		var qtyStr string
		if err := rows.Scan(&key.InstrumentID, &key.AccountID, &qtyStr); err != nil {
			return nil, err
		}
		qty, err := ParseQuantity(qtyStr)
		if err != nil {
			return nil, err
		}
		net[key] = net[key].Add(qty)
	}
	return net, rows.Err()
}

// LedgerLine is one posted line of an account joined with its transaction's
// date, type and memo, for statement rendering.
type LedgerLine struct {
	Line
	Date Date
	Type TransactionType
	Memo string
}

// accountLedgerLines returns the posted lines touching an account within the
// range, oldest first.
func (s *Store) accountLedgerLines(accountID int64, r Range) ([]LedgerLine, error) {
	rows, err := s.db.Query(
		`SELECT l.id, l.amount, l.dr_cr, a.currency, t.id, t.date, t.type, t.memo
		 FROM transaction_lines l
		 JOIN accounts a ON a.id = l.account_id
		 JOIN transactions t ON t.id = l.transaction_id
		 WHERE l.account_id = ? AND t.posted = 1 AND t.date >= ? AND t.date <= ?
		 ORDER BY t.date, t.id, l.id`,
		accountID, r.From.String(), r.To.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []LedgerLine
	for rows.Next() {
		var line LedgerLine
		var amountStr, sideStr, currency, dateStr, typStr string
		if err := rows.Scan(&line.ID, &amountStr, &sideStr, &currency,
			&line.TransactionID, &dateStr, &typStr, &line.Memo); err != nil {
			return nil, err
		}
		line.AccountID = accountID
		var err error
		if line.Amount, err = ParseMoney(amountStr, currency); err != nil {
			return nil, err
		}
		if line.Side, err = ParseSide(sideStr); err != nil {
			return nil, err
		}
		if line.Date, err = ParseDate(dateStr); err != nil {
			return nil, err
		}
		if line.Type, err = ParseTransactionType(typStr); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
