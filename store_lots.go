package ledger

import (
	"database/sql"
	"fmt"
)

// insertLot persists a lot and sets its ID, against the caller's unit of work.
func (s *Store) insertLot(q dbtx, l *Lot) error {
	closed := 0
	if l.Closed {
		closed = 1
	}
	res, err := q.Exec(
		`INSERT INTO lots (instrument_id, account_id, open_date, qty_opened, qty_closed, cost_total, closed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.InstrumentID, l.AccountID, l.OpenDate.String(),
		l.QtyOpened.String(), l.QtyClosed.String(), l.CostTotal.Text(), closed)
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}

// Lot returns the lot with the given id.
func (s *Store) Lot(id int64) (*Lot, error) {
	return s.lot(s.db, id)
}

func (s *Store) lot(q dbtx, id int64) (*Lot, error) {
	row := q.QueryRow(
		`SELECT l.id, l.instrument_id, l.account_id, l.open_date, l.qty_opened, l.qty_closed, l.cost_total, l.closed, a.currency
		 FROM lots l JOIN accounts a ON a.id = l.account_id
		 WHERE l.id = ?`, id)
	var lot Lot
	var dateStr, openedStr, closedStr, costStr, currency string
	var closedFlag int
	err := row.Scan(&lot.ID, &lot.InstrumentID, &lot.AccountID, &dateStr, &openedStr, &closedStr, &costStr, &closedFlag, &currency)
	if err == sql.ErrNoRows {
		return nil, NotFoundf("lot", id)
	}
	if err != nil {
		return nil, err
	}
	return fillLot(&lot, dateStr, openedStr, closedStr, costStr, currency, closedFlag)
}

func fillLot(lot *Lot, dateStr, openedStr, closedStr, costStr, currency string, closedFlag int) (*Lot, error) {
	var err error
	if lot.OpenDate, err = ParseDate(dateStr); err != nil {
		return nil, err
	}
	if lot.QtyOpened, err = ParseQuantity(openedStr); err != nil {
		return nil, err
	}
	if lot.QtyClosed, err = ParseQuantity(closedStr); err != nil {
		return nil, err
	}
	if lot.CostTotal, err = ParseMoney(costStr, currency); err != nil {
		return nil, err
	}
	lot.Closed = closedFlag == 1
	return lot, nil
}

// openLots returns the open lots matching the filters, in deterministic FIFO
// order: open date ascending, then id ascending as the tiebreak for same-day
// lots. Zero filter values match everything.
func (s *Store) openLots(q dbtx, instrumentID, accountID int64) ([]Lot, error) {
	query := `SELECT l.id, l.instrument_id, l.account_id, l.open_date, l.qty_opened, l.qty_closed, l.cost_total, l.closed, a.currency
	          FROM lots l JOIN accounts a ON a.id = l.account_id
	          WHERE l.closed = 0`
	var args []any
	if instrumentID != 0 {
		query += ` AND l.instrument_id = ?`
		args = append(args, instrumentID)
	}
	if accountID != 0 {
		query += ` AND l.account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY l.open_date, l.id`
	return s.listLots(q, query, args...)
}

// OpenLots returns the open lots matching the filters in FIFO order.
func (s *Store) OpenLots(instrumentID, accountID int64) ([]Lot, error) {
	return s.openLots(s.db, instrumentID, accountID)
}

// Lots returns all lots matching the filters, closed ones included, in FIFO
// order.
func (s *Store) Lots(instrumentID, accountID int64) ([]Lot, error) {
	query := `SELECT l.id, l.instrument_id, l.account_id, l.open_date, l.qty_opened, l.qty_closed, l.cost_total, l.closed, a.currency
	          FROM lots l JOIN accounts a ON a.id = l.account_id
	          WHERE 1=1`
	var args []any
	if instrumentID != 0 {
		query += ` AND l.instrument_id = ?`
		args = append(args, instrumentID)
	}
	if accountID != 0 {
		query += ` AND l.account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY l.open_date, l.id`
	return s.listLots(s.db, query, args...)
}

func (s *Store) listLots(q dbtx, query string, args ...any) ([]Lot, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lots []Lot
	for rows.Next() {
		var lot Lot
		var dateStr, openedStr, closedStr, costStr, currency string
		var closedFlag int
		if err := rows.Scan(&lot.ID, &lot.InstrumentID, &lot.AccountID, &dateStr, &openedStr, &closedStr, &costStr, &closedFlag, &currency); err != nil {
			return nil, err
		}
		if _, err := fillLot(&lot, dateStr, openedStr, closedStr, costStr, currency, closedFlag); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// updateLotClosed sets a lot's closed quantity. As the last line of defense
// it refuses a closed quantity exceeding the opened quantity, and maintains
// the derived closed flag. The closed quantity of a lot only ever increases.
func (s *Store) updateLotClosed(q dbtx, id int64, qtyClosed Quantity) error {
	lot, err := s.lot(q, id)
	if err != nil {
		return err
	}
	if qtyClosed.GreaterThan(lot.QtyOpened) {
		return Businessf("lot %d: closed quantity %s exceeds opened quantity %s",
			id, qtyClosed, lot.QtyOpened)
	}
	if qtyClosed.LessThan(lot.QtyClosed) {
		return Businessf("lot %d: closed quantity cannot decrease from %s to %s",
			id, lot.QtyClosed, qtyClosed)
	}
	closed := 0
	if !qtyClosed.LessThan(lot.QtyOpened) {
		closed = 1
	}
	_, err = q.Exec(`UPDATE lots SET qty_closed = ?, closed = ? WHERE id = ?`,
		qtyClosed.String(), closed, id)
	return err
}

// updateLotQuantities rewrites both quantities of a lot, used by split
// processing which scales opened and closed together. The invariant
// qty_closed <= qty_opened still holds.
func (s *Store) updateLotQuantities(q dbtx, id int64, qtyOpened, qtyClosed Quantity) error {
	if qtyClosed.GreaterThan(qtyOpened) {
		return Businessf("lot %d: closed quantity %s exceeds opened quantity %s",
			id, qtyClosed, qtyOpened)
	}
	closed := 0
	if !qtyClosed.LessThan(qtyOpened) {
		closed = 1
	}
	res, err := q.Exec(`UPDATE lots SET qty_opened = ?, qty_closed = ?, closed = ? WHERE id = ?`,
		qtyOpened.String(), qtyClosed.String(), closed, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return NotFoundf("lot", id)
	}
	return nil
}
