package ledger

import (
	"database/sql"
	"fmt"
)

// ActionFilter selects corporate actions. Zero values match everything.
type ActionFilter struct {
	InstrumentID int64
	Type         *ActionType
	Processed    *bool
	Until        Date // effective date at or before
}

// CreateAction persists a corporate action and sets its ID.
func (s *Store) CreateAction(a *CorporateAction) error {
	if _, err := s.Instrument(a.InstrumentID); err != nil {
		return err
	}
	var ratio, cash any
	if !a.Ratio.IsZero() {
		ratio = a.Ratio.String()
	}
	if !a.CashPerShare.IsZero() {
		cash = a.CashPerShare.Text()
	}
	processed := 0
	if a.Processed {
		processed = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO corporate_actions (instrument_id, type, effective_date, ratio, cash_per_share, notes, processed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.InstrumentID, a.Type.String(), a.EffectiveDate.String(), ratio, cash, a.Notes, processed)
	if err != nil {
		return fmt.Errorf("create corporate action: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// Action returns the corporate action with the given id.
func (s *Store) Action(id int64) (*CorporateAction, error) {
	return s.action(s.db, id)
}

func (s *Store) action(q dbtx, id int64) (*CorporateAction, error) {
	row := q.QueryRow(
		`SELECT c.id, c.instrument_id, c.type, c.effective_date, c.ratio, c.cash_per_share, c.notes, c.processed, i.currency
		 FROM corporate_actions c JOIN instruments i ON i.id = c.instrument_id
		 WHERE c.id = ?`, id)
	var a CorporateAction
	var typStr, dateStr, currency string
	var ratio, cash sql.NullString
	var processed int
	err := row.Scan(&a.ID, &a.InstrumentID, &typStr, &dateStr, &ratio, &cash, &a.Notes, &processed, &currency)
	if err == sql.ErrNoRows {
		return nil, NotFoundf("corporate action", id)
	}
	if err != nil {
		return nil, err
	}
	return fillAction(&a, typStr, dateStr, ratio, cash, currency, processed)
}

func fillAction(a *CorporateAction, typStr, dateStr string, ratio, cash sql.NullString, currency string, processed int) (*CorporateAction, error) {
	var err error
	if a.Type, err = ParseActionType(typStr); err != nil {
		return nil, err
	}
	if a.EffectiveDate, err = ParseDate(dateStr); err != nil {
		return nil, err
	}
	if ratio.Valid {
		if a.Ratio, err = ParseQuantity(ratio.String); err != nil {
			return nil, err
		}
	}
	if cash.Valid {
		if a.CashPerShare, err = ParseMoney(cash.String, currency); err != nil {
			return nil, err
		}
	} else {
		a.CashPerShare = M(0, currency)
	}
	a.Processed = processed == 1
	return a, nil
}

// UpdateAction rewrites a corporate action's mutable fields. The service
// layer only permits this while the action is unprocessed.
func (s *Store) UpdateAction(a *CorporateAction) error {
	var ratio, cash any
	if !a.Ratio.IsZero() {
		ratio = a.Ratio.String()
	}
	if !a.CashPerShare.IsZero() {
		cash = a.CashPerShare.Text()
	}
	res, err := s.db.Exec(
		`UPDATE corporate_actions SET type = ?, effective_date = ?, ratio = ?, cash_per_share = ?, notes = ?
		 WHERE id = ?`,
		a.Type.String(), a.EffectiveDate.String(), ratio, cash, a.Notes, a.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return NotFoundf("corporate action", a.ID)
	}
	return nil
}

// DeleteAction removes a corporate action.
func (s *Store) DeleteAction(id int64) error {
	res, err := s.db.Exec(`DELETE FROM corporate_actions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return NotFoundf("corporate action", id)
	}
	return nil
}

// Actions returns the corporate actions matching the filter, ordered by
// effective date ascending, then id.
func (s *Store) Actions(f ActionFilter) ([]CorporateAction, error) {
	query := `SELECT c.id, c.instrument_id, c.type, c.effective_date, c.ratio, c.cash_per_share, c.notes, c.processed, i.currency
	          FROM corporate_actions c JOIN instruments i ON i.id = c.instrument_id
	          WHERE 1=1`
	var args []any
	if f.InstrumentID != 0 {
		query += ` AND c.instrument_id = ?`
		args = append(args, f.InstrumentID)
	}
	if f.Type != nil {
		query += ` AND c.type = ?`
		args = append(args, f.Type.String())
	}
	if f.Processed != nil {
		query += ` AND c.processed = ?`
		if *f.Processed {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if !f.Until.IsZero() {
		query += ` AND c.effective_date <= ?`
		args = append(args, f.Until.String())
	}
	query += ` ORDER BY c.effective_date, c.id`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var actions []CorporateAction
	for rows.Next() {
		var a CorporateAction
		var typStr, dateStr, currency string
		var ratio, cash sql.NullString
		var processed int
		if err := rows.Scan(&a.ID, &a.InstrumentID, &typStr, &dateStr, &ratio, &cash, &a.Notes, &processed, &currency); err != nil {
			return nil, err
		}
		if _, err := fillAction(&a, typStr, dateStr, ratio, cash, currency, processed); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// markActionProcessed flips an action's processed flag, exactly once. The
// flag is monotonic: the guarded UPDATE makes a second processing attempt
// fail even if two units of work race.
func (s *Store) markActionProcessed(q dbtx, id int64) error {
	res, err := q.Exec(`UPDATE corporate_actions SET processed = 1 WHERE id = ? AND processed = 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return Businessf("corporate action %d is already processed", id)
	}
	return nil
}
