package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the durable ledger store, backed by a single SQLite file. Every
// mutating operation runs inside one database transaction; concurrent callers
// are serialized by SQLite's isolation, not by engine-level locking.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open ledger database %q: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// same query helpers serve one-shot reads and multi-statement units of work.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// withTx runs fn inside one database transaction, committing on success and
// rolling back on error. This is the unit of work of every engine operation.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}

// --- accounts ---

// CreateAccount inserts a new account and sets its ID.
func (s *Store) CreateAccount(a *Account) error {
	res, err := s.db.Exec(
		`INSERT INTO accounts (name, type, currency) VALUES (?, ?, ?)`,
		a.Name, a.Type.String(), a.Currency)
	if err != nil {
		return fmt.Errorf("create account %q: %w", a.Name, err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// Account returns the account with the given id.
func (s *Store) Account(id int64) (*Account, error) {
	return scanAccount(s.db.QueryRow(
		`SELECT id, name, type, currency FROM accounts WHERE id = ?`, id), id)
}

// AccountByName returns the account with the given name.
func (s *Store) AccountByName(name string) (*Account, error) {
	return scanAccount(s.db.QueryRow(
		`SELECT id, name, type, currency FROM accounts WHERE name = ?`, name), name)
}

// Accounts returns all accounts ordered by name.
func (s *Store) Accounts() ([]Account, error) {
	rows, err := s.db.Query(`SELECT id, name, type, currency FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		var typ string
		if err := rows.Scan(&a.ID, &a.Name, &typ, &a.Currency); err != nil {
			return nil, err
		}
		if a.Type, err = ParseAccountType(typ); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(row *sql.Row, key any) (*Account, error) {
	var a Account
	var typ string
	err := row.Scan(&a.ID, &a.Name, &typ, &a.Currency)
	if err == sql.ErrNoRows {
		return nil, NotFoundf("account", key)
	}
	if err != nil {
		return nil, err
	}
	if a.Type, err = ParseAccountType(typ); err != nil {
		return nil, err
	}
	return &a, nil
}

// --- instruments ---

// CreateInstrument inserts a new instrument and sets its ID.
func (s *Store) CreateInstrument(i *Instrument) error {
	res, err := s.db.Exec(
		`INSERT INTO instruments (symbol, name, type, currency) VALUES (?, ?, ?, ?)`,
		i.Symbol, i.Name, i.Type.String(), i.Currency)
	if err != nil {
		return fmt.Errorf("create instrument %q: %w", i.Symbol, err)
	}
	i.ID, err = res.LastInsertId()
	return err
}

// Instrument returns the instrument with the given id.
func (s *Store) Instrument(id int64) (*Instrument, error) {
	return s.instrument(s.db, id)
}

func (s *Store) instrument(q dbtx, id int64) (*Instrument, error) {
	return scanInstrument(q.QueryRow(
		`SELECT id, symbol, name, type, currency FROM instruments WHERE id = ?`, id), id)
}

// InstrumentBySymbol returns the instrument with the given symbol.
func (s *Store) InstrumentBySymbol(symbol string) (*Instrument, error) {
	return scanInstrument(s.db.QueryRow(
		`SELECT id, symbol, name, type, currency FROM instruments WHERE symbol = ?`, symbol), symbol)
}

// Instruments returns all instruments ordered by symbol.
func (s *Store) Instruments() ([]Instrument, error) {
	rows, err := s.db.Query(`SELECT id, symbol, name, type, currency FROM instruments ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var instruments []Instrument
	for rows.Next() {
		var i Instrument
		var typ string
		if err := rows.Scan(&i.ID, &i.Symbol, &i.Name, &typ, &i.Currency); err != nil {
			return nil, err
		}
		if i.Type, err = ParseInstrumentType(typ); err != nil {
			return nil, err
		}
		instruments = append(instruments, i)
	}
	return instruments, rows.Err()
}

// renameInstrument rewrites the instrument's symbol in place. Lots, lines and
// prices reference the instrument by id and follow automatically.
func (s *Store) renameInstrument(q dbtx, id int64, newSymbol string) error {
	res, err := q.Exec(`UPDATE instruments SET symbol = ? WHERE id = ?`, newSymbol, id)
	if err != nil {
		return fmt.Errorf("rename instrument %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return NotFoundf("instrument", id)
	}
	return nil
}

func scanInstrument(row *sql.Row, key any) (*Instrument, error) {
	var i Instrument
	var typ string
	err := row.Scan(&i.ID, &i.Symbol, &i.Name, &typ, &i.Currency)
	if err == sql.ErrNoRows {
		return nil, NotFoundf("instrument", key)
	}
	if err != nil {
		return nil, err
	}
	if i.Type, err = ParseInstrumentType(typ); err != nil {
		return nil, err
	}
	return &i, nil
}

// --- prices ---

// SetPrice records the closing price of an instrument on a date, replacing
// any close already stored for that (instrument, date) pair.
func (s *Store) SetPrice(instrumentID int64, on Date, close Money) error {
	if _, err := s.instrument(s.db, instrumentID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO prices (instrument_id, date, close) VALUES (?, ?, ?)
		 ON CONFLICT(instrument_id, date) DO UPDATE SET close = excluded.close`,
		instrumentID, on.String(), close.Text())
	return err
}

// PriceAsOf returns the latest stored close at or before the given date.
func (s *Store) PriceAsOf(instrumentID int64, on Date) (*Price, error) {
	row := s.db.QueryRow(
		`SELECT p.date, p.close, i.currency
		 FROM prices p JOIN instruments i ON i.id = p.instrument_id
		 WHERE p.instrument_id = ? AND p.date <= ?
		 ORDER BY p.date DESC LIMIT 1`,
		instrumentID, on.String())
	var dateStr, closeStr, currency string
	err := row.Scan(&dateStr, &closeStr, &currency)
	if err == sql.ErrNoRows {
		return nil, NotFoundf("price", fmt.Sprintf("for instrument %d as of %s", instrumentID, on))
	}
	if err != nil {
		return nil, err
	}
	p := Price{InstrumentID: instrumentID}
	if p.Date, err = ParseDate(dateStr); err != nil {
		return nil, err
	}
	if p.Close, err = ParseMoney(closeStr, currency); err != nil {
		return nil, err
	}
	return &p, nil
}

// Prices returns all stored closes for an instrument, oldest first.
func (s *Store) Prices(instrumentID int64) ([]Price, error) {
	rows, err := s.db.Query(
		`SELECT p.date, p.close, i.currency
		 FROM prices p JOIN instruments i ON i.id = p.instrument_id
		 WHERE p.instrument_id = ? ORDER BY p.date`,
		instrumentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var prices []Price
	for rows.Next() {
		var dateStr, closeStr, currency string
		if err := rows.Scan(&dateStr, &closeStr, &currency); err != nil {
			return nil, err
		}
		p := Price{InstrumentID: instrumentID}
		if p.Date, err = ParseDate(dateStr); err != nil {
			return nil, err
		}
		if p.Close, err = ParseMoney(closeStr, currency); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
