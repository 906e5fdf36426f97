package ledger

// Schema is the SQLite schema of the ledger store: six relations keyed by
// surrogate integer identities, except prices which are keyed by the
// (instrument, date) pair. Amounts and quantities are stored as decimal
// strings so balance checks stay exact; dates are ISO-8601 calendar dates.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL CHECK (type IN ('ASSET','LIABILITY','INCOME','EXPENSE','EQUITY')),
	currency TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS instruments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('EQUITY','ETF','BOND','CASH','CRYPTO')),
	currency TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS prices (
	instrument_id INTEGER NOT NULL REFERENCES instruments(id),
	date TEXT NOT NULL,
	close TEXT NOT NULL,
	PRIMARY KEY (instrument_id, date)
);

CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('TRADE','TRANSFER','DIVIDEND','FEE','TAX','FX','ADJUST')),
	memo TEXT NOT NULL DEFAULT '',
	posted INTEGER NOT NULL DEFAULT 0 CHECK (posted IN (0,1)),
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transaction_lines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	instrument_id INTEGER REFERENCES instruments(id),
	quantity TEXT,
	amount TEXT NOT NULL,
	dr_cr TEXT NOT NULL CHECK (dr_cr IN ('DR','CR'))
);

CREATE TABLE IF NOT EXISTS lots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	instrument_id INTEGER NOT NULL REFERENCES instruments(id),
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	open_date TEXT NOT NULL,
	qty_opened TEXT NOT NULL,
	qty_closed TEXT NOT NULL DEFAULT '0',
	cost_total TEXT NOT NULL,
	closed INTEGER NOT NULL DEFAULT 0 CHECK (closed IN (0,1))
);

CREATE TABLE IF NOT EXISTS corporate_actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	instrument_id INTEGER NOT NULL REFERENCES instruments(id),
	type TEXT NOT NULL CHECK (type IN ('SPLIT','CASH_DIVIDEND','STOCK_DIVIDEND','SYMBOL_CHANGE','MERGER','SPINOFF')),
	effective_date TEXT NOT NULL,
	ratio TEXT,
	cash_per_share TEXT,
	notes TEXT NOT NULL DEFAULT '',
	processed INTEGER NOT NULL DEFAULT 0 CHECK (processed IN (0,1))
);

CREATE INDEX IF NOT EXISTS idx_lines_transaction ON transaction_lines(transaction_id);
CREATE INDEX IF NOT EXISTS idx_lines_account ON transaction_lines(account_id);
CREATE INDEX IF NOT EXISTS idx_lots_position ON lots(instrument_id, account_id);
CREATE INDEX IF NOT EXISTS idx_actions_instrument ON corporate_actions(instrument_id);
`
