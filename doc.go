// Package ledger provides a double-entry accounting engine for a personal
// investment portfolio. It records financial events as balanced transactions,
// tracks security holdings as FIFO cost-basis lots, applies corporate actions
// (splits, dividends, symbol changes) to those lots, and derives realized and
// unrealized profit-and-loss from the resulting state.
//
// The core functionalities include:
//   - Transaction Service: creating, posting, and unposting balanced
//     double-entry transactions, and computing account balances by the
//     account-type sign convention.
//   - Lot Tracker: opening lots on buy activity, closing lots first-in
//     first-out on sell activity, and reconciling lot state against the
//     transaction history.
//   - Corporate Action Processor: applying splits, cash dividends, stock
//     dividends, and symbol changes to lots and instruments, each leaving an
//     audit trail in the ledger.
//   - P&L Engine: realized gains from closed lots, unrealized gains marked to
//     the latest stored price, and time-weighted total return.
//   - Ledger Store: a SQLite-backed store for accounts, instruments, prices,
//     transactions, lots, and corporate actions, enforcing the balance and
//     lot-closure invariants at the storage boundary.
//
// This package serves as the foundational logic for the `pledger`
// command-line tool, ensuring that all operations are consistent and based on
// a single source of truth.
package ledger
