package renderer

// TransactionLineRow is one line of a rendered transaction.
type TransactionLineRow struct {
	Account  string
	Symbol   string
	Quantity string
	Amount   string
	Side     string
}

// TransactionRow is one transaction with its lines.
type TransactionRow struct {
	ID     int64
	Date   string
	Type   string
	Memo   string
	Status string
	Lines  []TransactionLineRow
}

// Transactions is the view of the transaction listing.
type Transactions struct {
	Title string
	Rows  []TransactionRow
}

// RenderTransactions renders a transaction listing to a markdown string.
func RenderTransactions(t *Transactions) string {
	return renderTemplate("transactions", "transactions.md", nil, t)
}

// BalanceRow is one account balance.
type BalanceRow struct {
	Account string
	Type    string
	Balance string
}

// Balances is the view of the account balances report.
type Balances struct {
	AsOf string
	Rows []BalanceRow
}

// RenderBalances renders the balances report to a markdown string.
func RenderBalances(b *Balances) string {
	return renderTemplate("balances", "balances.md", nil, b)
}
