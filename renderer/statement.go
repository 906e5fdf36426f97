package renderer

// HistoryRow is one sampled balance.
type HistoryRow struct {
	Date    string
	Balance string
}

// History is the view of the balance history report.
type History struct {
	Account string
	Period  string
	Rows    []HistoryRow
}

// RenderHistory renders the balance history to a markdown string.
func RenderHistory(h *History) string {
	return renderTemplate("history", "history.md", nil, h)
}

// StatementRow is one statement line with its running balance.
type StatementRow struct {
	Date    string
	Tx      int64
	Type    string
	Memo    string
	Side    string
	Amount  string
	Balance string
}

// Statement is the view of the account statement report.
type Statement struct {
	Account string
	From    string
	To      string
	Opening string
	Closing string
	Rows    []StatementRow
}

// RenderStatement renders the account statement to a markdown string.
func RenderStatement(s *Statement) string {
	return renderTemplate("statement", "statement.md", nil, s)
}
