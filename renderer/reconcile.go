package renderer

// FindingRow is one reconciliation discrepancy.
type FindingRow struct {
	Symbol   string
	Account  string
	Kind     string
	Expected string
	Actual   string
	Detail   string
}

// Reconciliation is the view of the reconciliation report.
type Reconciliation struct {
	Tolerance string
	Rows      []FindingRow
}

// RenderReconciliation renders the reconciliation report to a markdown string.
func RenderReconciliation(r *Reconciliation) string {
	return renderTemplate("reconcile", "reconcile.md", nil, r)
}
