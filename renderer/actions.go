package renderer

// ActionRow is one corporate action.
type ActionRow struct {
	ID            int64
	Symbol        string
	Type          string
	EffectiveDate string
	Ratio         string
	CashPerShare  string
	Notes         string
	Status        string
}

// Actions is the view of the corporate action listing.
type Actions struct {
	Title string
	Rows  []ActionRow
}

// RenderActions renders a corporate action listing to a markdown string.
func RenderActions(a *Actions) string {
	return renderTemplate("actions", "actions.md", nil, a)
}

// ActionCount is one type with its counts.
type ActionCount struct {
	Type      string
	Total     int
	Processed int
}

// PendingCount is one instrument with its pending action count.
type PendingCount struct {
	Symbol  string
	Pending int
}

// ActionSummary is the view of the corporate action summary report.
type ActionSummary struct {
	Total   int
	ByType  []ActionCount
	Pending []PendingCount
}

// RenderActionSummary renders the summary report to a markdown string.
func RenderActionSummary(s *ActionSummary) string {
	return renderTemplate("actionsummary", "actionsummary.md", nil, s)
}
