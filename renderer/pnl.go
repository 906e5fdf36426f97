package renderer

// RealizedRow is one realized gain or loss.
type RealizedRow struct {
	Symbol    string
	Account   string
	Quantity  string
	Proceeds  string
	CostBasis string
	Realized  string
	Method    string
}

// Realized is the view of the realized profit and loss report.
type Realized struct {
	Range     string
	Rows      []RealizedRow
	Proceeds  string
	CostBasis string
	Total     string
}

// RenderRealized renders the realized report to a markdown string.
func RenderRealized(r *Realized) string {
	return renderTemplate("realized", "realized.md", nil, r)
}

// UnrealizedRow is one open position marked to market.
type UnrealizedRow struct {
	Symbol      string
	Account     string
	Quantity    string
	CostBasis   string
	Price       string
	PriceDate   string
	MarketValue string
	Unrealized  string
}

// Unrealized is the view of the unrealized profit and loss report.
type Unrealized struct {
	AsOf        string
	Rows        []UnrealizedRow
	CostBasis   string
	MarketValue string
	Total       string
	Skipped     int
}

// RenderUnrealized renders the unrealized report to a markdown string.
func RenderUnrealized(u *Unrealized) string {
	return renderTemplate("unrealized", "unrealized.md", nil, u)
}

// Return is the view of the portfolio return report.
type Return struct {
	Range      string
	Method     string
	Begin      string
	End        string
	NetFlows   string
	Simple     string
	Annualized string
	Days       int
}

// PnL is the combined view of the full profit and loss report.
type PnL struct {
	Realized   *Realized
	Unrealized *Unrealized
	Return     *Return
}

// RenderPnL renders the combined report to a markdown string.
func RenderPnL(p *PnL) string {
	partials := map[string]string{
		"realized":   "realized.md",
		"unrealized": "unrealized.md",
	}
	return renderTemplate("pnl", "pnl.md", partials, p)
}
