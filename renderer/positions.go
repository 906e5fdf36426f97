package renderer

// PositionRow is one open holding, names resolved by the caller.
type PositionRow struct {
	Symbol    string
	Account   string
	Quantity  string
	CostBasis string
	AvgCost   string
	Lots      int
}

// Positions is the view of the current-positions report.
type Positions struct {
	AsOf string
	Rows []PositionRow
}

// RenderPositions renders the positions report to a markdown string.
func RenderPositions(p *Positions) string {
	return renderTemplate("positions", "positions.md", nil, p)
}

// LotRow is one lot of a holding.
type LotRow struct {
	ID        int64
	Symbol    string
	Account   string
	OpenDate  string
	Opened    string
	Closed    string
	Remaining string
	CostTotal string
	CostShare string
	State     string
}

// Lots is the view of the per-lot detail report.
type Lots struct {
	Rows []LotRow
}

// RenderLots renders the lot detail report to a markdown string.
func RenderLots(l *Lots) string {
	return renderTemplate("lots", "lots.md", nil, l)
}
