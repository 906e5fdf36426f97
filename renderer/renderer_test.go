package renderer

import (
	"strings"
	"testing"
)

func TestRenderPositions(t *testing.T) {
	p := &Positions{
		AsOf: "2025-06-30",
		Rows: []PositionRow{
			{Symbol: "AAPL", Account: "Brokerage", Quantity: "100", CostBasis: "14000.00", AvgCost: "140.00", Lots: 2},
		},
	}
	got := RenderPositions(p)
	for _, want := range []string{
		"# Positions as of 2025-06-30",
		"| AAPL | Brokerage | 100 | 14000.00 | 140.00 | 2 |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderPositions output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderPositionsEmpty(t *testing.T) {
	got := RenderPositions(&Positions{})
	if !strings.Contains(got, "No open positions.") {
		t.Errorf("empty positions should render the placeholder, got:\n%s", got)
	}
}

func TestRenderLots(t *testing.T) {
	l := &Lots{Rows: []LotRow{
		{ID: 7, Symbol: "VTI", Account: "IRA", OpenDate: "2025-01-02", Opened: "50", Closed: "10", Remaining: "40", CostTotal: "11000.00", CostShare: "220.00", State: "open"},
	}}
	got := RenderLots(l)
	if !strings.Contains(got, "| 7 | VTI | IRA | 2025-01-02 | 50 | 10 | 40 | 11000.00 | 220.00 | open |") {
		t.Errorf("RenderLots output missing lot row:\n%s", got)
	}
}

func TestRenderTransactions(t *testing.T) {
	v := &Transactions{
		Title: "June Trades",
		Rows: []TransactionRow{
			{
				ID: 3, Date: "2025-06-02", Type: "TRADE", Memo: "buy apple", Status: "posted",
				Lines: []TransactionLineRow{
					{Account: "Brokerage", Symbol: "AAPL", Quantity: "100", Amount: "14000.00 USD", Side: "DR"},
					{Account: "Cash", Quantity: "", Amount: "14000.00 USD", Side: "CR"},
				},
			},
		},
	}
	got := RenderTransactions(v)
	for _, want := range []string{
		"# June Trades",
		"## 2025-06-02 TRADE #3 (posted)",
		"buy apple",
		"| Brokerage | AAPL | 100 | 14000.00 USD | DR |",
		"| Cash |  |  | 14000.00 USD | CR |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderTransactions output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderBalances(t *testing.T) {
	got := RenderBalances(&Balances{
		AsOf: "2025-12-31",
		Rows: []BalanceRow{{Account: "Cash", Type: "ASSET", Balance: "250.00 USD"}},
	})
	if !strings.Contains(got, "| Cash | ASSET | 250.00 USD |") {
		t.Errorf("RenderBalances output missing row:\n%s", got)
	}
}

func TestRenderPnL(t *testing.T) {
	p := &PnL{
		Realized: &Realized{
			Range: "2025",
			Rows: []RealizedRow{
				{Symbol: "AAPL", Account: "Brokerage", Quantity: "40", Proceeds: "6400.00", CostBasis: "5600.00", Realized: "800.00", Method: "fifo"},
			},
			Proceeds: "6400.00", CostBasis: "5600.00", Total: "800.00",
		},
		Unrealized: &Unrealized{
			AsOf: "2025-12-31",
			Rows: []UnrealizedRow{
				{Symbol: "AAPL", Account: "Brokerage", Quantity: "60", CostBasis: "8400.00", Price: "170.00", PriceDate: "2025-12-30", MarketValue: "10200.00", Unrealized: "1800.00"},
			},
			CostBasis: "8400.00", MarketValue: "10200.00", Total: "1800.00", Skipped: 1,
		},
		Return: &Return{
			Range: "2025", Method: "time-weighted",
			Begin: "10000.00", End: "12000.00", NetFlows: "500.00",
			Simple: "15.00%", Annualized: "15.00%", Days: 365,
		},
	}
	got := RenderPnL(p)
	for _, want := range []string{
		"# Realized P&L for 2025",
		"realized **800.00**",
		"# Unrealized P&L as of 2025-12-31",
		"unrealized **1800.00**",
		"1 position(s) skipped for lack of a price.",
		"# Return for 2025",
		"| Annualized | 15.00% |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderPnL output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderReconciliation(t *testing.T) {
	got := RenderReconciliation(&Reconciliation{
		Tolerance: "0.01 USD",
		Rows: []FindingRow{
			{Symbol: "AAPL", Account: "Brokerage", Kind: "quantity", Expected: "100", Actual: "99", Detail: "trade lines vs open lots"},
		},
	})
	if !strings.Contains(got, "| AAPL | Brokerage | quantity | 100 | 99 | trade lines vs open lots |") {
		t.Errorf("RenderReconciliation output missing finding row:\n%s", got)
	}

	clean := RenderReconciliation(&Reconciliation{})
	if !strings.Contains(clean, "No discrepancies found.") {
		t.Errorf("clean reconciliation should render the placeholder, got:\n%s", clean)
	}
}

func TestRenderActions(t *testing.T) {
	got := RenderActions(&Actions{Rows: []ActionRow{
		{ID: 1, Symbol: "AAPL", Type: "SPLIT", EffectiveDate: "2025-06-10", Ratio: "2", Status: "pending"},
	}})
	if !strings.Contains(got, "| 1 | AAPL | SPLIT | 2025-06-10 | 2 |  |  | pending |") {
		t.Errorf("RenderActions output missing row:\n%s", got)
	}
}

func TestRenderActionSummary(t *testing.T) {
	got := RenderActionSummary(&ActionSummary{
		Total: 3,
		ByType: []ActionCount{
			{Type: "SPLIT", Total: 2, Processed: 1},
			{Type: "CASH_DIVIDEND", Total: 1, Processed: 1},
		},
		Pending: []PendingCount{{Symbol: "AAPL", Pending: 1}},
	})
	for _, want := range []string{
		"Total actions: 3",
		"| SPLIT | 2 | 1 |",
		"| AAPL | 1 |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderActionSummary output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderTemplateMissingFile(t *testing.T) {
	got := renderTemplate("bogus", "bogus.md", nil, nil)
	if !strings.Contains(got, "error reading main template") {
		t.Errorf("missing template should report a read error, got %q", got)
	}
}
