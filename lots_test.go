package ledger

import (
	"testing"
)

func TestOpenLotValidation(t *testing.T) {
	b := setupBrokerage(t)

	if _, err := b.sys.OpenLot(b.aapl.ID, b.holdings.ID, Q(0), USD(100), NewDate(2025, 1, 2)); !IsValidation(err) {
		t.Errorf("zero quantity error = %v, want a validation error", err)
	}
	if _, err := b.sys.OpenLot(b.aapl.ID, b.holdings.ID, Q(-5), USD(100), NewDate(2025, 1, 2)); !IsValidation(err) {
		t.Errorf("negative quantity error = %v, want a validation error", err)
	}
	if _, err := b.sys.OpenLot(b.aapl.ID, b.holdings.ID, Q(5), USD(-1), NewDate(2025, 1, 2)); !IsValidation(err) {
		t.Errorf("negative cost error = %v, want a validation error", err)
	}
	if _, err := b.sys.OpenLot(999, b.holdings.ID, Q(5), USD(100), NewDate(2025, 1, 2)); !IsNotFound(err) {
		t.Errorf("unknown instrument error = %v, want not found", err)
	}
}

func TestCloseLotsFIFOOrder(t *testing.T) {
	b := setupBrokerage(t)

	// Three lots at distinct costs; closure must consume them oldest first.
	b.buy(t, NewDate(2025, 1, 10), 10, 100)
	b.buy(t, NewDate(2025, 2, 10), 10, 110)
	b.buy(t, NewDate(2025, 3, 10), 10, 120)

	closures, err := b.sys.CloseLotsFIFO(b.aapl.ID, b.holdings.ID, Q(15))
	if err != nil {
		t.Fatalf("CloseLotsFIFO() failed: %v", err)
	}
	if len(closures) != 2 {
		t.Fatalf("got %d closures, want 2", len(closures))
	}

	first, second := closures[0], closures[1]
	if !first.QtyClosed.Equal(Q(10)) || !first.CostBasis.Equal(USD(1000)) {
		t.Errorf("first closure = %v shares at %v, want 10 at 1000.00", first.QtyClosed, first.CostBasis)
	}
	if !second.QtyClosed.Equal(Q(5)) || !second.CostBasis.Equal(USD(550)) {
		t.Errorf("second closure = %v shares at %v, want 5 at 550.00", second.QtyClosed, second.CostBasis)
	}
	if second.Lot.OpenDate.Before(first.Lot.OpenDate) {
		t.Error("closures are not in open date order")
	}

	// The partially closed lot keeps its remainder available.
	open, err := b.sys.Store().OpenLots(b.aapl.ID, b.holdings.ID)
	if err != nil {
		t.Fatalf("OpenLots() failed: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("got %d open lots, want 2", len(open))
	}
	if !open[0].Remaining().Equal(Q(5)) {
		t.Errorf("oldest open lot remaining = %v, want 5", open[0].Remaining())
	}
}

func TestCloseLotsFIFOTiesById(t *testing.T) {
	b := setupBrokerage(t)

	// Two lots on the same date, creation order breaks the tie.
	on := NewDate(2025, 1, 10)
	b.buy(t, on, 10, 100)
	b.buy(t, on, 10, 200)

	closures, err := b.sys.CloseLotsFIFO(b.aapl.ID, b.holdings.ID, Q(10))
	if err != nil {
		t.Fatalf("CloseLotsFIFO() failed: %v", err)
	}
	if len(closures) != 1 {
		t.Fatalf("got %d closures, want 1", len(closures))
	}
	if !closures[0].CostBasis.Equal(USD(1000)) {
		t.Errorf("closure cost basis = %v, want the first created lot's 1000.00", closures[0].CostBasis)
	}
}

func TestCloseLotsFIFOInsufficientShares(t *testing.T) {
	b := setupBrokerage(t)
	b.buy(t, NewDate(2025, 1, 10), 10, 100)
	b.buy(t, NewDate(2025, 2, 10), 10, 110)

	_, err := b.sys.CloseLotsFIFO(b.aapl.ID, b.holdings.ID, Q(25))
	if !IsBusiness(err) {
		t.Fatalf("oversell error = %v, want a business error", err)
	}

	// All or nothing: no lot was touched by the failed closure.
	open, err := b.sys.Store().OpenLots(b.aapl.ID, b.holdings.ID)
	if err != nil {
		t.Fatalf("OpenLots() failed: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("got %d open lots, want 2", len(open))
	}
	for _, lot := range open {
		if !lot.QtyClosed.IsZero() {
			t.Errorf("lot %d was partially closed by a failed closure: %v", lot.ID, lot.QtyClosed)
		}
	}
}

func TestCostBasisRounding(t *testing.T) {
	b := setupBrokerage(t)

	// 3 shares for 100.00: closing 1 share costs 33.333..., stored as 33.33.
	if _, err := b.sys.OpenLot(b.aapl.ID, b.holdings.ID, Q(3), USD(100), NewDate(2025, 1, 2)); err != nil {
		t.Fatalf("OpenLot() failed: %v", err)
	}
	closures, err := b.sys.CloseLotsFIFO(b.aapl.ID, b.holdings.ID, Q(1))
	if err != nil {
		t.Fatalf("CloseLotsFIFO() failed: %v", err)
	}
	if !closures[0].CostBasis.Equal(USD(33.33)) {
		t.Errorf("cost basis = %v, want 33.33", closures[0].CostBasis)
	}
}

func TestPositions(t *testing.T) {
	b := setupBrokerage(t)
	msft := newInstrument(t, b.sys, "MSFT")

	b.buy(t, NewDate(2025, 1, 10), 10, 100)
	b.buy(t, NewDate(2025, 2, 10), 10, 120)
	if _, err := b.sys.CreateTradeTransaction(b.holdings.ID, msft.ID, b.cash.ID,
		Q(5), USD(300), NewDate(2025, 1, 15), USD(0), 0, "", true); err != nil {
		t.Fatalf("buying msft failed: %v", err)
	}

	positions, err := b.sys.Positions(0, 0)
	if err != nil {
		t.Fatalf("Positions() failed: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}

	aapl := positions[0]
	if aapl.InstrumentID != b.aapl.ID {
		aapl = positions[1]
	}
	if !aapl.Quantity.Equal(Q(20)) {
		t.Errorf("aapl quantity = %v, want 20", aapl.Quantity)
	}
	if !aapl.CostBasis.Equal(USD(2200)) {
		t.Errorf("aapl cost basis = %v, want 2200.00", aapl.CostBasis)
	}
	if aapl.Lots != 2 {
		t.Errorf("aapl lot count = %d, want 2", aapl.Lots)
	}
	if !aapl.AvgCost.Round(2).Equal(USD(110)) {
		t.Errorf("aapl average cost = %v, want 110.00", aapl.AvgCost.Round(2))
	}
}

func TestCostBasisSummary(t *testing.T) {
	b := setupBrokerage(t)
	b.buy(t, NewDate(2025, 1, 10), 10, 100)
	b.buy(t, NewDate(2025, 3, 10), 10, 120)
	b.sell(t, NewDate(2025, 4, 1), 5, 150)

	summary, err := b.sys.CostBasis(b.aapl.ID, b.holdings.ID)
	if err != nil {
		t.Fatalf("CostBasis() failed: %v", err)
	}
	if !summary.Quantity.Equal(Q(15)) {
		t.Errorf("remaining quantity = %v, want 15", summary.Quantity)
	}
	// 5 of the first lot remain at 100, plus the full second lot at 120.
	if !summary.CostBasis.Equal(USD(1700)) {
		t.Errorf("remaining cost basis = %v, want 1700.00", summary.CostBasis)
	}
	if summary.OldestOpen != NewDate(2025, 1, 10) {
		t.Errorf("oldest open = %v, want 2025-01-10", summary.OldestOpen)
	}
	if summary.NewestOpen != NewDate(2025, 3, 10) {
		t.Errorf("newest open = %v, want 2025-03-10", summary.NewestOpen)
	}
}

func TestReconcileLotsCleanAndDrifted(t *testing.T) {
	b := setupBrokerage(t)
	b.buy(t, NewDate(2025, 1, 10), 10, 100)
	b.sell(t, NewDate(2025, 2, 1), 4, 120)

	findings, err := b.sys.ReconcileLots(b.aapl.ID, b.holdings.ID)
	if err != nil {
		t.Fatalf("ReconcileLots() failed: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("clean ledger has findings: %+v", findings)
	}

	// Open a lot without a matching trade to create drift.
	if _, err := b.sys.OpenLot(b.aapl.ID, b.holdings.ID, Q(3), USD(300), NewDate(2025, 3, 1)); err != nil {
		t.Fatalf("OpenLot() failed: %v", err)
	}
	findings, err = b.sys.ReconcileLots(b.aapl.ID, b.holdings.ID)
	if err != nil {
		t.Fatalf("ReconcileLots() failed: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1: %+v", len(findings), findings)
	}
	if findings[0].Kind != "lot-quantity" {
		t.Errorf("finding kind = %q, want lot-quantity", findings[0].Kind)
	}
}

func TestRealizedFromClosures(t *testing.T) {
	closures := []Closure{
		{QtyClosed: Q(10), CostBasis: USD(1000)},
		{QtyClosed: Q(5), CostBasis: USD(550)},
	}
	summary := RealizedFromClosures(closures, USD(2400))
	if !summary.QtyClosed.Equal(Q(15)) {
		t.Errorf("quantity closed = %v, want 15", summary.QtyClosed)
	}
	if !summary.CostBasis.Equal(USD(1550)) {
		t.Errorf("cost basis = %v, want 1550.00", summary.CostBasis)
	}
	if !summary.Realized.Equal(USD(850)) {
		t.Errorf("realized = %v, want 850.00", summary.Realized)
	}
}

func TestOpenLotRejectsCurrencyMismatch(t *testing.T) {
	b := setupBrokerage(t)
	sap := &Instrument{Symbol: "SAP", Name: "SAP", Type: EquityInstrument, Currency: "EUR"}
	if err := b.sys.Store().CreateInstrument(sap); err != nil {
		t.Fatalf("CreateInstrument(SAP) failed: %v", err)
	}

	// A EUR instrument cannot open a lot in a USD account: its cost and its
	// market price would never be comparable.
	if _, err := b.sys.OpenLot(sap.ID, b.holdings.ID, Q(10), USD(1000), NewDate(2025, 2, 4)); !IsValidation(err) {
		t.Fatalf("currency mismatch error = %v, want a validation error", err)
	}
}

func TestReconcileLotsFindingsAreOrdered(t *testing.T) {
	b := setupBrokerage(t)
	msft := newInstrument(t, b.sys, "MSFT")
	nvda := newInstrument(t, b.sys, "NVDA")

	for _, ins := range []*Instrument{nvda, b.aapl, msft} {
		_, err := b.sys.CreateTradeTransaction(b.holdings.ID, ins.ID, b.cash.ID,
			Q(50), USD(100), NewDate(2025, 2, 3), USD(0), 0, "", true)
		if err != nil {
			t.Fatalf("buy of %s failed: %v", ins.Symbol, err)
		}
		// Drift every position by closing lots without a matching trade.
		if _, err := b.sys.CloseLotsFIFO(ins.ID, b.holdings.ID, Q(10)); err != nil {
			t.Fatalf("CloseLotsFIFO(%s) failed: %v", ins.Symbol, err)
		}
	}

	findings, err := b.sys.ReconcileLots(0, 0)
	if err != nil {
		t.Fatalf("ReconcileLots() failed: %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("len(findings) = %d, want 3", len(findings))
	}
	// Findings come back sorted by instrument then account, whatever the
	// drift order was.
	want := []int64{b.aapl.ID, msft.ID, nvda.ID}
	for i, f := range findings {
		if f.InstrumentID != want[i] {
			t.Errorf("findings[%d].InstrumentID = %d, want %d", i, f.InstrumentID, want[i])
		}
	}
}
