package ledger

import (
	"math"
)

// fifoLots is a read-only in-memory FIFO view over open lots, used by the
// P&L engine to re-derive cost basis without mutating lot state.
type fifoLots []Lot

// costOfSelling walks the lots oldest first and returns the cost basis of
// selling the given quantity, together with the quantity the lots could
// cover. For a partially consumed lot the cost is prorated on its cost per
// share.
func (l fifoLots) costOfSelling(quantityToSell Quantity) (cost Money, covered Quantity) {
	for _, currentLot := range l {
		if quantityToSell.IsZero() {
			break
		}
		available := currentLot.Remaining()
		if available.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			portion := currentLot.CostTotal.Mul(quantityToSell).Div(currentLot.QtyOpened)
			cost = cost.Add(portion)
			covered = covered.Add(quantityToSell)
			return cost, covered
		}
		// Full consumption of this lot's remainder
		portion := currentLot.CostTotal.Mul(available).Div(currentLot.QtyOpened)
		cost = cost.Add(portion)
		covered = covered.Add(available)
		quantityToSell = quantityToSell.Sub(available)
	}
	return cost, covered
}

// averageCostPerShare returns the weighted average acquisition cost per
// share over the given lots, closed portions included.
func averageCostPerShare(lots []Lot) Money {
	var cost Money
	var qty Quantity
	for _, lot := range lots {
		cost = cost.Add(lot.CostTotal)
		qty = qty.Add(lot.QtyOpened)
	}
	if qty.IsZero() {
		return cost
	}
	return cost.Div(qty)
}

// sumInto accumulates amount into total. Zero amounts are currency neutral;
// two real, different currencies are refused with a validation error rather
// than letting Money.Add panic out of an engine operation. A mixed-currency
// portfolio must be aggregated per account or instrument.
func sumInto(total, amount Money) (Money, error) {
	if amount.IsZero() {
		return total, nil
	}
	if total.IsZero() {
		return amount, nil
	}
	a, b := total.Currency(), amount.Currency()
	if a != "" && b != "" && a != b {
		return Money{}, Validationf("cannot aggregate %s and %s amounts in one total: filter by account or instrument", b, a)
	}
	return total.Add(amount), nil
}

// RealizedEntry is the realized outcome of one (instrument, account) pair.
type RealizedEntry struct {
	InstrumentID int64
	AccountID    int64
	QtySold      Quantity
	Proceeds     Money
	CostBasis    Money
	Realized     Money
	Method       CostBasisMethod // FIFO, or AverageCost when lot data was insufficient
}

// RealizedReport aggregates realized P&L over matching sell activity.
type RealizedReport struct {
	Entries   []RealizedEntry
	Proceeds  Money
	CostBasis Money
	Realized  Money
}

// RealizedPnL scans posted sell-side TRADE lines (negative quantity) within
// the filters and derives each sale's cost basis by replaying a FIFO
// allocation over the currently open lots of the pair, falling back to the
// average cost per share over all lots where open lot data cannot cover the
// quantity. This is a read-only projection: lot closing already happened at
// trade time, and no lot is mutated here.
func (s *System) RealizedPnL(instrumentID, accountID int64, r Range) (*RealizedReport, error) {
	txs, err := s.store.TransactionsByRange(r, true)
	if err != nil {
		return nil, err
	}

	type sale struct {
		qty      Quantity
		proceeds Money
	}
	sales := make(map[positionKey]*sale)
	var order []positionKey
	for _, t := range txs {
		if t.Type != Trade {
			continue
		}
		for _, line := range t.Lines {
			if line.InstrumentID == 0 || !line.Quantity.IsNegative() {
				continue
			}
			if instrumentID != 0 && line.InstrumentID != instrumentID {
				continue
			}
			if accountID != 0 && line.AccountID != accountID {
				continue
			}
			key := positionKey{line.InstrumentID, line.AccountID}
			entry, ok := sales[key]
			if !ok {
				entry = &sale{}
				sales[key] = entry
				order = append(order, key)
			}
			entry.qty = entry.qty.Add(line.Quantity.Abs())
			entry.proceeds = entry.proceeds.Add(line.Amount)
		}
	}

	report := &RealizedReport{}
	for _, key := range order {
		sale := sales[key]
		open, err := s.store.OpenLots(key.InstrumentID, key.AccountID)
		if err != nil {
			return nil, err
		}
		cost, covered := fifoLots(open).costOfSelling(sale.qty)
		method := FIFO
		if covered.LessThan(sale.qty) {
			all, err := s.store.Lots(key.InstrumentID, key.AccountID)
			if err != nil {
				return nil, err
			}
			avg := averageCostPerShare(all)
			cost = cost.Add(avg.Mul(sale.qty.Sub(covered)))
			method = AverageCost
		}
		cost = cost.Round(2)
		entry := RealizedEntry{
			InstrumentID: key.InstrumentID,
			AccountID:    key.AccountID,
			QtySold:      sale.qty,
			Proceeds:     sale.proceeds,
			CostBasis:    cost,
			Realized:     sale.proceeds.Sub(cost),
			Method:       method,
		}
		report.Entries = append(report.Entries, entry)
		if report.Proceeds, err = sumInto(report.Proceeds, entry.Proceeds); err != nil {
			return nil, err
		}
		if report.CostBasis, err = sumInto(report.CostBasis, entry.CostBasis); err != nil {
			return nil, err
		}
		if report.Realized, err = sumInto(report.Realized, entry.Realized); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// UnrealizedEntry marks one open position to the latest stored price.
type UnrealizedEntry struct {
	InstrumentID int64
	AccountID    int64
	Quantity     Quantity
	CostBasis    Money
	Price        Money
	PriceDate    Date
	MarketValue  Money
	Unrealized   Money
}

// UnrealizedReport aggregates unrealized P&L over priced positions.
// Positions without a stored price at or before the valuation date are
// skipped, not zero-filled, and excluded from all totals.
type UnrealizedReport struct {
	AsOf        Date
	Entries     []UnrealizedEntry
	CostBasis   Money
	MarketValue Money
	Unrealized  Money
	Skipped     int
}

// UnrealizedPnL marks every matching open position to the latest price at or
// before asOf. A zero asOf defaults to today.
func (s *System) UnrealizedPnL(instrumentID, accountID int64, asOf Date) (*UnrealizedReport, error) {
	if asOf.IsZero() {
		asOf = Today()
	}
	positions, err := s.Positions(instrumentID, accountID)
	if err != nil {
		return nil, err
	}
	report := &UnrealizedReport{AsOf: asOf}
	for _, pos := range positions {
		price, err := s.store.PriceAsOf(pos.InstrumentID, asOf)
		if IsNotFound(err) {
			s.log.Warn("no price for position, skipping",
				"instrument", pos.InstrumentID, "account", pos.AccountID, "asOf", asOf.String())
			report.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		if pc, cc := price.Close.Currency(), pos.CostBasis.Currency(); pc != "" && cc != "" && pc != cc {
			return nil, Validationf("instrument %d is priced in %s but held at a cost in %s",
				pos.InstrumentID, pc, cc)
		}
		market := price.Close.Mul(pos.Quantity).Round(2)
		entry := UnrealizedEntry{
			InstrumentID: pos.InstrumentID,
			AccountID:    pos.AccountID,
			Quantity:     pos.Quantity,
			CostBasis:    pos.CostBasis,
			Price:        price.Close,
			PriceDate:    price.Date,
			MarketValue:  market,
			Unrealized:   market.Sub(pos.CostBasis),
		}
		report.Entries = append(report.Entries, entry)
		if report.CostBasis, err = sumInto(report.CostBasis, entry.CostBasis); err != nil {
			return nil, err
		}
		if report.MarketValue, err = sumInto(report.MarketValue, entry.MarketValue); err != nil {
			return nil, err
		}
		if report.Unrealized, err = sumInto(report.Unrealized, entry.Unrealized); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// ReturnReport is the time-weighted total return over a period.
type ReturnReport struct {
	Range            Range
	BeginningValue   Money
	EndingValue      Money
	NetCashFlows     Money
	AdjustedEnding   Money
	Gain             Money
	SimpleReturn     Percent
	AnnualizedReturn Percent
	Days             int
}

// TimeWeighted is the only supported total-return method.
const TimeWeighted = "time-weighted"

// TotalReturn computes the time-weighted return over the range: the ending
// portfolio value is adjusted by subtracting the net external cash flows of
// the period, the gain is taken against the beginning value, and the result
// is annualized by geometric compounding over the elapsed fraction of a
// 365-day year. Any method other than "time-weighted" fails validation.
func (s *System) TotalReturn(r Range, method string) (*ReturnReport, error) {
	if method != TimeWeighted {
		return nil, Validationf("unsupported return method %q: only %q is supported", method, TimeWeighted)
	}
	if r.From.IsZero() || r.To.IsZero() {
		return nil, Validationf("total return requires both a start and an end date")
	}

	begin, err := s.portfolioValue(r.From)
	if err != nil {
		return nil, err
	}
	end, err := s.portfolioValue(r.To)
	if err != nil {
		return nil, err
	}
	flows, err := s.netCashFlows(r)
	if err != nil {
		return nil, err
	}
	if !begin.IsPositive() {
		return nil, Businessf("cannot compute return: portfolio value at %s is %s", r.From, begin.Text())
	}

	adjusted, err := sumInto(end, flows.Neg())
	if err != nil {
		return nil, err
	}
	gain, err := sumInto(adjusted, begin.Neg())
	if err != nil {
		return nil, err
	}
	simple := gain.AsFloat() / begin.AsFloat()
	days := r.To.Sub(r.From)

	annualized := simple
	if days > 0 {
		years := float64(days) / 365.0
		annualized = math.Pow(1+simple, 1/years) - 1
	}
	return &ReturnReport{
		Range:            r,
		BeginningValue:   begin,
		EndingValue:      end,
		NetCashFlows:     flows,
		AdjustedEnding:   adjusted,
		Gain:             gain,
		SimpleReturn:     Percent(simple * 100),
		AnnualizedReturn: Percent(annualized * 100),
		Days:             days,
	}, nil
}

// portfolioValue is the mark-to-market value of the portfolio at a date: the
// posted balances of all asset accounts plus the unrealized gain of priced
// open positions. Unpriced positions stay at cost.
func (s *System) portfolioValue(asOf Date) (Money, error) {
	accounts, err := s.store.Accounts()
	if err != nil {
		return Money{}, err
	}
	var value Money
	for _, account := range accounts {
		if account.Type != Asset {
			continue
		}
		balance, err := s.AccountBalance(account.ID, asOf, true)
		if err != nil {
			return Money{}, err
		}
		if value, err = sumInto(value, balance); err != nil {
			return Money{}, err
		}
	}
	unrealized, err := s.UnrealizedPnL(0, 0, asOf)
	if err != nil {
		return Money{}, err
	}
	return sumInto(value, unrealized.Unrealized)
}

// netCashFlows sums the external contributions of the period: the signed
// effect of posted TRANSFER lines on asset accounts. Transfers between two
// asset accounts cancel out; deposits from outside count positive,
// withdrawals negative.
func (s *System) netCashFlows(r Range) (Money, error) {
	txs, err := s.store.TransactionsByRange(r, true)
	if err != nil {
		return Money{}, err
	}
	accounts, err := s.store.Accounts()
	if err != nil {
		return Money{}, err
	}
	isAsset := make(map[int64]bool, len(accounts))
	for _, a := range accounts {
		isAsset[a.ID] = a.Type == Asset
	}
	var net Money
	for _, t := range txs {
		if t.Type != Transfer {
			continue
		}
		for _, line := range t.Lines {
			if !isAsset[line.AccountID] {
				continue
			}
			signed := line.Amount
			if line.Side == Credit {
				signed = signed.Neg()
			}
			var err error
			if net, err = sumInto(net, signed); err != nil {
				return Money{}, err
			}
		}
	}
	return net, nil
}

// PnLReport combines realized, unrealized and total return in one view.
type PnLReport struct {
	Range      Range
	AsOf       Date
	Realized   *RealizedReport
	Unrealized *UnrealizedReport
	Return     *ReturnReport // nil when the period has no beginning value
	Net        Money
}

// Report builds the full P&L report: realized gains over the range,
// unrealized gains as of the valuation date, and, when the range is bounded,
// the time-weighted return. A period with no beginning value yields a report
// without a return section rather than an error.
func (s *System) Report(instrumentID, accountID int64, r Range, asOf Date) (*PnLReport, error) {
	if asOf.IsZero() {
		asOf = Today()
	}
	realized, err := s.RealizedPnL(instrumentID, accountID, r)
	if err != nil {
		return nil, err
	}
	unrealized, err := s.UnrealizedPnL(instrumentID, accountID, asOf)
	if err != nil {
		return nil, err
	}
	net, err := sumInto(realized.Realized, unrealized.Unrealized)
	if err != nil {
		return nil, err
	}
	report := &PnLReport{
		Range:      r,
		AsOf:       asOf,
		Realized:   realized,
		Unrealized: unrealized,
		Net:        net,
	}
	if !r.From.IsZero() && !r.To.IsZero() {
		ret, err := s.TotalReturn(r, TimeWeighted)
		if err != nil && !IsBusiness(err) {
			return nil, err
		}
		if err != nil {
			s.log.Warn("skipping total return in report", "err", err)
		} else {
			report.Return = ret
		}
	}
	return report, nil
}

// Reconcile cross-checks the engine's derived state against raw transaction
// history: the lot tracker's quantity reconciliation, realized P&L's cash
// impact against the net cash flow of the matching trades, and closed-lot
// cost against allocated lot cost. A zero tolerance defaults to 0.01.
// Findings are returned as values; the call itself fails only on storage
// errors.
func (s *System) Reconcile(instrumentID, accountID int64, tolerance Money) ([]Discrepancy, error) {
	if tolerance.IsZero() {
		tolerance = M(0.01, s.cfg.Currency)
	}

	findings, err := s.ReconcileLots(instrumentID, accountID)
	if err != nil {
		return nil, err
	}

	realized, err := s.RealizedPnL(instrumentID, accountID, Range{})
	if err != nil {
		return nil, err
	}

	// Raw sale and purchase totals from TRADE lines carrying a quantity.
	txs, err := s.store.TransactionsByRange(Range{}, true)
	if err != nil {
		return nil, err
	}
	var rawSales, rawPurchases Money
	for _, t := range txs {
		if t.Type != Trade {
			continue
		}
		for _, line := range t.Lines {
			if line.InstrumentID == 0 || line.Quantity.IsZero() {
				continue
			}
			if instrumentID != 0 && line.InstrumentID != instrumentID {
				continue
			}
			if accountID != 0 && line.AccountID != accountID {
				continue
			}
			if line.Quantity.IsNegative() {
				if rawSales, err = sumInto(rawSales, line.Amount); err != nil {
					return nil, err
				}
			} else {
				if rawPurchases, err = sumInto(rawPurchases, line.Amount); err != nil {
					return nil, err
				}
			}
		}
	}

	// Cost allocated to closed lot portions and cost still held in the open
	// remainders. Together they account for the full purchase total.
	lots, err := s.store.Lots(instrumentID, accountID)
	if err != nil {
		return nil, err
	}
	var allocated, openCost Money
	for _, lot := range lots {
		if lot.QtyOpened.IsZero() {
			continue
		}
		closed := lot.CostTotal.Mul(lot.QtyClosed).Div(lot.QtyOpened)
		if allocated, err = sumInto(allocated, closed); err != nil {
			return nil, err
		}
		if openCost, err = sumInto(openCost, lot.CostTotal.Sub(closed)); err != nil {
			return nil, err
		}
	}
	allocated = allocated.Round(2)
	openCost = openCost.Round(2)

	// The trades' net cash flow is sales minus purchases; realized P&L only
	// accounts for the portion sold, so the cost still tied up in open lots
	// bridges the two sides.
	expected, err := sumInto(rawSales, rawPurchases.Neg())
	if err != nil {
		return nil, err
	}
	if expected, err = sumInto(expected, openCost); err != nil {
		return nil, err
	}
	actual, err := sumInto(realized.Proceeds, realized.CostBasis.Neg())
	if err != nil {
		return nil, err
	}
	diff, err := sumInto(actual, expected.Neg())
	if err != nil {
		return nil, err
	}
	if diff.Abs().GreaterThan(tolerance) {
		findings = append(findings, Discrepancy{
			InstrumentID: instrumentID,
			AccountID:    accountID,
			Kind:         "cash-flow",
			Expected:     expected.Text(),
			Actual:       actual.Text(),
			Detail:       "realized cash impact does not match the net cash flow of the recorded trades",
		})
	}

	if realized.CostBasis.Sub(allocated).Abs().GreaterThan(tolerance) {
		findings = append(findings, Discrepancy{
			InstrumentID: instrumentID,
			AccountID:    accountID,
			Kind:         "realized-cost",
			Expected:     allocated.Text(),
			Actual:       realized.CostBasis.Text(),
			Detail:       "realized cost basis does not match cost allocated to closed lots",
		})
	}
	return findings, nil
}
