package ledger

import (
	"database/sql"
	"sort"
)

// Closure records the portion of one lot consumed by a FIFO close.
type Closure struct {
	Lot       Lot
	QtyClosed Quantity
	CostBasis Money
}

// OpenLot creates a new cost-basis lot for a buy. The quantity must be
// strictly positive; the cost is the total acquisition cost of the lot and
// may be zero (stock dividends open zero-cost lots). The instrument and the
// account must share a currency, so a lot's cost and its market price are
// always comparable.
func (s *System) OpenLot(instrumentID, accountID int64, qty Quantity, costTotal Money, on Date) (*Lot, error) {
	if !qty.IsPositive() {
		return nil, Validationf("lot quantity must be strictly positive, got %s", qty)
	}
	if costTotal.IsNegative() {
		return nil, Validationf("lot cost cannot be negative, got %s", costTotal.Text())
	}
	if on.IsZero() {
		return nil, Validationf("lot open date is required")
	}
	instrument, err := s.store.Instrument(instrumentID)
	if err != nil {
		return nil, err
	}
	account, err := s.store.Account(accountID)
	if err != nil {
		return nil, err
	}
	if instrument.Currency != account.Currency {
		return nil, Validationf("instrument %s is denominated in %s but account %s is in %s",
			instrument.Symbol, instrument.Currency, account.Name, account.Currency)
	}
	lot := &Lot{
		InstrumentID: instrumentID,
		AccountID:    accountID,
		OpenDate:     on,
		QtyOpened:    qty,
		QtyClosed:    Q(0),
		CostTotal:    M(costTotal.value, account.Currency),
	}
	err = s.store.withTx(func(tx *sql.Tx) error {
		return s.store.insertLot(tx, lot)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("opened lot", "lot", lot.ID, "instrument", instrumentID, "account", accountID,
		"qty", qty.String(), "cost", costTotal.Text())
	return lot, nil
}

// CloseLotsFIFO closes qty units of the (instrument, account) holding,
// consuming the oldest open lot first. Lots are ordered by open date then id,
// so same-day lots close in creation order. The close is all-or-nothing: if
// the requested quantity exceeds the total available across all open lots,
// no lot is mutated.
//
// The cost basis of each closed portion is the lot's cost per share times
// the quantity closed from it, rounded to 2 decimal places, ties away from
// zero.
func (s *System) CloseLotsFIFO(instrumentID, accountID int64, qty Quantity) ([]Closure, error) {
	if !qty.IsPositive() {
		return nil, Validationf("quantity to close must be strictly positive, got %s", qty)
	}
	var closures []Closure
	err := s.store.withTx(func(tx *sql.Tx) error {
		open, err := s.store.openLots(tx, instrumentID, accountID)
		if err != nil {
			return err
		}
		available := Q(0)
		for _, lot := range open {
			available = available.Add(lot.Remaining())
		}
		if available.LessThan(qty) {
			return Businessf("insufficient shares: requested %s but only %s available across %d lots",
				qty, available, len(open))
		}

		remaining := qty
		for _, lot := range open {
			if remaining.IsZero() {
				break
			}
			take := lot.Remaining()
			if remaining.LessThan(take) {
				take = remaining
			}
			costBasis := lot.CostTotal.Div(lot.QtyOpened).Mul(take).Round(2)
			if err := s.store.updateLotClosed(tx, lot.ID, lot.QtyClosed.Add(take)); err != nil {
				return err
			}
			closures = append(closures, Closure{Lot: lot, QtyClosed: take, CostBasis: costBasis})
			remaining = remaining.Sub(take)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("closed lots FIFO", "instrument", instrumentID, "account", accountID,
		"qty", qty.String(), "lots", len(closures))
	return closures, nil
}

// Position aggregates the open lots of one (instrument, account) holding.
type Position struct {
	InstrumentID int64
	AccountID    int64
	Quantity     Quantity // total remaining
	CostBasis    Money    // remaining cost, 2 decimal places
	Lots         int      // open lot count
	AvgCost      Money    // remaining cost per remaining share
}

// Positions aggregates open lots into one row per (instrument, account).
// Zero filter values match everything. Rows are ordered by instrument then
// account for deterministic output.
func (s *System) Positions(instrumentID, accountID int64) ([]Position, error) {
	open, err := s.store.OpenLots(instrumentID, accountID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[positionKey]*Position)
	var order []positionKey
	for _, lot := range open {
		key := positionKey{lot.InstrumentID, lot.AccountID}
		p, ok := byKey[key]
		if !ok {
			p = &Position{InstrumentID: lot.InstrumentID, AccountID: lot.AccountID,
				CostBasis: M(0, lot.CostTotal.Currency())}
			byKey[key] = p
			order = append(order, key)
		}
		p.Quantity = p.Quantity.Add(lot.Remaining())
		p.CostBasis = p.CostBasis.Add(lot.CostTotal.Mul(lot.Remaining()).Div(lot.QtyOpened))
		p.Lots++
	}
	positions := make([]Position, 0, len(order))
	for _, key := range order {
		p := byKey[key]
		p.CostBasis = p.CostBasis.Round(2)
		if !p.Quantity.IsZero() {
			p.AvgCost = p.CostBasis.Div(p.Quantity)
		}
		positions = append(positions, *p)
	}
	return positions, nil
}

// AvailableLots returns per-lot detail for a holding: remaining quantity,
// cost per share and remaining cost basis. Closed lots are included only
// when includeClosed is set.
func (s *System) AvailableLots(instrumentID, accountID int64, includeClosed bool) ([]Lot, error) {
	if includeClosed {
		return s.store.Lots(instrumentID, accountID)
	}
	return s.store.OpenLots(instrumentID, accountID)
}

// BasisSummary describes the cost basis of one holding.
type BasisSummary struct {
	InstrumentID int64
	AccountID    int64
	Quantity     Quantity
	CostBasis    Money
	AvgCost      Money
	Lots         int
	OldestOpen   Date
	NewestOpen   Date
}

// CostBasis summarizes the remaining cost basis of a holding.
func (s *System) CostBasis(instrumentID, accountID int64) (*BasisSummary, error) {
	open, err := s.store.OpenLots(instrumentID, accountID)
	if err != nil {
		return nil, err
	}
	summary := &BasisSummary{InstrumentID: instrumentID, AccountID: accountID}
	for _, lot := range open {
		summary.Quantity = summary.Quantity.Add(lot.Remaining())
		summary.CostBasis = summary.CostBasis.Add(lot.CostTotal.Mul(lot.Remaining()).Div(lot.QtyOpened))
		summary.Lots++
		if summary.OldestOpen.IsZero() || lot.OpenDate.Before(summary.OldestOpen) {
			summary.OldestOpen = lot.OpenDate
		}
		if summary.NewestOpen.IsZero() || lot.OpenDate.After(summary.NewestOpen) {
			summary.NewestOpen = lot.OpenDate
		}
	}
	summary.CostBasis = summary.CostBasis.Round(2)
	if !summary.Quantity.IsZero() {
		summary.AvgCost = summary.CostBasis.Div(summary.Quantity)
	}
	return summary, nil
}

// Discrepancy is a reconciliation finding. Findings are values, not errors.
type Discrepancy struct {
	InstrumentID int64
	AccountID    int64
	Kind         string
	Expected     string
	Actual       string
	Detail       string
}

// reconcileTolerance is the absolute quantity difference beyond which lot
// state and transaction history are considered out of sync.
var reconcileTolerance = Q(0.001)

// ReconcileLots compares the net signed quantity of TRADE transaction lines
// against the net remaining lot quantity per (instrument, account). It is a
// consistency check, not an auto-repair: discrepancies are returned, never
// corrected.
func (s *System) ReconcileLots(instrumentID, accountID int64) ([]Discrepancy, error) {
	traded, err := s.store.tradeQuantities(instrumentID, accountID)
	if err != nil {
		return nil, err
	}
	lots, err := s.store.Lots(instrumentID, accountID)
	if err != nil {
		return nil, err
	}
	held := make(map[positionKey]Quantity)
	for _, lot := range lots {
		key := positionKey{lot.InstrumentID, lot.AccountID}
		held[key] = held[key].Add(lot.Remaining())
	}

	seen := make(map[positionKey]bool)
	var keys []positionKey
	for key := range traded {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for key := range held {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].InstrumentID != keys[j].InstrumentID {
			return keys[i].InstrumentID < keys[j].InstrumentID
		}
		return keys[i].AccountID < keys[j].AccountID
	})

	var findings []Discrepancy
	for _, key := range keys {
		diff := traded[key].Sub(held[key]).Abs()
		if diff.GreaterThan(reconcileTolerance) {
			findings = append(findings, Discrepancy{
				InstrumentID: key.InstrumentID,
				AccountID:    key.AccountID,
				Kind:         "lot-quantity",
				Expected:     traded[key].String(),
				Actual:       held[key].String(),
				Detail:       "net traded quantity does not match net remaining lot quantity",
			})
		}
	}
	return findings, nil
}

// RealizedSummary aggregates the outcome of a set of lot closures against
// their sale proceeds.
type RealizedSummary struct {
	QtyClosed Quantity
	CostBasis Money
	Proceeds  Money
	Realized  Money
}

// RealizedFromClosures computes the realized gain of a set of closures
// against the proceeds of the sale that produced them.
func RealizedFromClosures(closures []Closure, proceeds Money) RealizedSummary {
	summary := RealizedSummary{Proceeds: proceeds}
	for _, c := range closures {
		summary.QtyClosed = summary.QtyClosed.Add(c.QtyClosed)
		summary.CostBasis = summary.CostBasis.Add(c.CostBasis)
	}
	summary.Realized = proceeds.Sub(summary.CostBasis)
	return summary
}
