package ledger

import (
	"database/sql"
	"fmt"
	"strings"
)

// quantityPrecision is the rounding applied to quantities produced by
// corporate actions (split scaling, stock-dividend shares): 3 decimal
// places, ties away from zero.
const quantityPrecision = 3

// CreateAction records a corporate action, validating its type-specific
// required fields. When autoProcess is set the action is processed
// immediately; a processing failure leaves the created action unprocessed
// and is returned alongside it.
func (s *System) CreateAction(instrumentID int64, typ ActionType, effective Date, ratio Quantity, cashPerShare Money, notes string, autoProcess bool) (*CorporateAction, error) {
	if effective.IsZero() {
		return nil, Validationf("corporate action effective date is required")
	}
	a := &CorporateAction{
		InstrumentID:  instrumentID,
		Type:          typ,
		EffectiveDate: effective,
		Ratio:         ratio,
		CashPerShare:  cashPerShare,
		Notes:         notes,
	}
	if err := validateActionFields(a); err != nil {
		return nil, err
	}
	if err := s.store.CreateAction(a); err != nil {
		return nil, err
	}
	if autoProcess {
		if err := s.ProcessAction(a.ID); err != nil {
			return a, err
		}
		a.Processed = true
	}
	return a, nil
}

// validateActionFields checks the type-specific required fields of an action.
func validateActionFields(a *CorporateAction) error {
	switch a.Type {
	case Split, StockDividend:
		if !a.Ratio.IsPositive() {
			return Validationf("%s requires a strictly positive ratio, got %s", a.Type, a.Ratio)
		}
	case CashDividend:
		if !a.CashPerShare.IsPositive() {
			return Validationf("CASH_DIVIDEND requires a strictly positive cash-per-share, got %s", a.CashPerShare.Text())
		}
	case SymbolChange:
		if strings.TrimSpace(a.Notes) == "" {
			return Validationf("SYMBOL_CHANGE requires the new symbol in the notes field")
		}
	}
	return nil
}

// ProcessAction applies a corporate action to lots and instruments, exactly
// once. Processing is all-or-nothing: every side effect, the audit
// transaction included, happens in one unit of work with the flip of the
// processed flag, so a failure leaves the action unprocessed and the ledger
// untouched.
//
// MERGER and SPINOFF are recognized but unsupported: processing them fails
// with a business error.
func (s *System) ProcessAction(id int64) error {
	a, err := s.store.Action(id)
	if err != nil {
		return err
	}
	if a.Processed {
		return Businessf("corporate action %d is already processed", id)
	}
	if err := validateActionFields(a); err != nil {
		return err
	}
	instrument, err := s.store.Instrument(a.InstrumentID)
	if err != nil {
		return err
	}

	// Cash dividends resolve their accounts from the configured mapping,
	// before any mutation. Processing never creates accounts.
	var cashAccount, incomeAccount *Account
	if a.Type == CashDividend {
		da, err := s.cfg.DividendAccountsFor(instrument.Currency)
		if err != nil {
			return err
		}
		if cashAccount, err = s.store.AccountByName(da.Cash); err != nil {
			return err
		}
		if incomeAccount, err = s.store.AccountByName(da.Income); err != nil {
			return err
		}
	}

	err = s.store.withTx(func(tx *sql.Tx) error {
		switch a.Type {
		case Split:
			if err := s.processSplit(tx, a, instrument); err != nil {
				return err
			}
		case CashDividend:
			if err := s.processCashDividend(tx, a, instrument, cashAccount, incomeAccount); err != nil {
				return err
			}
		case StockDividend:
			if err := s.processStockDividend(tx, a, instrument); err != nil {
				return err
			}
		case SymbolChange:
			if err := s.processSymbolChange(tx, a, instrument); err != nil {
				return err
			}
		default:
			return Businessf("corporate action type %s is not supported", a.Type)
		}
		return s.store.markActionProcessed(tx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("processed corporate action", "action", id, "type", a.Type.String(),
		"instrument", instrument.Symbol, "effective", a.EffectiveDate.String())
	return nil
}

// processSplit multiplies the quantities of every open lot of the instrument
// by the ratio, across all accounts. Cost totals are unchanged: the cost per
// share is implicitly diluted.
func (s *System) processSplit(tx *sql.Tx, a *CorporateAction, instrument *Instrument) error {
	open, err := s.store.openLots(tx, a.InstrumentID, 0)
	if err != nil {
		return err
	}
	for _, lot := range open {
		opened := lot.QtyOpened.Mul(a.Ratio).Round(quantityPrecision)
		closed := lot.QtyClosed.Mul(a.Ratio).Round(quantityPrecision)
		if err := s.store.updateLotQuantities(tx, lot.ID, opened, closed); err != nil {
			return err
		}
	}
	if len(open) == 0 {
		return nil
	}
	memo := fmt.Sprintf("SPLIT %s ratio %s", instrument.Symbol, a.Ratio)
	return s.auditAdjust(tx, open[0].AccountID, a.InstrumentID, a.EffectiveDate, memo)
}

// processCashDividend books qty * cash-per-share for every current position
// of the instrument as one posted DIVIDEND transaction per position,
// debiting the mapped cash account and crediting the mapped income account.
// Lot quantities and costs are untouched.
func (s *System) processCashDividend(tx *sql.Tx, a *CorporateAction, instrument *Instrument, cashAccount, incomeAccount *Account) error {
	positions, err := s.positionsIn(tx, a.InstrumentID)
	if err != nil {
		return err
	}
	for _, pos := range positions {
		dividend := a.CashPerShare.Mul(pos.Quantity).Round(2)
		if !dividend.IsPositive() {
			continue
		}
		memo := fmt.Sprintf("CASH_DIVIDEND %s %s/share", instrument.Symbol, a.CashPerShare.Text())
		t := &Transaction{
			Date: a.EffectiveDate, Type: Dividend, Memo: memo, Posted: true,
			Lines: []Line{
				{AccountID: cashAccount.ID, InstrumentID: a.InstrumentID, Amount: dividend, Side: Debit},
				{AccountID: incomeAccount.ID, InstrumentID: a.InstrumentID, Amount: dividend, Side: Credit},
			},
		}
		if err := s.store.insertTransaction(tx, t); err != nil {
			return err
		}
	}
	return nil
}

// processStockDividend opens a zero-cost lot of qty * ratio shares for every
// current position, dated at the action's effective date.
func (s *System) processStockDividend(tx *sql.Tx, a *CorporateAction, instrument *Instrument) error {
	positions, err := s.positionsIn(tx, a.InstrumentID)
	if err != nil {
		return err
	}
	created := 0
	var auditAccount int64
	for _, pos := range positions {
		newShares := pos.Quantity.Mul(a.Ratio).Round(quantityPrecision)
		if !newShares.IsPositive() {
			continue
		}
		lot := &Lot{
			InstrumentID: a.InstrumentID,
			AccountID:    pos.AccountID,
			OpenDate:     a.EffectiveDate,
			QtyOpened:    newShares,
			QtyClosed:    Q(0),
			CostTotal:    M(0, pos.Currency),
		}
		if err := s.store.insertLot(tx, lot); err != nil {
			return err
		}
		created++
		auditAccount = pos.AccountID
	}
	if created == 0 {
		return nil
	}
	memo := fmt.Sprintf("STOCK_DIVIDEND %s ratio %s", instrument.Symbol, a.Ratio)
	return s.auditAdjust(tx, auditAccount, a.InstrumentID, a.EffectiveDate, memo)
}

// processSymbolChange rewrites the instrument's symbol in place. Lots, lines
// and prices follow by identity.
func (s *System) processSymbolChange(tx *sql.Tx, a *CorporateAction, instrument *Instrument) error {
	newSymbol := strings.TrimSpace(a.Notes)
	if err := s.store.renameInstrument(tx, a.InstrumentID, newSymbol); err != nil {
		return err
	}
	lots, err := s.store.openLots(tx, a.InstrumentID, 0)
	if err != nil {
		return err
	}
	if len(lots) == 0 {
		return nil
	}
	memo := fmt.Sprintf("SYMBOL_CHANGE %s -> %s", instrument.Symbol, newSymbol)
	return s.auditAdjust(tx, lots[0].AccountID, a.InstrumentID, a.EffectiveDate, memo)
}

// actionPosition is one (account, quantity) holding of an instrument at
// processing time.
type actionPosition struct {
	AccountID int64
	Quantity  Quantity
	Currency  string
}

// positionsIn aggregates the open lots of an instrument per account, inside
// the caller's unit of work.
func (s *System) positionsIn(tx *sql.Tx, instrumentID int64) ([]actionPosition, error) {
	open, err := s.store.openLots(tx, instrumentID, 0)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[int64]*actionPosition)
	var order []int64
	for _, lot := range open {
		p, ok := byAccount[lot.AccountID]
		if !ok {
			p = &actionPosition{AccountID: lot.AccountID, Currency: lot.CostTotal.Currency()}
			byAccount[lot.AccountID] = p
			order = append(order, lot.AccountID)
		}
		p.Quantity = p.Quantity.Add(lot.Remaining())
	}
	positions := make([]actionPosition, 0, len(order))
	for _, id := range order {
		positions = append(positions, *byAccount[id])
	}
	return positions, nil
}

// auditAdjust records the symbolic audit trail of a corporate action: a
// posted ADJUST transaction of two balanced 0.01 lines on one lot-holding
// account, tagged with the instrument.
func (s *System) auditAdjust(tx *sql.Tx, accountID, instrumentID int64, on Date, memo string) error {
	amount := M(0.01, "")
	t := &Transaction{
		Date: on, Type: Adjust, Memo: memo, Posted: true,
		Lines: []Line{
			{AccountID: accountID, InstrumentID: instrumentID, Amount: amount, Side: Debit},
			{AccountID: accountID, InstrumentID: instrumentID, Amount: amount, Side: Credit},
		},
	}
	return s.store.insertTransaction(tx, t)
}

// ProcessResult is the outcome of one action in a batch.
type ProcessResult struct {
	ActionID int64
	Type     ActionType
	Err      error
}

// ProcessPending processes all unprocessed corporate actions matching the
// filters, ordered by effective date ascending. Each action is its own unit
// of work: a failure is collected and does not abort the batch.
func (s *System) ProcessPending(until Date, instrumentID int64) ([]ProcessResult, error) {
	unprocessed := false
	pending, err := s.store.Actions(ActionFilter{
		InstrumentID: instrumentID,
		Processed:    &unprocessed,
		Until:        until,
	})
	if err != nil {
		return nil, err
	}
	results := make([]ProcessResult, 0, len(pending))
	for _, a := range pending {
		err := s.ProcessAction(a.ID)
		if err != nil {
			s.log.Warn("corporate action processing failed", "action", a.ID, "type", a.Type.String(), "err", err)
		}
		results = append(results, ProcessResult{ActionID: a.ID, Type: a.Type, Err: err})
	}
	return results, nil
}

// Action returns a corporate action by id.
func (s *System) Action(id int64) (*CorporateAction, error) {
	return s.store.Action(id)
}

// Actions returns the corporate actions matching the filter.
func (s *System) Actions(f ActionFilter) ([]CorporateAction, error) {
	return s.store.Actions(f)
}

// UpdateAction rewrites an unprocessed corporate action. A processed action
// is immutable.
func (s *System) UpdateAction(a *CorporateAction) error {
	current, err := s.store.Action(a.ID)
	if err != nil {
		return err
	}
	if current.Processed {
		return Businessf("corporate action %d is processed and cannot be updated", a.ID)
	}
	if err := validateActionFields(a); err != nil {
		return err
	}
	return s.store.UpdateAction(a)
}

// DeleteAction removes an unprocessed corporate action. A processed action
// is never deleted.
func (s *System) DeleteAction(id int64) error {
	current, err := s.store.Action(id)
	if err != nil {
		return err
	}
	if current.Processed {
		return Businessf("corporate action %d is processed and cannot be deleted", id)
	}
	return s.store.DeleteAction(id)
}

// ActionSummary aggregates corporate actions by type and state.
type ActionSummary struct {
	Total               int
	ByType              map[ActionType]int
	ProcessedByType     map[ActionType]int
	PendingByInstrument map[int64]int
}

// SummaryReport counts corporate actions by type, processed state, and
// pending actions grouped by instrument.
func (s *System) SummaryReport() (*ActionSummary, error) {
	actions, err := s.store.Actions(ActionFilter{})
	if err != nil {
		return nil, err
	}
	summary := &ActionSummary{
		ByType:              make(map[ActionType]int),
		ProcessedByType:     make(map[ActionType]int),
		PendingByInstrument: make(map[int64]int),
	}
	for _, a := range actions {
		summary.Total++
		summary.ByType[a.Type]++
		if a.Processed {
			summary.ProcessedByType[a.Type]++
		} else {
			summary.PendingByInstrument[a.InstrumentID]++
		}
	}
	return summary, nil
}
