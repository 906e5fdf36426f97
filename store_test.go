package ledger

import (
	"database/sql"
	"testing"
)

func TestStoreAccountRoundTrip(t *testing.T) {
	b := setupBrokerage(t)
	store := b.sys.Store()

	got, err := store.Account(b.cash.ID)
	if err != nil {
		t.Fatalf("Account() failed: %v", err)
	}
	if got.Name != "Cash" || got.Type != Asset || got.Currency != "USD" {
		t.Errorf("Account() = %+v", got)
	}

	byName, err := store.AccountByName("Cash")
	if err != nil {
		t.Fatalf("AccountByName() failed: %v", err)
	}
	if byName.ID != b.cash.ID {
		t.Errorf("AccountByName() id = %d, want %d", byName.ID, b.cash.ID)
	}

	if _, err := store.Account(999); !IsNotFound(err) {
		t.Errorf("unknown account error = %v, want not found", err)
	}

	// Account names are unique.
	dup := &Account{Name: "Cash", Type: Asset, Currency: "USD"}
	if err := store.CreateAccount(dup); err == nil {
		t.Error("duplicate account name was accepted")
	}
}

func TestStoreInstrumentUniqueSymbol(t *testing.T) {
	b := setupBrokerage(t)

	dup := &Instrument{Symbol: "AAPL", Name: "dup", Type: EquityInstrument, Currency: "USD"}
	if err := b.sys.Store().CreateInstrument(dup); err == nil {
		t.Error("duplicate symbol was accepted")
	}
	if _, err := b.sys.Store().InstrumentBySymbol("UNKNOWN"); !IsNotFound(err) {
		t.Errorf("unknown symbol error = %v, want not found", err)
	}
}

func TestPostRechecksBalanceAtBoundary(t *testing.T) {
	b := setupBrokerage(t)
	store := b.sys.Store()

	// Insert an unbalanced draft below the service layer: the storage
	// boundary must still refuse to post it.
	unbalanced := &Transaction{
		Date: NewDate(2025, 2, 1), Type: Fee,
		Lines: []Line{
			{AccountID: b.fees.ID, Amount: USD(100), Side: Debit},
			{AccountID: b.cash.ID, Amount: USD(99), Side: Credit},
		},
	}
	err := store.withTx(func(tx *sql.Tx) error {
		return store.insertTransaction(tx, unbalanced)
	})
	if err != nil {
		t.Fatalf("insertTransaction() failed: %v", err)
	}

	if err := store.PostTransaction(unbalanced.ID); !IsBusiness(err) {
		t.Fatalf("posting an unbalanced transaction error = %v, want a business error", err)
	}
	got, err := store.Transaction(unbalanced.ID)
	if err != nil {
		t.Fatalf("Transaction() failed: %v", err)
	}
	if got.Posted {
		t.Error("unbalanced transaction was posted anyway")
	}
}

func TestPostBalanceToleratesSubMicroResidue(t *testing.T) {
	b := setupBrokerage(t)
	store := b.sys.Store()

	// A residue beyond 6 decimal places is rounded away at the boundary.
	exact := &Transaction{
		Date: NewDate(2025, 2, 1), Type: Fee,
		Lines: []Line{
			{AccountID: b.fees.ID, Amount: M(10.0000000004, "USD"), Side: Debit},
			{AccountID: b.cash.ID, Amount: USD(10), Side: Credit},
		},
	}
	err := store.withTx(func(tx *sql.Tx) error {
		return store.insertTransaction(tx, exact)
	})
	if err != nil {
		t.Fatalf("insertTransaction() failed: %v", err)
	}
	if err := store.PostTransaction(exact.ID); err != nil {
		t.Errorf("sub-micro residue was not tolerated at the boundary: %v", err)
	}
}

func TestLotClosedQuantityGuards(t *testing.T) {
	b := setupBrokerage(t)
	store := b.sys.Store()

	lot, err := b.sys.OpenLot(b.aapl.ID, b.holdings.ID, Q(10), USD(1000), NewDate(2025, 1, 2))
	if err != nil {
		t.Fatalf("OpenLot() failed: %v", err)
	}

	// Closing more than opened is refused.
	err = store.withTx(func(tx *sql.Tx) error {
		return store.updateLotClosed(tx, lot.ID, Q(11))
	})
	if !IsBusiness(err) {
		t.Errorf("overclose error = %v, want a business error", err)
	}

	if err := store.withTx(func(tx *sql.Tx) error {
		return store.updateLotClosed(tx, lot.ID, Q(4))
	}); err != nil {
		t.Fatalf("closing 4 failed: %v", err)
	}

	// The closed quantity is monotonic.
	err = store.withTx(func(tx *sql.Tx) error {
		return store.updateLotClosed(tx, lot.ID, Q(3))
	})
	if !IsBusiness(err) {
		t.Errorf("decrease error = %v, want a business error", err)
	}

	// Closing everything flips the closed flag.
	if err := store.withTx(func(tx *sql.Tx) error {
		return store.updateLotClosed(tx, lot.ID, Q(10))
	}); err != nil {
		t.Fatalf("closing all failed: %v", err)
	}
	got, err := store.Lot(lot.ID)
	if err != nil {
		t.Fatalf("Lot() failed: %v", err)
	}
	if !got.Closed {
		t.Error("fully consumed lot is not flagged closed")
	}

	open, err := store.OpenLots(b.aapl.ID, b.holdings.ID)
	if err != nil {
		t.Fatalf("OpenLots() failed: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("closed lot still listed as open")
	}
}

func TestMarkActionProcessedIsGuarded(t *testing.T) {
	b := setupBrokerage(t)
	store := b.sys.Store()

	a, err := b.sys.CreateAction(b.aapl.ID, Merger, NewDate(2025, 9, 1), Q(0), Money{}, "", false)
	if err != nil {
		t.Fatalf("CreateAction() failed: %v", err)
	}

	if err := store.withTx(func(tx *sql.Tx) error {
		return store.markActionProcessed(tx, a.ID)
	}); err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	err = store.withTx(func(tx *sql.Tx) error {
		return store.markActionProcessed(tx, a.ID)
	})
	if !IsBusiness(err) {
		t.Errorf("second mark error = %v, want a business error", err)
	}
}

func TestActionFilter(t *testing.T) {
	b := setupBrokerage(t)
	msft := newInstrument(t, b.sys, "MSFT")

	if _, err := b.sys.CreateAction(b.aapl.ID, Split, NewDate(2025, 6, 10), Q(2), Money{}, "", false); err != nil {
		t.Fatalf("CreateAction() failed: %v", err)
	}
	if _, err := b.sys.CreateAction(msft.ID, CashDividend, NewDate(2025, 8, 10), Q(0), USD(0.75), "", false); err != nil {
		t.Fatalf("CreateAction() failed: %v", err)
	}

	byInstrument, err := b.sys.Actions(ActionFilter{InstrumentID: msft.ID})
	if err != nil {
		t.Fatalf("Actions() failed: %v", err)
	}
	if len(byInstrument) != 1 || byInstrument[0].Type != CashDividend {
		t.Errorf("filter by instrument = %+v, want the msft dividend", byInstrument)
	}

	until, err := b.sys.Actions(ActionFilter{Until: NewDate(2025, 7, 1)})
	if err != nil {
		t.Fatalf("Actions() failed: %v", err)
	}
	if len(until) != 1 || until[0].Type != Split {
		t.Errorf("filter by date = %+v, want only the june split", until)
	}

	typ := Split
	byType, err := b.sys.Actions(ActionFilter{Type: &typ})
	if err != nil {
		t.Fatalf("Actions() failed: %v", err)
	}
	if len(byType) != 1 || byType[0].InstrumentID != b.aapl.ID {
		t.Errorf("filter by type = %+v, want the aapl split", byType)
	}
}

func TestTransactionRoundTripPreservesDecimals(t *testing.T) {
	b := setupBrokerage(t)

	lines := []LineInput{
		{AccountID: b.fees.ID, Amount: USD(0.015), Side: Debit},
		{AccountID: b.cash.ID, Amount: USD(0.015), Side: Credit},
	}
	tx, err := b.sys.CreateTransaction(Fee, NewDate(2025, 2, 1), lines, "", true)
	if err != nil {
		t.Fatalf("CreateTransaction() failed: %v", err)
	}

	got, err := b.sys.Transaction(tx.ID)
	if err != nil {
		t.Fatalf("Transaction() failed: %v", err)
	}
	if !got.Lines[0].Amount.Equal(USD(0.015)) {
		t.Errorf("amount read back = %v, want exactly 0.015", got.Lines[0].Amount)
	}
	if got.Lines[0].Amount.Currency() != "USD" {
		t.Errorf("currency read back = %q, want USD", got.Lines[0].Amount.Currency())
	}
}
