package ledger

import (
	"encoding/json"
	"testing"
)

func TestSetPriceValidation(t *testing.T) {
	b := setupBrokerage(t)

	if err := b.sys.SetPrice(b.aapl.ID, Date{}, USD(150)); !IsValidation(err) {
		t.Errorf("missing date error = %v, want a validation error", err)
	}
	if err := b.sys.SetPrice(b.aapl.ID, NewDate(2025, 6, 30), USD(0)); !IsValidation(err) {
		t.Errorf("zero price error = %v, want a validation error", err)
	}
	if err := b.sys.SetPrice(b.aapl.ID, NewDate(2025, 6, 30), USD(-1)); !IsValidation(err) {
		t.Errorf("negative price error = %v, want a validation error", err)
	}
}

func TestPriceAsOf(t *testing.T) {
	b := setupBrokerage(t)

	for _, p := range []struct {
		on    Date
		close float64
	}{
		{NewDate(2025, 6, 27), 148},
		{NewDate(2025, 6, 30), 150},
		{NewDate(2025, 7, 3), 152},
	} {
		if err := b.sys.SetPrice(b.aapl.ID, p.on, USD(p.close)); err != nil {
			t.Fatalf("SetPrice(%v) failed: %v", p.on, err)
		}
	}

	testCases := []struct {
		name      string
		on        Date
		wantClose Money
		wantDate  Date
	}{
		{"exact date", NewDate(2025, 6, 30), USD(150), NewDate(2025, 6, 30)},
		{"weekend falls back", NewDate(2025, 7, 1), USD(150), NewDate(2025, 6, 30)},
		{"latest", NewDate(2025, 12, 31), USD(152), NewDate(2025, 7, 3)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			price, err := b.sys.PriceAsOf(b.aapl.ID, tc.on)
			if err != nil {
				t.Fatalf("PriceAsOf() failed: %v", err)
			}
			if !price.Close.Equal(tc.wantClose) {
				t.Errorf("close = %v, want %v", price.Close, tc.wantClose)
			}
			if price.Date != tc.wantDate {
				t.Errorf("date = %v, want %v", price.Date, tc.wantDate)
			}
		})
	}

	if _, err := b.sys.PriceAsOf(b.aapl.ID, NewDate(2025, 1, 1)); !IsNotFound(err) {
		t.Errorf("no price yet error = %v, want not found", err)
	}
}

func TestSetPriceOverwritesSameDay(t *testing.T) {
	b := setupBrokerage(t)
	on := NewDate(2025, 6, 30)

	if err := b.sys.SetPrice(b.aapl.ID, on, USD(150)); err != nil {
		t.Fatalf("SetPrice() failed: %v", err)
	}
	if err := b.sys.SetPrice(b.aapl.ID, on, USD(151)); err != nil {
		t.Fatalf("SetPrice() overwrite failed: %v", err)
	}

	price, err := b.sys.PriceAsOf(b.aapl.ID, on)
	if err != nil {
		t.Fatalf("PriceAsOf() failed: %v", err)
	}
	if !price.Close.Equal(USD(151)) {
		t.Errorf("close = %v, want the overwritten 151.00", price.Close)
	}
}

func TestImportPricesPayload(t *testing.T) {
	b := setupBrokerage(t)
	instrument, err := b.sys.Store().Instrument(b.aapl.ID)
	if err != nil {
		t.Fatalf("Instrument() failed: %v", err)
	}

	payload := `[
		{"date": "2025-06-27", "close": 148.0, "volume": 1000},
		{"date": "2025-06-30", "close": 150.5}
	]`
	var jobj any
	if err := json.Unmarshal([]byte(payload), &jobj); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	n, err := b.sys.importPrices(jobj, instrument)
	if err != nil {
		t.Fatalf("importPrices() failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("stored %d prices, want 2", n)
	}

	price, err := b.sys.PriceAsOf(b.aapl.ID, NewDate(2025, 6, 30))
	if err != nil {
		t.Fatalf("PriceAsOf() failed: %v", err)
	}
	if !price.Close.Equal(USD(150.5)) {
		t.Errorf("close = %v, want 150.50", price.Close)
	}
}

func TestImportPricesBadPayload(t *testing.T) {
	b := setupBrokerage(t)
	instrument, err := b.sys.Store().Instrument(b.aapl.ID)
	if err != nil {
		t.Fatalf("Instrument() failed: %v", err)
	}

	for _, payload := range []string{
		`[{"date": "2025-06-27"}]`,
		`[{"date": "not a date", "close": 148.0}]`,
		`[{"date": "2025-06-27", "close": "148"}]`,
	} {
		var jobj any
		if err := json.Unmarshal([]byte(payload), &jobj); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if _, err := b.sys.importPrices(jobj, instrument); err == nil {
			t.Errorf("importPrices(%s) succeeded, want an error", payload)
		}
	}
}
