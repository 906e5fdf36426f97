package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
)

// SetPrice stores the closing price of an instrument on a date, replacing a
// previously stored close for that day.
func (s *System) SetPrice(instrumentID int64, on Date, close Money) error {
	if on.IsZero() {
		return Validationf("price date is required")
	}
	if !close.IsPositive() {
		return Validationf("closing price must be strictly positive, got %s", close.Text())
	}
	return s.store.SetPrice(instrumentID, on, close)
}

// PriceAsOf returns the latest stored close at or before the given date.
func (s *System) PriceAsOf(instrumentID int64, on Date) (*Price, error) {
	return s.store.PriceAsOf(instrumentID, on)
}

// jwget fetches a JSON document and decodes it into v.
func jwget(client *http.Client, addr string, v any) error {
	resp, err := client.Get(addr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("GET %q: %s", addr, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// ImportPrices fetches a provider's end-of-day JSON payload, an array of
// objects each carrying a "date" and a "close", and stores every (date,
// close) pair as the instrument's daily close. It returns the number of
// closes stored.
func (s *System) ImportPrices(client *http.Client, addr string, instrumentID int64) (int, error) {
	instrument, err := s.store.Instrument(instrumentID)
	if err != nil {
		return 0, err
	}
	var jobj any
	if err := jwget(client, addr, &jobj); err != nil {
		return 0, fmt.Errorf("error fetching prices for %q: %w", instrument.Symbol, err)
	}
	return s.importPrices(jobj, instrument)
}

// importPrices extracts (date, close) pairs from a decoded provider payload
// and stores them.
func (s *System) importPrices(jobj any, instrument *Instrument) (int, error) {
	jdates, err := jsonpath.Get("$[*].date", jobj)
	if err != nil {
		return 0, fmt.Errorf("error parsing price payload for %q: %w", instrument.Symbol, err)
	}
	jcloses, err := jsonpath.Get("$[*].close", jobj)
	if err != nil {
		return 0, fmt.Errorf("error parsing price payload for %q: %w", instrument.Symbol, err)
	}
	dates, ok := jdates.([]any)
	if !ok {
		return 0, fmt.Errorf("price payload for %q: dates are not a list", instrument.Symbol)
	}
	closes, ok := jcloses.([]any)
	if !ok || len(closes) != len(dates) {
		return 0, fmt.Errorf("price payload for %q: %d dates but %d closes", instrument.Symbol, len(dates), len(closes))
	}

	stored := 0
	for i := range dates {
		dateStr, ok := dates[i].(string)
		if !ok {
			return stored, fmt.Errorf("price payload for %q: date %v is not a string", instrument.Symbol, dates[i])
		}
		on, err := ParseDate(dateStr)
		if err != nil {
			return stored, err
		}
		closeVal, ok := closes[i].(float64)
		if !ok {
			return stored, fmt.Errorf("price payload for %q: close %v is not a number", instrument.Symbol, closes[i])
		}
		if err := s.SetPrice(instrument.ID, on, M(closeVal, instrument.Currency)); err != nil {
			return stored, err
		}
		stored++
	}
	s.log.Info("imported prices", "instrument", instrument.Symbol, "count", stored)
	return stored, nil
}
