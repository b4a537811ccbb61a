// Package fx converts transaction amounts into a book base currency using
// point-in-time exchange rates.
package fx

import (
	"context"
	"fmt"
	"sort"
	"time"

	"conti/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateQuery selects the candidate pool for one conversion pass: every rate
// effective strictly before Before whose pair is Currency->Base or
// Base->Currency for any of Currencies.
type RateQuery struct {
	Base       string
	Currencies []string
	Before     time.Time
}

// RateSource loads exchange rates matching a RateQuery.
type RateSource interface {
	ListRatesForConversion(ctx context.Context, q RateQuery) ([]core.ExchangeRate, error)
}

// Converted is a transaction amount expressed in the base currency.
type Converted struct {
	TransactionID uuid.UUID
	Type          core.TransactionType
	BaseAmount    decimal.Decimal
}

// Result holds the conversions that succeeded and a diagnostic for every
// transaction that could not be converted. Callers must check Missing
// before trusting Converted.
type Result struct {
	Converted []Converted
	Missing   []string
}

// Complete reports whether every transaction was converted.
func (r *Result) Complete() bool {
	return len(r.Missing) == 0
}

// Err returns a *core.ConversionGapError when diagnostics exist.
func (r *Result) Err() error {
	if r.Complete() {
		return nil
	}
	return &core.ConversionGapError{Missing: append([]string(nil), r.Missing...)}
}

// ByID indexes converted amounts by transaction id.
func (r *Result) ByID() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(r.Converted))
	for _, c := range r.Converted {
		out[c.TransactionID] = c.BaseAmount
	}
	return out
}

type Converter struct {
	rates RateSource
}

func NewConverter(rates RateSource) *Converter {
	return &Converter{rates: rates}
}

// Convert expresses every transaction in base. Rates are loaded once per
// call and only when some transaction is not already in base. The returned
// error covers rate loading only; missing rates are reported in Result.
func (c *Converter) Convert(ctx context.Context, base string, cutoff time.Time, txs []core.Transaction) (*Result, error) {
	base = core.NormalizeCurrency(base)
	used := UsedCurrencies(base, txs)

	var pool []core.ExchangeRate
	if len(used) > 0 {
		var err error
		pool, err = c.rates.ListRatesForConversion(ctx, RateQuery{Base: base, Currencies: used, Before: cutoff})
		if err != nil {
			return nil, fmt.Errorf("load exchange rates: %w", err)
		}
	}

	return ConvertWith(base, NewRateBook(candidates(base, used, cutoff, pool)), txs), nil
}

// ConvertWith converts txs against an already loaded rate book. Each
// transaction is resolved independently of the others in the batch.
func ConvertWith(base string, book *RateBook, txs []core.Transaction) *Result {
	base = core.NormalizeCurrency(base)
	res := &Result{Converted: make([]Converted, 0, len(txs))}

	for _, tx := range txs {
		currency := core.NormalizeCurrency(tx.Currency)
		if currency == base {
			res.Converted = append(res.Converted, Converted{tx.ID, tx.Type, tx.Amount})
			continue
		}

		if r, ok := book.Latest(currency, base, tx.Date, false); ok {
			res.Converted = append(res.Converted, Converted{tx.ID, tx.Type, tx.Amount.Mul(r.Rate)})
			continue
		}

		if r, ok := book.Latest(base, currency, tx.Date, true); ok {
			res.Converted = append(res.Converted, Converted{tx.ID, tx.Type, tx.Amount.Div(r.Rate)})
			continue
		}

		res.Missing = append(res.Missing, MissingRate(currency, base, tx.Date))
	}
	return res
}

// MissingRate formats the diagnostic for an unconvertible transaction.
func MissingRate(currency, base string, date time.Time) string {
	return fmt.Sprintf("%s->%s on or before %s", currency, base, core.Day(date).Format("2006-01-02"))
}

// UsedCurrencies returns the distinct non-base currencies of txs, sorted.
func UsedCurrencies(base string, txs []core.Transaction) []string {
	base = core.NormalizeCurrency(base)
	seen := make(map[string]struct{})
	for _, tx := range txs {
		c := core.NormalizeCurrency(tx.Currency)
		if c != base {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// candidates re-applies the pool filter to whatever the source returned.
func candidates(base string, used []string, cutoff time.Time, rates []core.ExchangeRate) []core.ExchangeRate {
	wanted := make(map[string]bool, len(used))
	for _, c := range used {
		wanted[c] = true
	}
	out := make([]core.ExchangeRate, 0, len(rates))
	for _, r := range rates {
		if !r.EffectiveDate.Before(cutoff) {
			continue
		}
		b, q := core.NormalizeCurrency(r.Base), core.NormalizeCurrency(r.Quote)
		if (wanted[b] && q == base) || (b == base && wanted[q]) {
			out = append(out, r)
		}
	}
	return out
}
