package fx

import (
	"sort"
	"time"

	"conti/internal/core"
)

type pair struct {
	from, to string
}

// RateBook indexes exchange rates by currency pair into buckets sorted by
// effective timestamp, for point-in-time lookups.
type RateBook struct {
	buckets map[pair][]core.ExchangeRate
}

// NewRateBook indexes rates. Rates sharing a pair and an identical effective
// timestamp keep their input order; the later one wins a lookup.
func NewRateBook(rates []core.ExchangeRate) *RateBook {
	rb := &RateBook{buckets: make(map[pair][]core.ExchangeRate)}
	for _, r := range rates {
		k := pair{core.NormalizeCurrency(r.Base), core.NormalizeCurrency(r.Quote)}
		rb.buckets[k] = append(rb.buckets[k], r)
	}
	for _, bucket := range rb.buckets {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].EffectiveDate.Before(bucket[j].EffectiveDate)
		})
	}
	return rb
}

// Len returns the number of indexed rates.
func (rb *RateBook) Len() int {
	n := 0
	for _, b := range rb.buckets {
		n += len(b)
	}
	return n
}

// Latest returns the from->to rate with the latest effective timestamp whose
// calendar day is on or before day's calendar day. With skipZero, zero-valued rates are passed over.
func (rb *RateBook) Latest(from, to string, day time.Time, skipZero bool) (core.ExchangeRate, bool) {
	bucket := rb.buckets[pair{from, to}]
	day = core.Day(day)
	// first index whose effective day is after day
	i := sort.Search(len(bucket), func(i int) bool {
		return core.Day(bucket[i].EffectiveDate).After(day)
	})
	for i--; i >= 0; i-- {
		if skipZero && bucket[i].Rate.IsZero() {
			continue
		}
		return bucket[i], true
	}
	return core.ExchangeRate{}, false
}
