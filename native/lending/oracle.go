package lending

import (
	"errors"
	"math/big"
	"sync"
	"time"
)

// PriceQuote is an observation of the base asset's price. Value is expressed
// with Decimals fractional digits, matching the upstream feed's fixed-point
// convention.
type PriceQuote struct {
	Value     *big.Int
	Decimals  uint8
	Timestamp time.Time
}

// Clone returns a deep copy of the quote to prevent accidental mutations.
func (q PriceQuote) Clone() PriceQuote {
	clone := PriceQuote{Decimals: q.Decimals, Timestamp: q.Timestamp}
	if q.Value != nil {
		clone.Value = new(big.Int).Set(q.Value)
	}
	return clone
}

// PriceOracle resolves the most recent known price for the base asset. The
// engine queries it fresh on every health-factor computation; implementations
// must not require the caller to cache.
type PriceOracle interface {
	LatestPrice() (PriceQuote, error)
}

var (
	// ErrNoPrice indicates the oracle has no observation to serve.
	ErrNoPrice = errors.New("lending: no oracle price available")
	// ErrStalePrice indicates the freshest observation is older than the
	// configured bound.
	ErrStalePrice = errors.New("lending: oracle price too old")
)

// ManualFeed is a settable price source. Operators push observations into it;
// reads always return the latest pushed value.
type ManualFeed struct {
	mu    sync.RWMutex
	quote PriceQuote
}

// NewManualFeed seeds a feed with an initial observation. A nil value leaves
// the feed empty until the first SetPrice.
func NewManualFeed(value *big.Int, decimals uint8) *ManualFeed {
	feed := &ManualFeed{}
	if value != nil {
		feed.SetPrice(value, decimals)
	}
	return feed
}

// SetPrice records a new observation with the current wall-clock timestamp.
func (f *ManualFeed) SetPrice(value *big.Int, decimals uint8) {
	if f == nil || value == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quote = PriceQuote{
		Value:     new(big.Int).Set(value),
		Decimals:  decimals,
		Timestamp: time.Now(),
	}
}

// LatestPrice implements PriceOracle.
func (f *ManualFeed) LatestPrice() (PriceQuote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.quote.Value == nil {
		return PriceQuote{}, ErrNoPrice
	}
	return f.quote.Clone(), nil
}

// FreshOracle wraps another oracle with an optional max-age bound. The
// reference pool performs no staleness check at all, so a zero maxAge
// preserves that behavior while letting deployments opt in.
type FreshOracle struct {
	inner  PriceOracle
	maxAge time.Duration
	now    func() time.Time
}

// NewFreshOracle wraps inner with the supplied age bound. maxAge <= 0
// disables the check.
func NewFreshOracle(inner PriceOracle, maxAge time.Duration) *FreshOracle {
	return &FreshOracle{inner: inner, maxAge: maxAge, now: time.Now}
}

// LatestPrice implements PriceOracle.
func (o *FreshOracle) LatestPrice() (PriceQuote, error) {
	if o == nil || o.inner == nil {
		return PriceQuote{}, ErrNoPrice
	}
	quote, err := o.inner.LatestPrice()
	if err != nil {
		return PriceQuote{}, err
	}
	if o.maxAge > 0 && o.now().Sub(quote.Timestamp) > o.maxAge {
		return PriceQuote{}, ErrStalePrice
	}
	return quote, nil
}
