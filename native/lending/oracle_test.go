package lending

import (
	"math/big"
	"testing"
	"time"
)

func TestManualFeedLatestPrice(t *testing.T) {
	feed := NewManualFeed(nil, 8)
	if _, err := feed.LatestPrice(); err != ErrNoPrice {
		t.Fatalf("empty feed must report ErrNoPrice, got %v", err)
	}

	feed.SetPrice(big.NewInt(100_000_000), 8)
	quote, err := feed.LatestPrice()
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if quote.Value.Cmp(big.NewInt(100_000_000)) != 0 || quote.Decimals != 8 {
		t.Fatalf("unexpected quote: %+v", quote)
	}

	// Mutating the returned value must not leak into the feed.
	quote.Value.SetInt64(1)
	again, _ := feed.LatestPrice()
	if again.Value.Cmp(big.NewInt(100_000_000)) != 0 {
		t.Fatal("feed quote must be copied on read")
	}
}

func TestFreshOracleAgeBound(t *testing.T) {
	feed := NewManualFeed(big.NewInt(100_000_000), 8)
	oracle := NewFreshOracle(feed, time.Minute)

	if _, err := oracle.LatestPrice(); err != nil {
		t.Fatalf("fresh quote should pass: %v", err)
	}

	oracle.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := oracle.LatestPrice(); err != ErrStalePrice {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}
}

func TestFreshOracleDisabledBound(t *testing.T) {
	feed := NewManualFeed(big.NewInt(100_000_000), 8)
	oracle := NewFreshOracle(feed, 0)
	oracle.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	if _, err := oracle.LatestPrice(); err != nil {
		t.Fatalf("zero max age disables the staleness check: %v", err)
	}
}
