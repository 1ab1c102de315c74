package lending

import (
	"math/big"
	"testing"
)

func TestInterestModelValidation(t *testing.T) {
	if _, err := NewInterestModel(2, 5, 5, 80, 100); err != errSlopeOrder {
		t.Fatalf("equal slopes must be rejected, got %v", err)
	}
	if _, err := NewInterestModel(2, 5, 4, 80, 100); err != errSlopeOrder {
		t.Fatalf("inverted slopes must be rejected, got %v", err)
	}
	if _, err := NewInterestModel(2, 4, 75, 0, 100); err != errOptimalRange {
		t.Fatalf("zero optimal must be rejected, got %v", err)
	}
	if _, err := NewInterestModel(2, 4, 75, 101, 100); err != errOptimalRange {
		t.Fatalf("optimal above 100 must be rejected, got %v", err)
	}
	if _, err := NewInterestModel(2, 4, 75, 80, 0); err != errZeroDivisor {
		t.Fatalf("zero precision must be rejected, got %v", err)
	}
}

func TestInterestRateEndpoints(t *testing.T) {
	model := DefaultInterestModel()

	if got := model.Rate(0); got != model.BaseRate() {
		t.Fatalf("rate at zero utilization must equal base rate, got %d", got)
	}
	// base + slope1*optimal/precision + slope2*(100-optimal)/precision.
	want := uint64(2) + 4*80/100 + 75*20/100
	if got := model.Rate(100); got != want {
		t.Fatalf("rate at full utilization: got %d want %d", got, want)
	}
}

func TestInterestRateBoundsAndMonotonicity(t *testing.T) {
	model := DefaultInterestModel()
	ceiling := model.BaseRate() + 4 + 75

	prev := uint64(0)
	for u := uint64(0); u <= 100; u++ {
		rate := model.Rate(u)
		if rate < model.BaseRate() {
			t.Fatalf("rate %d at u=%d below base", rate, u)
		}
		if rate > ceiling {
			t.Fatalf("rate %d at u=%d above ceiling %d", rate, u, ceiling)
		}
		if u > 0 && rate < prev {
			t.Fatalf("rate must be non-decreasing: u=%d rate=%d prev=%d", u, rate, prev)
		}
		prev = rate
	}
}

func TestInterestMarginalSlopeSteepensPastOptimal(t *testing.T) {
	model := DefaultInterestModel()

	below := model.Rate(80) - model.Rate(70)
	above := model.Rate(90) - model.Rate(80)
	if above <= below {
		t.Fatalf("marginal slope past the optimal point must be steeper: below=%d above=%d", below, above)
	}
}

func TestInterestRateUsesFloorDivision(t *testing.T) {
	model, err := NewInterestModel(0, 3, 10, 80, 100)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	// 33*3/100 = 0.99 truncates to 0, not rounds to 1.
	if got := model.Rate(33); got != 0 {
		t.Fatalf("expected truncation to 0, got %d", got)
	}
	if got := model.Rate(34); got != 1 {
		t.Fatalf("expected 34*3/100 to floor to 1, got %d", got)
	}
}

func TestUtilization(t *testing.T) {
	model := DefaultInterestModel()

	if got := model.Utilization(nil, big.NewInt(100)); got != 0 {
		t.Fatalf("nil borrow should be zero, got %d", got)
	}
	if got := model.Utilization(big.NewInt(50), nil); got != 0 {
		t.Fatalf("nil supply should be zero, got %d", got)
	}
	if got := model.Utilization(big.NewInt(0), big.NewInt(100)); got != 0 {
		t.Fatalf("empty pool should be zero, got %d", got)
	}
	if got := model.Utilization(big.NewInt(50), big.NewInt(100)); got != 50 {
		t.Fatalf("expected 50%% utilization, got %d", got)
	}
	if got := model.Utilization(big.NewInt(200), big.NewInt(100)); got != 100 {
		t.Fatalf("utilization must cap at 100, got %d", got)
	}
}
