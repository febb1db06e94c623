package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"trade-journal-go/internal/models"
)

func newTestSolver() *Solver { return NewSolver(zap.NewNop()) }

func TestPositionFromRisk(t *testing.T) {
	s := newTestSolver()
	base := Inputs{Entry: 100, Stop: 90, QuantityType: models.QuantityCoins, FeeType: models.FeePercentage}

	t.Run("NoFee", func(t *testing.T) {
		assert.InDelta(t, 20.0, s.PositionFromRisk(base, 2, 10000), 1e-9)
	})

	t.Run("PercentageFeeShrinksPosition", func(t *testing.T) {
		in := base
		in.Fee = 1
		got := s.PositionFromRisk(in, 2, 10000)
		assert.Less(t, got, 20.0)
		assert.InDelta(t, 200.0/11.0, got, 1e-9)
	})

	t.Run("DollarDenominated", func(t *testing.T) {
		in := base
		in.QuantityType = models.QuantityDollars
		// $200 risk over a 10% stop is a $2000 position
		assert.InDelta(t, 2000.0, s.PositionFromRisk(in, 2, 10000), 1e-9)
	})

	t.Run("FixedFee", func(t *testing.T) {
		in := base
		in.FeeType = models.FeeFixed
		in.Fee = 20
		assert.InDelta(t, 18.0, s.PositionFromRisk(in, 2, 10000), 1e-9)

		in.Fee = 500 // larger than the whole budget
		assert.Equal(t, 0.0, s.PositionFromRisk(in, 2, 10000))
	})

	t.Run("Short", func(t *testing.T) {
		in := Inputs{Entry: 100, Stop: 105, Short: true, QuantityType: models.QuantityCoins}
		assert.InDelta(t, 40.0, s.PositionFromRisk(in, 2, 10000), 1e-9)
	})
}

func TestPositionFromRisk_Rejections(t *testing.T) {
	s := newTestSolver()

	testCases := []struct {
		name           string
		in             Inputs
		portfolioValue float64
	}{
		{"stop equals entry", Inputs{Entry: 100, Stop: 100}, 10000},
		{"zero portfolio", Inputs{Entry: 100, Stop: 90}, 0},
		{"negative portfolio", Inputs{Entry: 100, Stop: 90}, -5},
		{"zero entry", Inputs{Entry: 0, Stop: -1}, 10000},
		{"long stop above entry", Inputs{Entry: 100, Stop: 110}, 10000},
		{"short stop below entry", Inputs{Entry: 100, Stop: 90, Short: true}, 10000},
		{"non-positive denominator", Inputs{Entry: 100, Stop: 90, Fee: -20, FeeType: models.FeePercentage}, 10000},
		{"non-positive dollar denominator", Inputs{Entry: 100, Stop: 90, Fee: -10, QuantityType: models.QuantityDollars}, 10000},
		{"negative risk", Inputs{Entry: 100, Stop: 90}, 10000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			riskPct := 2.0
			if tc.name == "negative risk" {
				riskPct = -2
			}
			assert.Equal(t, 0.0, s.PositionFromRisk(tc.in, riskPct, tc.portfolioValue))
		})
	}
}

func TestPositionFromRisk_InvertsForwardModel(t *testing.T) {
	s := newTestSolver()

	for _, feeType := range []models.FeeType{models.FeePercentage, models.FeeFixed} {
		for _, qtyType := range []models.QuantityType{models.QuantityCoins, models.QuantityDollars} {
			for _, short := range []bool{false, true} {
				in := Inputs{Entry: 250, Stop: 237.5, QuantityType: qtyType, FeeType: feeType, Fee: 0.1, Short: short}
				if short {
					in.Stop = 262.5
				}
				if feeType == models.FeeFixed {
					in.Fee = 3
				}

				size := s.PositionFromRisk(in, 1.5, 20000)
				assert.Greater(t, size, 0.0)

				in.Quantity = size
				assert.InDelta(t, 1.5, RiskPercent(in, 20000), 1e-9,
					"fee=%s qty=%s short=%v", feeType, qtyType, short)
			}
		}
	}
}

func TestPositionFromDollarRisk_MatchesPercentage(t *testing.T) {
	s := newTestSolver()
	in := Inputs{Entry: 42, Stop: 40, QuantityType: models.QuantityDollars, Fee: 0.2, FeeType: models.FeePercentage}

	assert.InDelta(t, s.PositionFromRisk(in, 1, 30000), s.PositionFromDollarRisk(in, 300), 1e-9)
	assert.Equal(t, 0.0, s.PositionFromDollarRisk(Inputs{Entry: 42, Stop: 42}, 300))
}

func TestStopLossFromRisk(t *testing.T) {
	s := newTestSolver()

	t.Run("Long", func(t *testing.T) {
		in := Inputs{Entry: 100, Quantity: 20, QuantityType: models.QuantityCoins}
		assert.InDelta(t, 90.0, s.StopLossFromRisk(in, 2, 10000), 1e-9)
	})

	t.Run("Short", func(t *testing.T) {
		in := Inputs{Entry: 100, Quantity: 20, Short: true, QuantityType: models.QuantityCoins}
		assert.InDelta(t, 110.0, s.StopLossFromRisk(in, 2, 10000), 1e-9)
	})

	t.Run("PercentageFeeTightensStop", func(t *testing.T) {
		in := Inputs{Entry: 100, Quantity: 20, QuantityType: models.QuantityCoins, Fee: 1, FeeType: models.FeePercentage}
		// fee is 20 of the 200 budget, 180 left over 20 coins
		got := s.StopLossFromRisk(in, 2, 10000)
		assert.InDelta(t, 91.0, got, 1e-9)

		in.Stop = got
		assert.InDelta(t, 2.0, RiskPercent(in, 10000), 1e-9)
	})

	t.Run("FixedFeeDollars", func(t *testing.T) {
		in := Inputs{Entry: 50, Quantity: 1000, QuantityType: models.QuantityDollars, Fee: 10, FeeType: models.FeeFixed}
		// 20 coins, 90 left of the 100 budget
		assert.InDelta(t, 45.5, s.StopLossFromRisk(in, 1, 10000), 1e-9)
	})

	t.Run("DistanceCappedAtHalfEntry", func(t *testing.T) {
		in := Inputs{Entry: 100, Quantity: 1, QuantityType: models.QuantityCoins}
		assert.InDelta(t, 50.0, s.StopLossFromRisk(in, 50, 10000), 1e-9)

		in.Short = true
		assert.InDelta(t, 150.0, s.StopLossFromRisk(in, 50, 10000), 1e-9)
	})

	t.Run("MinimumGapFromEntry", func(t *testing.T) {
		in := Inputs{Entry: 100, Quantity: 1000, QuantityType: models.QuantityCoins}
		assert.InDelta(t, 99.0, s.StopLossFromRisk(in, 0.01, 10000), 1e-9)

		in.Short = true
		assert.InDelta(t, 101.0, s.StopLossFromRisk(in, 0.01, 10000), 1e-9)
	})
}

func TestStopLossFromRisk_DefaultsOnInvalidInput(t *testing.T) {
	s := newTestSolver()

	testCases := []struct {
		name           string
		in             Inputs
		riskPct        float64
		portfolioValue float64
		want           float64
	}{
		{"zero quantity", Inputs{Entry: 100}, 2, 10000, 90},
		{"zero risk", Inputs{Entry: 100, Quantity: 5}, 0, 10000, 90},
		{"zero portfolio", Inputs{Entry: 100, Quantity: 5}, 2, 0, 90},
		{"short default", Inputs{Entry: 100, Quantity: 5, Short: true}, 2, 0, 110},
		{"fee eats budget", Inputs{Entry: 100, Quantity: 5, Fee: 500, FeeType: models.FeeFixed}, 2, 10000, 90},
		{"zero entry", Inputs{Entry: 0, Quantity: 5}, 2, 10000, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, s.StopLossFromRisk(tc.in, tc.riskPct, tc.portfolioValue), 1e-9)
		})
	}
}

func TestSolve_UnsupportedUnknown(t *testing.T) {
	assert.Equal(t, 0.0, newTestSolver().Solve(Unknown(99), Inputs{Entry: 1, Stop: 0.5}, 10))
	assert.Equal(t, "unknown", Unknown(99).String())
}

func TestRiskPercent_Guards(t *testing.T) {
	assert.Equal(t, 0.0, RiskPercent(Inputs{Entry: 100, Stop: 90, Quantity: 1}, 0))
	assert.InDelta(t, 0.1, RiskPercent(Inputs{Entry: 100, Stop: 90, Quantity: 1}, 10000), 1e-12)
}
