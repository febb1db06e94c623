// Package risk sizes positions and stops from a risk budget.
//
// Every calculator here inverts the same forward model:
//
//	risk$ = |entry - stop| * coinQty + fee
//	risk% = risk$ / portfolioValue * 100
//
// Invalid input never produces an error. Position sizing answers 0 and stop
// sizing answers a stop 10% away from entry on the safe side; callers treat
// those sentinels as "not computable".
package risk

import (
	"math"

	"go.uber.org/zap"

	"trade-journal-go/internal/models"
)

// Unknown names the variable the solver is asked for.
type Unknown int

const (
	PositionSize Unknown = iota
	StopPrice
)

func (u Unknown) String() string {
	switch u {
	case PositionSize:
		return "position_size"
	case StopPrice:
		return "stop_price"
	default:
		return "unknown"
	}
}

const (
	maxStopDistance = 0.5  // fraction of entry
	minStopGap      = 0.01 // a solved stop sits at least 1% away from entry
	defaultStopGap  = 0.10
	stopFloor       = 1e-8
)

// Inputs are the known quantities of a setup. Stop is ignored when solving for
// StopPrice, Quantity when solving for PositionSize.
type Inputs struct {
	Entry        float64
	Stop         float64
	Quantity     float64
	QuantityType models.QuantityType
	Short        bool
	Fee          float64
	FeeType      models.FeeType
}

// Solver solves the risk equation for one unknown.
type Solver struct {
	logger *zap.Logger
}

// NewSolver returns a Solver logging its rejected inputs to logger.
func NewSolver(logger *zap.Logger) *Solver {
	return &Solver{logger: logger.Named("risk")}
}

// Solve returns the value of the unknown that makes the setup risk exactly
// riskDollars, fee included.
func (s *Solver) Solve(u Unknown, in Inputs, riskDollars float64) float64 {
	switch u {
	case PositionSize:
		return s.positionSize(in, riskDollars)
	case StopPrice:
		return s.stopPrice(in, riskDollars)
	default:
		s.logger.Warn("Unsupported unknown", zap.Stringer("unknown", u))
		return 0
	}
}

// PositionFromRisk sizes a position so that hitting the stop loses riskPct
// percent of portfolioValue.
func (s *Solver) PositionFromRisk(in Inputs, riskPct, portfolioValue float64) float64 {
	if portfolioValue <= 0 {
		s.reject(PositionSize, "non-positive portfolio value", in)
		return 0
	}
	return s.Solve(PositionSize, in, portfolioValue*riskPct/100)
}

// PositionFromDollarRisk sizes a position so that hitting the stop loses dollarRisk.
func (s *Solver) PositionFromDollarRisk(in Inputs, dollarRisk float64) float64 {
	return s.Solve(PositionSize, in, dollarRisk)
}

// StopLossFromRisk places the stop so that in.Quantity loses riskPct percent
// of portfolioValue when it is hit.
func (s *Solver) StopLossFromRisk(in Inputs, riskPct, portfolioValue float64) float64 {
	if portfolioValue <= 0 || riskPct <= 0 {
		s.reject(StopPrice, "non-positive risk budget", in)
		return DefaultStop(in)
	}
	return s.Solve(StopPrice, in, portfolioValue*riskPct/100)
}

func (s *Solver) positionSize(in Inputs, riskDollars float64) float64 {
	switch {
	case in.Entry <= 0:
		s.reject(PositionSize, "non-positive entry", in)
		return 0
	case in.Entry == in.Stop:
		s.reject(PositionSize, "stop equals entry", in)
		return 0
	case !in.Short && in.Stop > in.Entry, in.Short && in.Stop < in.Entry:
		s.reject(PositionSize, "stop on the wrong side of entry", in)
		return 0
	}

	distance := math.Abs(in.Entry - in.Stop)
	dollars := in.QuantityType == models.QuantityDollars

	var size float64
	if in.FeeType == models.FeeFixed {
		budget := math.Max(0, riskDollars-in.Fee)
		if dollars {
			size = budget * in.Entry / distance
		} else {
			size = budget / distance
		}
	} else {
		var denominator float64
		if dollars {
			denominator = distance/in.Entry + in.Fee/100
		} else {
			denominator = distance + in.Entry*in.Fee/100
		}
		if denominator <= 0 {
			s.reject(PositionSize, "non-positive denominator", in)
			return 0
		}
		size = riskDollars / denominator
	}
	return math.Max(size, 0)
}

func (s *Solver) stopPrice(in Inputs, riskDollars float64) float64 {
	if in.Entry <= 0 || in.Quantity <= 0 || riskDollars <= 0 {
		s.reject(StopPrice, "non-positive input", in)
		return DefaultStop(in)
	}

	budget := riskDollars - feeAmount(in, in.Quantity)
	coins := coinQuantity(in, in.Quantity)
	if budget <= 0 || coins <= 0 {
		s.reject(StopPrice, "fee consumes the risk budget", in)
		return DefaultStop(in)
	}

	distance := math.Min(budget/coins, in.Entry*maxStopDistance)
	if in.Short {
		return math.Max(in.Entry+distance, in.Entry*(1+minStopGap))
	}
	stop := math.Max(in.Entry-distance, stopFloor)
	return math.Min(stop, in.Entry*(1-minStopGap))
}

func (s *Solver) reject(u Unknown, reason string, in Inputs) {
	s.logger.Debug("Risk input not computable",
		zap.Stringer("unknown", u),
		zap.String("reason", reason),
		zap.Float64("entry", in.Entry),
		zap.Float64("stop", in.Stop),
		zap.Float64("quantity", in.Quantity),
		zap.Bool("short", in.Short),
	)
}

// DefaultStop is the stop answered when no stop can be solved: 10% from entry
// on the losing side of the position.
func DefaultStop(in Inputs) float64 {
	if in.Short {
		return in.Entry * (1 + defaultStopGap)
	}
	return in.Entry * (1 - defaultStopGap)
}

// RiskDollars is the forward model: what the setup loses at its stop, fee included.
func RiskDollars(in Inputs) float64 {
	return math.Abs(in.Entry-in.Stop)*coinQuantity(in, in.Quantity) + feeAmount(in, in.Quantity)
}

// RiskPercent expresses RiskDollars as a percentage of portfolioValue, 0 when
// the portfolio value is not positive.
func RiskPercent(in Inputs, portfolioValue float64) float64 {
	if portfolioValue <= 0 {
		return 0
	}
	return RiskDollars(in) / portfolioValue * 100
}

func coinQuantity(in Inputs, qty float64) float64 {
	if in.QuantityType != models.QuantityDollars {
		return qty
	}
	if in.Entry <= 0 {
		return 0
	}
	return qty / in.Entry
}

func feeAmount(in Inputs, qty float64) float64 {
	if in.FeeType == models.FeeFixed {
		return in.Fee
	}
	notional := qty * in.Entry
	if in.QuantityType == models.QuantityDollars {
		notional = qty
	}
	return notional * in.Fee / 100
}
