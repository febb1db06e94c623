package journal

import (
	"trade-journal-go/internal/date"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/performance"
	"trade-journal-go/internal/risk"
	"trade-journal-go/internal/valuation"
)

// Statistics summarizes the trades entered in a period.
type Statistics struct {
	Period           date.Period `json:"period"`
	TotalTrades      int         `json:"totalTrades"`
	OpenTrades       int         `json:"openTrades"`
	ClosedTrades     int         `json:"closedTrades"`
	Wins             int         `json:"wins"`
	Losses           int         `json:"losses"`
	WinRate          float64     `json:"winRate"`
	TotalRealized    float64     `json:"totalRealized"`
	AverageWin       float64     `json:"averageWin"`
	AverageLoss      float64     `json:"averageLoss"`
	AverageRMultiple float64     `json:"averageRMultiple"`
	PortfolioValue   float64     `json:"portfolioValue"`
}

// Statistics computes win rate and realized totals. Open trades contribute
// their partial exits to TotalRealized but are not counted as wins or losses.
func (s *Service) Statistics(period date.Period) Statistics {
	all := s.ledger.Trades()
	today := date.FromTime(s.now())

	st := Statistics{
		Period:         period,
		PortfolioValue: valuation.CurrentPortfolioValue(all, s.Settings()),
	}
	var inPeriod []models.Trade
	var winSum, lossSum, rSum float64
	var rCount int
	for i := range all {
		t := &all[i]
		if !performance.InPeriod(t, period, today) {
			continue
		}
		inPeriod = append(inPeriod, *t)
		st.TotalTrades++
		if t.IsActive {
			st.OpenTrades++
			continue
		}
		st.ClosedTrades++

		var net float64
		for _, leg := range valuation.Legs(t) {
			net += leg.Net()
		}
		switch {
		case net > 0:
			st.Wins++
			winSum += net
		case net < 0:
			st.Losses++
			lossSum += net
		}
		if valuation.RiskedAmount(t) > 0 {
			rSum += valuation.RMultiple(t)
			rCount++
		}
	}
	st.TotalRealized = valuation.RealizedProfit(inPeriod)

	if st.ClosedTrades > 0 {
		st.WinRate = float64(st.Wins) / float64(st.ClosedTrades) * 100
	}
	if st.Wins > 0 {
		st.AverageWin = winSum / float64(st.Wins)
	}
	if st.Losses > 0 {
		st.AverageLoss = lossSum / float64(st.Losses)
	}
	if rCount > 0 {
		st.AverageRMultiple = rSum / float64(rCount)
	}
	return st
}

// PositionSize sizes a position so that hitting the stop costs riskPct of the
// current portfolio value.
func (s *Service) PositionSize(in risk.Inputs, riskPct float64) float64 {
	return s.solver.PositionFromRisk(in, riskPct, s.CurrentPortfolioValue())
}

// PositionForDollarRisk sizes a position that loses exactly dollars at the stop.
func (s *Service) PositionForDollarRisk(in risk.Inputs, dollars float64) float64 {
	return s.solver.PositionFromDollarRisk(in, dollars)
}

// StopLoss places the stop so the position risks riskPct of the current
// portfolio value.
func (s *Service) StopLoss(in risk.Inputs, riskPct float64) float64 {
	return s.solver.StopLossFromRisk(in, riskPct, s.CurrentPortfolioValue())
}

// RiskPercent is the share of the current portfolio value the setup risks.
func (s *Service) RiskPercent(in risk.Inputs) float64 {
	return risk.RiskPercent(in, s.CurrentPortfolioValue())
}

// TradeRisk returns the risk inputs of a recorded trade at its remaining size.
func TradeRisk(t models.Trade) risk.Inputs {
	return risk.Inputs{
		Entry:        t.EntryPrice,
		Stop:         t.StopLoss,
		Quantity:     t.Remaining(),
		QuantityType: t.QuantityType,
		Short:        valuation.IsShort(&t),
		Fee:          t.Fees,
		FeeType:      t.FeesType,
	}
}
