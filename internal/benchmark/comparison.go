// Package benchmark compares realized trading profit with a synthetic
// buy-and-hold benchmark growing a fixed 10% per month.
package benchmark

import (
	"math"
	"time"

	"trade-journal-go/internal/date"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/performance"
	"trade-journal-go/internal/valuation"
)

const (
	// MonthlyGrowth is the benchmark's compounding rate per month.
	MonthlyGrowth = 0.10
	minMonths     = 0.1
)

// Comparison is the outcome of Compare.
type Comparison struct {
	Period               date.Period `json:"period"`
	TradingProfit        float64     `json:"tradingProfit"`
	HoldingProfit        float64     `json:"holdingProfit"`
	Difference           float64     `json:"difference"`
	PercentageDifference float64     `json:"percentageDifference"`
	InitialBalance       float64     `json:"initialBalance"`
	CurrentBalance       float64     `json:"currentBalance"`
	StartBalance         float64     `json:"startBalance"`
	BaselineDate         date.Date   `json:"baselineDate"`
	ActualStartDate      date.Date   `json:"actualStartDate"`
	IsFullPeriod         bool        `json:"isFullPeriod"`
	MonthsPassed         float64     `json:"monthsPassed"`
}

// Compare measures what the trades entered in period realized against what
// the balance at the start of the period would have earned in the benchmark.
func Compare(trades []models.Trade, settings models.PortfolioSettings, period date.Period, now time.Time) Comparison {
	today := date.FromTime(now)

	var inPeriod []models.Trade
	for i := range trades {
		if performance.InPeriod(&trades[i], period, today) {
			inPeriod = append(inPeriod, trades[i])
		}
	}

	baseline, ok := today.StartOf(period)
	if !ok {
		baseline = settings.StartDate
	}
	start := startPoint(performance.Build(trades, settings, date.All, now), baseline)

	c := Comparison{
		Period:          period,
		InitialBalance:  settings.InitialBalance,
		CurrentBalance:  valuation.CurrentPortfolioValue(trades, settings),
		StartBalance:    start.PortfolioValue,
		BaselineDate:    baseline,
		ActualStartDate: start.Date,
		IsFullPeriod:    start.Date == baseline,
		MonthsPassed:    MonthsBetween(start.Date, today),
	}
	c.HoldingProfit = c.StartBalance * (math.Pow(1+MonthlyGrowth, c.MonthsPassed) - 1)

	if !valuation.HasRealized(inPeriod) {
		c.Difference = -c.HoldingProfit
		c.PercentageDifference = -100
		return c
	}

	c.TradingProfit = valuation.RealizedProfit(inPeriod)
	c.Difference = c.TradingProfit - c.HoldingProfit
	switch {
	case c.HoldingProfit != 0:
		c.PercentageDifference = c.Difference / math.Abs(c.HoldingProfit) * 100
	case c.Difference > 0:
		c.PercentageDifference = 100
	case c.Difference < 0:
		c.PercentageDifference = -100
	}
	return c
}

// startPoint picks the series point on baseline, else the first one after it,
// else the earliest one.
func startPoint(series []models.PerformancePoint, baseline date.Date) models.PerformancePoint {
	for _, p := range series {
		if !p.Date.Before(baseline) {
			return p
		}
	}
	return series[0]
}

// MonthsBetween counts whole months from from to to, plus the days since the
// last monthly anniversary as a fraction of the current month. The result is
// never below 0.1.
func MonthsBetween(from, to date.Date) float64 {
	whole := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if whole > 0 && from.AddMonths(whole).After(to) {
		whole--
	}
	if whole < 0 {
		return minMonths
	}

	anniversary := from.AddMonths(whole)
	months := float64(whole) + float64(anniversary.DaysUntil(to))/float64(to.DaysInMonth())
	return math.Max(months, minMonths)
}
