package models

import "trade-journal-go/internal/date"

// PortfolioSettings anchors every valuation.
type PortfolioSettings struct {
	StartDate      date.Date `json:"startDate" yaml:"startDate"`
	InitialBalance float64   `json:"initialBalance" yaml:"initialBalance"`
}

// PerformancePoint is one day of the equity curve.
type PerformancePoint struct {
	Date             date.Date `json:"date" yaml:"date"`
	PortfolioValue   float64   `json:"portfolioValue" yaml:"portfolioValue"`
	CumulativeProfit float64   `json:"cumulativeProfit" yaml:"cumulativeProfit"`
	TradeCount       int       `json:"tradeCount" yaml:"tradeCount"`
}
