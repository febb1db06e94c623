package benchmark

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trade-journal-go/internal/date"
	"trade-journal-go/internal/models"
)

func at(s string) time.Time { return date.MustParse(s).Time().Add(10 * time.Hour) }

func closed(entry, qty, exit float64, opened, closedOn string) models.Trade {
	exitDate := at(closedOn)
	return models.Trade{
		ID: opened + closedOn, Asset: "BTC", EntryPrice: entry, Quantity: qty, QuantityType: models.QuantityCoins,
		EntryDate: at(opened), ExitPrice: models.Float(exit), ExitDate: &exitDate, FeesType: models.FeePercentage,
	}
}

func TestCompare_EmptyLedger(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 1000}

	c := Compare(nil, settings, date.All, at("2024-03-16"))

	assert.Equal(t, 0.0, c.TradingProfit)
	assert.Greater(t, c.HoldingProfit, 0.0)
	months := 2 + 15.0/31.0
	assert.InDelta(t, months, c.MonthsPassed, 1e-12)
	assert.InDelta(t, 1000*(math.Pow(1.1, months)-1), c.HoldingProfit, 1e-9)
	assert.Equal(t, -100.0, c.PercentageDifference)
	assert.InDelta(t, -c.HoldingProfit, c.Difference, 1e-12)
	assert.True(t, c.IsFullPeriod)
	assert.Equal(t, settings.StartDate, c.ActualStartDate)
	assert.Equal(t, 1000.0, c.StartBalance)
}

func TestCompare_MonthUsesBalanceAtMonthStart(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 1000}
	trades := []models.Trade{
		closed(100, 10, 120, "2024-02-01", "2024-02-10"), // +200, before this month
		closed(100, 10, 105, "2024-03-02", "2024-03-05"), // +50, this month
	}
	now := at("2024-03-16")

	c := Compare(trades, settings, date.Month, now)

	assert.Equal(t, date.MustParse("2024-03-01"), c.BaselineDate)
	assert.Equal(t, c.BaselineDate, c.ActualStartDate)
	assert.True(t, c.IsFullPeriod)
	assert.Equal(t, 1200.0, c.StartBalance)
	assert.Equal(t, 1250.0, c.CurrentBalance)
	assert.InDelta(t, 50.0, c.TradingProfit, 1e-9)

	wantHolding := 1200 * (math.Pow(1.1, 15.0/31.0) - 1)
	assert.InDelta(t, wantHolding, c.HoldingProfit, 1e-9)
	assert.InDelta(t, 50-wantHolding, c.Difference, 1e-9)
	assert.InDelta(t, (50-wantHolding)/wantHolding*100, c.PercentageDifference, 1e-9)
}

func TestCompare_JournalStartedMidPeriod(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-05-10"), InitialBalance: 2000}

	c := Compare(nil, settings, date.Year, at("2024-06-10"))

	assert.Equal(t, date.MustParse("2024-01-01"), c.BaselineDate)
	assert.Equal(t, settings.StartDate, c.ActualStartDate)
	assert.False(t, c.IsFullPeriod)
	assert.InDelta(t, 1.0, c.MonthsPassed, 1e-12)
	assert.InDelta(t, 200.0, c.HoldingProfit, 1e-9)
}

func TestCompare_OpenTradesOnlyCountAsNothingClosed(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 1000}
	open := models.Trade{ID: "o", Asset: "BTC", EntryPrice: 1, Quantity: 1, IsActive: true, EntryDate: at("2024-01-02")}

	c := Compare([]models.Trade{open}, settings, date.All, at("2024-02-01"))
	assert.Equal(t, 0.0, c.TradingProfit)
	assert.Equal(t, -100.0, c.PercentageDifference)
}

func TestCompare_ZeroHoldingProfit(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 0}

	win := Compare([]models.Trade{closed(10, 1, 12, "2024-01-02", "2024-01-03")}, settings, date.All, at("2024-01-20"))
	assert.Equal(t, 0.0, win.HoldingProfit)
	assert.Equal(t, 100.0, win.PercentageDifference)

	loss := Compare([]models.Trade{closed(10, 1, 8, "2024-01-02", "2024-01-03")}, settings, date.All, at("2024-01-20"))
	assert.Equal(t, -100.0, loss.PercentageDifference)

	flat := Compare([]models.Trade{closed(10, 1, 10, "2024-01-02", "2024-01-03")}, settings, date.All, at("2024-01-20"))
	assert.Equal(t, 0.0, flat.PercentageDifference)
}

func TestMonthsBetween(t *testing.T) {
	testCases := []struct {
		from, to string
		want     float64
	}{
		{"2024-01-01", "2024-01-01", 0.1},
		{"2024-01-01", "2024-01-16", 15.0 / 31.0},
		{"2024-01-20", "2024-02-05", 16.0 / 29.0},
		{"2024-01-31", "2024-02-29", 1},
		{"2024-01-15", "2025-01-15", 12},
		{"2024-06-01", "2024-01-01", 0.1},
		{"2024-02-10", "2024-02-05", 0.1},
	}
	for _, tc := range testCases {
		t.Run(tc.from+"_"+tc.to, func(t *testing.T) {
			assert.InDelta(t, tc.want, MonthsBetween(date.MustParse(tc.from), date.MustParse(tc.to)), 1e-12)
		})
	}
}
