package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-go/internal/date"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/valuation"
)

func at(s string) time.Time { return date.MustParse(s).Time().Add(15 * time.Hour) }

func closed(id string, entry, qty, exit float64, opened, closedOn string) models.Trade {
	exitDate := at(closedOn)
	return models.Trade{
		ID: id, Asset: "BTC", EntryPrice: entry, Quantity: qty, QuantityType: models.QuantityCoins,
		EntryDate: at(opened), ExitPrice: models.Float(exit), ExitDate: &exitDate, FeesType: models.FeePercentage,
	}
}

func assertContinuous(t *testing.T, series []models.PerformancePoint, initial float64) {
	t.Helper()
	for i, p := range series {
		assert.InDelta(t, initial+p.CumulativeProfit, p.PortfolioValue, 1e-9, "point %s", p.Date)
		if i > 0 {
			assert.Equal(t, series[i-1].Date.Add(1), p.Date, "gap before %s", p.Date)
			assert.GreaterOrEqual(t, p.TradeCount, series[i-1].TradeCount)
		}
	}
}

func TestBuild_SingleClosedTrade(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 1000}
	trades := []models.Trade{closed("t1", 100, 10, 110, "2024-01-01", "2024-01-05")}

	series := Build(trades, settings, date.All, at("2024-01-10"))

	require.Len(t, series, 10)
	assertContinuous(t, series, 1000)
	for _, p := range series {
		if p.Date.Before(date.MustParse("2024-01-05")) {
			assert.Equal(t, 1000.0, p.PortfolioValue, p.Date.String())
		} else {
			assert.Equal(t, 1100.0, p.PortfolioValue, p.Date.String())
		}
		assert.Equal(t, 1, p.TradeCount)
	}
	assert.Equal(t, "2024-01-10", series[len(series)-1].Date.String())
}

func TestBuild_EmptyLedgerExtendsToToday(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-02-27"), InitialBalance: 500}

	series := Build(nil, settings, date.All, at("2024-03-02"))

	require.Len(t, series, 5)
	assertContinuous(t, series, 500)
	assert.Equal(t, "2024-02-29", series[2].Date.String())
	assert.Equal(t, 500.0, series[4].PortfolioValue)
	assert.Equal(t, 0, series[4].TradeCount)
}

func TestBuild_TodayBeforeStart(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2030-01-01"), InitialBalance: 500}

	series := Build(nil, settings, date.All, at("2024-01-01"))

	require.Len(t, series, 1)
	assert.Equal(t, settings.StartDate, series[0].Date)
}

func TestBuild_PartialExitsAndOrdering(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 1000}

	late := closed("late", 10, 10, 12, "2024-01-03", "2024-01-04")
	early := closed("early", 100, 10, 110, "2024-01-02", "2024-01-08")
	early.OriginalQuantity = models.Float(10)
	early.RemainingQuantity = models.Float(6)
	early.PartialExits = []models.PartialExit{{ID: "p", ExitDate: at("2024-01-06"), ExitPrice: 120, ExitQuantity: 4}}
	open := models.Trade{ID: "open", Asset: "ETH", EntryPrice: 1, Quantity: 1, IsActive: true, EntryDate: at("2024-01-07")}

	trades := []models.Trade{late, open, early}
	series := Build(trades, settings, date.All, at("2024-01-09"))

	require.Len(t, series, 9)
	assertContinuous(t, series, 1000)

	byDay := make(map[string]models.PerformancePoint)
	for _, p := range series {
		byDay[p.Date.String()] = p
	}
	assert.Equal(t, 0, byDay["2024-01-01"].TradeCount)
	assert.Equal(t, 1, byDay["2024-01-02"].TradeCount)
	assert.Equal(t, 2, byDay["2024-01-03"].TradeCount)
	assert.InDelta(t, 20.0, byDay["2024-01-04"].CumulativeProfit, 1e-9)
	assert.InDelta(t, 20.0, byDay["2024-01-05"].CumulativeProfit, 1e-9)
	assert.InDelta(t, 100.0, byDay["2024-01-06"].CumulativeProfit, 1e-9)
	assert.Equal(t, 3, byDay["2024-01-07"].TradeCount)
	// final close posts only the six remaining coins
	assert.InDelta(t, 160.0, byDay["2024-01-08"].CumulativeProfit, 1e-9)

	last := series[len(series)-1]
	assert.InDelta(t, valuation.CurrentPortfolioValue(trades, settings), last.PortfolioValue, 1e-9)
}

func TestBuild_Filters(t *testing.T) {
	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 1000}
	trades := []models.Trade{
		closed("before-start", 100, 1, 200, "2023-12-20", "2024-01-02"),
		closed("q1", 100, 1, 150, "2024-02-10", "2024-02-11"),
		closed("this-month", 100, 1, 90, "2024-05-03", "2024-05-04"),
	}
	now := at("2024-05-05")

	all := Build(trades, settings, date.All, now)
	assert.InDelta(t, 40.0, all[len(all)-1].CumulativeProfit, 1e-9)
	assert.Equal(t, 2, all[len(all)-1].TradeCount)

	month := Build(trades, settings, date.Month, now)
	assert.Equal(t, settings.StartDate, month[0].Date)
	assert.InDelta(t, -10.0, month[len(month)-1].CumulativeProfit, 1e-9)
	assert.Equal(t, 1, month[len(month)-1].TradeCount)
	assertContinuous(t, month, 1000)

	year := Build(trades, settings, date.Year, now)
	assert.InDelta(t, 40.0, year[len(year)-1].CumulativeProfit, 1e-9)
}

func TestInPeriod(t *testing.T) {
	today := date.MustParse("2024-08-15")
	tr := models.Trade{EntryDate: at("2024-07-02")}

	assert.True(t, InPeriod(&tr, date.All, today))
	assert.True(t, InPeriod(&tr, date.Quarter, today))
	assert.True(t, InPeriod(&tr, date.Year, today))
	assert.False(t, InPeriod(&tr, date.Month, today))
}
