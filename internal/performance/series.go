// Package performance rebuilds the daily equity curve from the trade ledger.
package performance

import (
	"sort"
	"time"

	"trade-journal-go/internal/date"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/valuation"
)

// event is a change to the curve on one day.
type event struct {
	day     date.Date
	profit  float64
	entries int
}

// InPeriod reports whether a trade's entry falls in period as seen from today.
func InPeriod(t *models.Trade, period date.Period, today date.Date) bool {
	cutoff, ok := today.StartOf(period)
	if !ok {
		return true
	}
	return !date.FromTime(t.EntryDate).Before(cutoff)
}

// Build returns one point per calendar day from settings.StartDate through
// today (or the last event, if later), ascending.
//
// Only trades entered on or after the start date and inside period contribute.
// An entry bumps the trade count on its day; every realized leg moves the
// cumulative profit on its exit day. Days without events repeat the previous
// day unchanged.
func Build(trades []models.Trade, settings models.PortfolioSettings, period date.Period, now time.Time) []models.PerformancePoint {
	today := date.FromTime(now)
	start := settings.StartDate

	events := collect(trades, settings, period, today)

	known := []models.PerformancePoint{{
		Date:           start,
		PortfolioValue: settings.InitialBalance,
	}}
	var profit float64
	var count int
	for i := 0; i < len(events); {
		day := events[i].day
		for ; i < len(events) && events[i].day == day; i++ {
			profit += events[i].profit
			count += events[i].entries
		}
		p := models.PerformancePoint{
			Date:             day,
			PortfolioValue:   settings.InitialBalance + profit,
			CumulativeProfit: profit,
			TradeCount:       count,
		}
		if last := &known[len(known)-1]; last.Date == day {
			*last = p
		} else {
			known = append(known, p)
		}
	}

	return fill(known, today)
}

func collect(trades []models.Trade, settings models.PortfolioSettings, period date.Period, today date.Date) []event {
	var qualifying []*models.Trade
	for i := range trades {
		t := &trades[i]
		if date.FromTime(t.EntryDate).Before(settings.StartDate) || !InPeriod(t, period, today) {
			continue
		}
		qualifying = append(qualifying, t)
	}
	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].EntryDate.Before(qualifying[j].EntryDate)
	})

	var events []event
	clamp := func(d date.Date) date.Date {
		if d.Before(settings.StartDate) {
			return settings.StartDate
		}
		return d
	}
	for _, t := range qualifying {
		events = append(events, event{day: clamp(date.FromTime(t.EntryDate)), entries: 1})
		for _, leg := range valuation.Legs(t) {
			events = append(events, event{day: clamp(date.FromTime(leg.Date)), profit: leg.Net()})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].day.Before(events[j].day) })
	return events
}

// fill walks known snapshots day by day, carrying each one forward until the
// next, and extends the last snapshot through today.
func fill(known []models.PerformancePoint, today date.Date) []models.PerformancePoint {
	first, last := known[0].Date, known[len(known)-1].Date
	if today.After(last) {
		last = today
	}

	out := make([]models.PerformancePoint, 0, first.DaysUntil(last)+1)
	k := 0
	current := known[0]
	for d := first; !d.After(last); d = d.Add(1) {
		if k < len(known) && known[k].Date == d {
			current = known[k]
			k++
		}
		p := current
		p.Date = d
		out = append(out, p)
	}
	return out
}
