// Package valuation turns ledger trades into realized profit and equity.
// Every figure is recomputed from the full trade list on each call.
package valuation

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/models"
)

// Leg is one realized exit: a partial exit or the final close of a trade.
type Leg struct {
	TradeID   string
	ExitID    string // empty for the final close
	Date      time.Time
	Quantity  float64 // in the trade's quantity unit
	ExitPrice float64
	Profit    float64
	Fee       float64
}

// Net is the leg's profit after fees.
func (l Leg) Net() float64 { return l.Profit - l.Fee }

// IsPartial reports whether the leg comes from a partial exit.
func (l Leg) IsPartial() bool { return l.ExitID != "" }

// IsShort resolves a trade's direction. An explicit Direction wins; legacy
// trades without one are short when the asset label contains "short".
func IsShort(t *models.Trade) bool {
	switch t.Direction {
	case models.Short:
		return true
	case models.Long:
		return false
	}
	return strings.Contains(strings.ToLower(t.Asset), "short")
}

// CoinQuantity converts a quantity in the trade's unit into units of the asset.
func CoinQuantity(t *models.Trade, qty float64) float64 {
	if t.QuantityType != models.QuantityDollars {
		return qty
	}
	if t.EntryPrice <= 0 {
		zap.L().Named("valuation").Warn("Dollar-denominated trade without a positive entry price",
			zap.String("trade_id", t.ID), zap.Float64("entry_price", t.EntryPrice))
		return 0
	}
	return qty / t.EntryPrice
}

// FeeAmount applies a fee to a leg notional.
func FeeAmount(notional, fee float64, feeType models.FeeType) float64 {
	if feeType == models.FeeFixed {
		return fee
	}
	return notional * fee / 100
}

func legProfit(t *models.Trade, qty, exitPrice float64) float64 {
	coins := CoinQuantity(t, qty)
	if IsShort(t) {
		coins = -coins
	}
	return (exitPrice - t.EntryPrice) * coins
}

// Legs lists the realized legs of a trade: every partial exit, then the final
// close when the trade is closed with quantity left.
//
// A partial exit's fee is charged on its own quantity at the exit price; the
// final close's fee on the trade's full quantity at the entry price.
func Legs(t *models.Trade) []Leg {
	var legs []Leg
	for _, pe := range t.PartialExits {
		notional := pe.ExitQuantity * pe.ExitPrice
		if t.QuantityType == models.QuantityDollars {
			notional = CoinQuantity(t, pe.ExitQuantity) * pe.ExitPrice
		}
		var fee float64
		if pe.Fees != nil {
			fee = FeeAmount(notional, *pe.Fees, pe.FeesType)
		}
		legs = append(legs, Leg{
			TradeID:   t.ID,
			ExitID:    pe.ID,
			Date:      pe.ExitDate,
			Quantity:  pe.ExitQuantity,
			ExitPrice: pe.ExitPrice,
			Profit:    legProfit(t, pe.ExitQuantity, pe.ExitPrice),
			Fee:       fee,
		})
	}

	if !t.IsClosed() {
		return legs
	}
	qty := t.Remaining()
	if qty <= 0 {
		// exhausted by partial exits, the last one already closed it
		return legs
	}
	notional := t.Quantity * t.EntryPrice
	if t.QuantityType == models.QuantityDollars {
		notional = t.Quantity
	}
	legs = append(legs, Leg{
		TradeID:   t.ID,
		Date:      *t.ExitDate,
		Quantity:  qty,
		ExitPrice: *t.ExitPrice,
		Profit:    legProfit(t, qty, *t.ExitPrice),
		Fee:       FeeAmount(notional, t.Fees, t.FeesType),
	})
	return legs
}

// RealizedProfit sums the net of every realized leg. Sorting the addends
// makes the total independent of ledger order down to the last bit.
func RealizedProfit(trades []models.Trade) float64 {
	var nets []float64
	for i := range trades {
		for _, leg := range Legs(&trades[i]) {
			nets = append(nets, leg.Net())
		}
	}
	sort.Float64s(nets)
	var total float64
	for _, n := range nets {
		total += n
	}
	return total
}

// HasRealized reports whether any trade has at least one realized leg.
func HasRealized(trades []models.Trade) bool {
	for i := range trades {
		if len(Legs(&trades[i])) > 0 {
			return true
		}
	}
	return false
}

// CurrentPortfolioValue is the initial balance plus every realized net profit.
func CurrentPortfolioValue(trades []models.Trade, settings models.PortfolioSettings) float64 {
	return settings.InitialBalance + RealizedProfit(trades)
}

// RiskedAmount is the dollar loss the original position would take at its stop.
func RiskedAmount(t *models.Trade) float64 {
	return math.Abs(t.EntryPrice-t.StopLoss) * CoinQuantity(t, t.Original())
}

// RMultiple is the realized net profit expressed in units of the amount
// originally risked. It is 0 when nothing was at risk.
func RMultiple(t *models.Trade) float64 {
	risked := RiskedAmount(t)
	if risked <= 0 {
		return 0
	}
	var net float64
	for _, leg := range Legs(t) {
		net += leg.Net()
	}
	return net / risked
}
