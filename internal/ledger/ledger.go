// Package ledger owns the journal's trades and their lifecycle.
package ledger

import (
	"errors"
	"math"
	"sync"
	"time"

	"trade-journal-go/internal/ids"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/valuation"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
	ErrTradeClosed   = errors.New("trade is closed")
)

// remaining quantities this close to zero are treated as fully exited
const dustTolerance = 1e-9

// Ledger is the single store of trades. Every mutation builds a new trade
// slice and swaps it in.
type Ledger struct {
	mu     sync.RWMutex
	trades []models.Trade
	now    func() time.Time
	newID  func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for default entry and exit dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides identity generation.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New returns a ledger holding a copy of trades.
func New(trades []models.Trade, opts ...Option) *Ledger {
	l := &Ledger{now: time.Now, newID: ids.New}
	for _, opt := range opts {
		opt(l)
	}
	l.trades = cloneAll(trades)
	return l
}

// NewTrade is the caller-provided part of a trade.
type NewTrade struct {
	Asset        string
	Direction    models.Direction
	EntryPrice   float64
	Quantity     float64
	QuantityType models.QuantityType
	StopLoss     float64
	EntryDate    time.Time
	Fees         float64
	FeesType     models.FeeType
	Notes        string
	Screenshots  []string
}

// Trades returns a snapshot of every trade in insertion order.
func (l *Ledger) Trades() []models.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.trades)
}

// Len returns the number of trades.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}

// Trade returns a snapshot of one trade.
func (l *Ledger) Trade(id string) (models.Trade, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.index(id)
	if i < 0 {
		return models.Trade{}, ErrTradeNotFound
	}
	return l.trades[i].Clone(), nil
}

// AddTrade records a new active trade. Values are taken as given; rejecting
// nonsensical prices is up to the caller.
func (l *Ledger) AddTrade(data NewTrade) models.Trade {
	t := models.Trade{
		ID:           l.newID(),
		Asset:        data.Asset,
		Direction:    data.Direction,
		EntryPrice:   data.EntryPrice,
		Quantity:     data.Quantity,
		QuantityType: data.QuantityType,
		StopLoss:     data.StopLoss,
		EntryDate:    data.EntryDate,
		IsActive:     true,
		Fees:         data.Fees,
		FeesType:     data.FeesType,
		Notes:        data.Notes,
		Screenshots:  append([]string(nil), data.Screenshots...),
	}
	if t.QuantityType == "" {
		t.QuantityType = models.QuantityCoins
	}
	if t.FeesType == "" {
		t.FeesType = models.FeePercentage
	}
	if t.EntryDate.IsZero() {
		t.EntryDate = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]models.Trade, len(l.trades), len(l.trades)+1)
	copy(next, l.trades)
	l.trades = append(next, t)
	return t.Clone()
}

// UpdateStopLoss sets the stop price and nothing else.
func (l *Ledger) UpdateStopLoss(id string, stop float64) (models.Trade, error) {
	return l.update(id, func(t *models.Trade) error {
		t.StopLoss = stop
		return nil
	})
}

// SetTrailingStop turns the stop into a trailing stop amount away from the
// reference price: the highest price seen for a long, the lowest for a short.
// Without a recorded reference the entry price is used.
func (l *Ledger) SetTrailingStop(id string, amount float64, kind models.TrailingType) (models.Trade, error) {
	return l.update(id, func(t *models.Trade) error {
		if kind == "" {
			kind = models.TrailingPercentage
		}
		t.IsTrailingStop = true
		t.TrailingAmount = amount
		t.TrailingType = kind

		ref := trailingReference(t)
		t.StopLoss = trailingStop(ref, amount, kind, valuation.IsShort(t))
		return nil
	})
}

// AdvanceTrailingStop feeds a new market price to a trailing stop. The
// reference only moves in the position's favor, and the stop never loosens.
func (l *Ledger) AdvanceTrailingStop(id string, price float64) (models.Trade, error) {
	return l.update(id, func(t *models.Trade) error {
		if !t.IsTrailingStop || !t.IsActive {
			return nil
		}
		short := valuation.IsShort(t)
		ref := trailingReference(t)
		if short && price < ref {
			t.LowestPrice = models.Float(price)
		} else if !short && price > ref {
			t.HighestPrice = models.Float(price)
		} else {
			return nil
		}

		stop := trailingStop(price, t.TrailingAmount, t.TrailingType, short)
		if (short && stop < t.StopLoss) || (!short && stop > t.StopLoss) {
			t.StopLoss = stop
		}
		return nil
	})
}

func trailingReference(t *models.Trade) float64 {
	if valuation.IsShort(t) {
		if t.LowestPrice == nil {
			t.LowestPrice = models.Float(t.EntryPrice)
		}
		return *t.LowestPrice
	}
	if t.HighestPrice == nil {
		t.HighestPrice = models.Float(t.EntryPrice)
	}
	return *t.HighestPrice
}

func trailingStop(ref, amount float64, kind models.TrailingType, short bool) float64 {
	offset := amount
	if kind != models.TrailingFixed {
		offset = ref * amount / 100
	}
	if short {
		return ref + offset
	}
	return ref - offset
}

// CloseTrade fully closes a trade at exitPrice.
func (l *Ledger) CloseTrade(id string, exitPrice float64, opts ...ExitOption) (models.Trade, error) {
	o := l.exitOptions(opts)
	return l.update(id, func(t *models.Trade) error {
		t.IsActive = false
		t.ExitPrice = models.Float(exitPrice)
		t.ExitDate = &o.date
		if o.fees != nil {
			t.Fees = *o.fees
			t.FeesType = o.feesType
		}
		if o.notes != "" {
			t.Notes = o.notes
		}
		t.Screenshots = append(t.Screenshots, o.screenshots...)
		return nil
	})
}

// ClosePartialTrade exits part of an open position. The quantity is clamped
// to what is still open; exiting everything closes the trade at this exit's
// price and date.
func (l *Ledger) ClosePartialTrade(id string, exitPrice, exitQuantity float64, opts ...ExitOption) (models.Trade, error) {
	o := l.exitOptions(opts)
	return l.update(id, func(t *models.Trade) error {
		if !t.IsActive {
			return ErrTradeClosed
		}
		remaining := t.Remaining()
		qty := math.Max(0, math.Min(exitQuantity, remaining))
		if remaining-qty <= dustTolerance {
			qty = remaining
		}

		if t.OriginalQuantity == nil {
			t.OriginalQuantity = models.Float(t.Quantity)
		}
		exit := models.PartialExit{
			ID:           l.newID(),
			ExitDate:     o.date,
			ExitPrice:    exitPrice,
			ExitQuantity: qty,
			Notes:        o.notes,
		}
		if o.fees != nil {
			exit.Fees = models.Float(*o.fees)
			exit.FeesType = o.feesType
		}
		t.PartialExits = append(t.PartialExits, exit)
		t.RemainingQuantity = models.Float(remaining - qty)

		if *t.RemainingQuantity == 0 {
			t.IsActive = false
			t.ExitPrice = models.Float(exitPrice)
			exitDate := o.date
			t.ExitDate = &exitDate
		}
		return nil
	})
}

// DeleteTrade removes a trade. It reports whether the trade existed.
func (l *Ledger) DeleteTrade(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return false
	}
	next := make([]models.Trade, 0, len(l.trades)-1)
	next = append(next, l.trades[:i]...)
	l.trades = append(next, l.trades[i+1:]...)
	return true
}

// ImportTrades merges trades by identity. Existing trades are never
// overwritten; trades or partial exits without an identity get a fresh one.
// It returns the number of trades added.
func (l *Ledger) ImportTrades(incoming []models.Trade) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	known := make(map[string]struct{}, len(l.trades)+len(incoming))
	for _, t := range l.trades {
		known[t.ID] = struct{}{}
	}

	next := make([]models.Trade, len(l.trades), len(l.trades)+len(incoming))
	copy(next, l.trades)
	added := 0
	for _, in := range incoming {
		t := in.Clone()
		if t.ID == "" {
			t.ID = l.newID()
		}
		if _, dup := known[t.ID]; dup {
			continue
		}
		for i := range t.PartialExits {
			if t.PartialExits[i].ID == "" {
				t.PartialExits[i].ID = l.newID()
			}
		}
		known[t.ID] = struct{}{}
		next = append(next, t)
		added++
	}
	l.trades = next
	return added
}

func (l *Ledger) update(id string, fn func(t *models.Trade) error) (models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return models.Trade{}, ErrTradeNotFound
	}
	t := l.trades[i].Clone()
	if err := fn(&t); err != nil {
		return models.Trade{}, err
	}

	next := make([]models.Trade, len(l.trades))
	copy(next, l.trades)
	next[i] = t
	l.trades = next
	return t.Clone(), nil
}

func (l *Ledger) index(id string) int {
	for i := range l.trades {
		if l.trades[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, len(trades))
	for i, t := range trades {
		out[i] = t.Clone()
	}
	return out
}
