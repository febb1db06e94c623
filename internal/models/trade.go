package models

import (
	"strings"
	"time"
)

// QuantityType says what unit a trade's Quantity is denominated in.
type QuantityType string

const (
	QuantityCoins   QuantityType = "coins"
	QuantityDollars QuantityType = "dollars"
)

// FeeType selects how a fee amount is applied to a leg.
type FeeType string

const (
	FeePercentage FeeType = "percentage"
	FeeFixed      FeeType = "fixed"
)

// TrailingType selects whether a trailing amount is a percentage or a price offset.
type TrailingType string

const (
	TrailingPercentage TrailingType = "percentage"
	TrailingFixed      TrailingType = "fixed"
)

// Direction of a position. The empty value means the direction has to be
// inferred from the asset label (legacy data).
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// ParseDirection accepts "long", "short" or "" (infer).
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(s)); d {
	case Long, Short, "":
		return d, true
	default:
		return "", false
	}
}

// Trade is a single journal entry: one position from entry to close.
type Trade struct {
	ID           string       `json:"id" yaml:"id"`
	Asset        string       `json:"asset" yaml:"asset"`
	Direction    Direction    `json:"direction,omitempty" yaml:"direction,omitempty"`
	EntryPrice   float64      `json:"entryPrice" yaml:"entryPrice"`
	Quantity     float64      `json:"quantity" yaml:"quantity"`
	QuantityType QuantityType `json:"quantityType" yaml:"quantityType"`
	StopLoss     float64      `json:"stopLoss" yaml:"stopLoss"`
	EntryDate    time.Time    `json:"entryDate" yaml:"entryDate"`
	ExitPrice    *float64     `json:"exitPrice,omitempty" yaml:"exitPrice,omitempty"`
	ExitDate     *time.Time   `json:"exitDate,omitempty" yaml:"exitDate,omitempty"`
	IsActive     bool         `json:"isActive" yaml:"isActive"`
	Fees         float64      `json:"fees" yaml:"fees"`
	FeesType     FeeType      `json:"feesType" yaml:"feesType"`

	PartialExits      []PartialExit `json:"partialExits,omitempty" yaml:"partialExits,omitempty"`
	RemainingQuantity *float64      `json:"remainingQuantity,omitempty" yaml:"remainingQuantity,omitempty"`
	OriginalQuantity  *float64      `json:"originalQuantity,omitempty" yaml:"originalQuantity,omitempty"`

	IsTrailingStop bool         `json:"isTrailingStop,omitempty" yaml:"isTrailingStop,omitempty"`
	TrailingAmount float64      `json:"trailingAmount,omitempty" yaml:"trailingAmount,omitempty"`
	TrailingType   TrailingType `json:"trailingType,omitempty" yaml:"trailingType,omitempty"`
	HighestPrice   *float64     `json:"highestPrice,omitempty" yaml:"highestPrice,omitempty"`
	LowestPrice    *float64     `json:"lowestPrice,omitempty" yaml:"lowestPrice,omitempty"`

	Notes       string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Screenshots []string `json:"screenshots,omitempty" yaml:"screenshots,omitempty"`
}

// PartialExit is a reduction of an open position before it is fully closed.
type PartialExit struct {
	ID           string    `json:"id" yaml:"id"`
	ExitDate     time.Time `json:"exitDate" yaml:"exitDate"`
	ExitPrice    float64   `json:"exitPrice" yaml:"exitPrice"`
	ExitQuantity float64   `json:"exitQuantity" yaml:"exitQuantity"`
	Notes        string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Fees         *float64  `json:"fees,omitempty" yaml:"fees,omitempty"`
	FeesType     FeeType   `json:"feesType,omitempty" yaml:"feesType,omitempty"`
}

// Remaining returns the open quantity: RemainingQuantity when set, Quantity otherwise.
func (t *Trade) Remaining() float64 {
	if t.RemainingQuantity != nil {
		return *t.RemainingQuantity
	}
	return t.Quantity
}

// Original returns the quantity partial exits are accounted against.
func (t *Trade) Original() float64 {
	if t.OriginalQuantity != nil {
		return *t.OriginalQuantity
	}
	return t.Quantity
}

// IsClosed reports whether the trade carries a final exit.
func (t *Trade) IsClosed() bool {
	return !t.IsActive && t.ExitPrice != nil && t.ExitDate != nil
}

// Clone returns a deep copy; ledger snapshots never share pointers with the live state.
func (t Trade) Clone() Trade {
	c := t
	c.ExitPrice = cloneFloat(t.ExitPrice)
	c.RemainingQuantity = cloneFloat(t.RemainingQuantity)
	c.OriginalQuantity = cloneFloat(t.OriginalQuantity)
	c.HighestPrice = cloneFloat(t.HighestPrice)
	c.LowestPrice = cloneFloat(t.LowestPrice)
	if t.ExitDate != nil {
		d := *t.ExitDate
		c.ExitDate = &d
	}
	if t.PartialExits != nil {
		c.PartialExits = make([]PartialExit, len(t.PartialExits))
		for i, pe := range t.PartialExits {
			pe.Fees = cloneFloat(pe.Fees)
			c.PartialExits[i] = pe
		}
	}
	if t.Screenshots != nil {
		c.Screenshots = append([]string(nil), t.Screenshots...)
	}
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v, for the optional fields.
func Float(v float64) *float64 { return &v }
