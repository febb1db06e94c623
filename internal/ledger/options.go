package ledger

import (
	"time"

	"trade-journal-go/internal/models"
)

type exitOptions struct {
	date        time.Time
	fees        *float64
	feesType    models.FeeType
	notes       string
	screenshots []string
}

// ExitOption customizes a full or partial close.
type ExitOption func(*exitOptions)

// WithExitDate sets the exit date; it defaults to now.
func WithExitDate(at time.Time) ExitOption {
	return func(o *exitOptions) { o.date = at }
}

// WithFees records the fee charged on the exit.
func WithFees(fee float64, kind models.FeeType) ExitOption {
	return func(o *exitOptions) {
		if kind == "" {
			kind = models.FeePercentage
		}
		o.fees = &fee
		o.feesType = kind
	}
}

// WithNotes attaches a note to the exit.
func WithNotes(notes string) ExitOption {
	return func(o *exitOptions) { o.notes = notes }
}

// WithScreenshots attaches screenshot references to a full close.
func WithScreenshots(refs ...string) ExitOption {
	return func(o *exitOptions) { o.screenshots = append(o.screenshots, refs...) }
}

func (l *Ledger) exitOptions(opts []ExitOption) exitOptions {
	var o exitOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.date.IsZero() {
		o.date = l.now()
	}
	return o
}
