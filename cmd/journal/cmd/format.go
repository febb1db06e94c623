package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"trade-journal-go/internal/date"
)

// displayCurrency maps dollar stablecoins to USD so amounts print as $1,234.56.
func displayCurrency(quote string) string {
	switch q := strings.ToUpper(quote); q {
	case "", "USDT", "USDC", "BUSD", "FDUSD", "TUSD", "DAI":
		return money.USD
	default:
		return q
	}
}

// formatMoney prints v in the quote currency, rounded to the currency's
// minor unit.
func formatMoney(v float64, quote string) string {
	cur := *money.New(0, displayCurrency(quote)).Currency()
	minor := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// signedMoney is formatMoney with an explicit sign on gains.
func signedMoney(v float64, quote string) string {
	s := formatMoney(v, quote)
	if decimal.NewFromFloat(v).Round(2).IsPositive() {
		return "+" + s
	}
	return s
}

// formatQuantity prints up to eight decimals without trailing zeros.
func formatQuantity(q float64) string {
	return decimal.NewFromFloat(q).Round(8).String()
}

func formatPrice(p float64) string {
	return decimal.NewFromFloat(p).Round(8).String()
}

func formatPercent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2) + "%"
}

// parseWhen accepts a calendar day (2024-01-05) or an RFC 3339 timestamp.
// An empty string is the zero time.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := date.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD or RFC 3339: %w", err)
	}
	return d.Time(), nil
}

func parseFloatArg(s, name string) (float64, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v.InexactFloat64(), nil
}

func decimal2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
