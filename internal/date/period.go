package date

import (
	"fmt"
	"strings"
)

// Period selects which trades a report looks at, counted from the calendar
// start of the current month, quarter or year.
type Period int

const (
	All Period = iota
	Month
	Quarter
	Year
)

func (p Period) String() string {
	switch p {
	case All:
		return "all"
	case Month:
		return "month"
	case Quarter:
		return "quarter"
	case Year:
		return "year"
	default:
		panic(fmt.Sprintf("unknown period %d", p))
	}
}

// ParsePeriod parses a period name. The empty string is All.
func ParsePeriod(p string) (Period, error) {
	switch strings.ToLower(p) {
	case "", "all":
		return All, nil
	case "month", "monthly":
		return Month, nil
	case "quarter", "quarterly":
		return Quarter, nil
	case "year", "yearly":
		return Year, nil
	default:
		return All, fmt.Errorf("unknown period %q", p)
	}
}

// StartOf returns the first day of the period containing d. ok is false for
// All, which has no calendar start.
func (d Date) StartOf(p Period) (start Date, ok bool) {
	switch p {
	case Month:
		return New(d.y, d.m, 1), true
	case Quarter:
		q := (d.m - 1) / 3
		return New(d.y, q*3+1, 1), true
	case Year:
		return New(d.y, 1, 1), true
	default:
		return Date{}, false
	}
}

func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
