package models

import (
	"errors"
	"fmt"
	"time"
)

// SettlementPeriod identifies one calendar month in UTC, encoded "2006-01".
// The string encoding sorts chronologically, which the batch queries rely on.
type SettlementPeriod string

func PeriodOf(t time.Time) SettlementPeriod {
	return SettlementPeriod(t.UTC().Format("2006-01"))
}

func ParsePeriod(s string) (SettlementPeriod, error) {
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", fmt.Errorf("invalid settlement period %q: %w", s, err)
	}
	return SettlementPeriod(s), nil
}

func (p SettlementPeriod) String() string { return string(p) }

// Start returns the first instant of the period (midnight UTC on the 1st).
func (p SettlementPeriod) Start() time.Time {
	t, err := time.Parse("2006-01", string(p))
	if err != nil {
		return time.Time{}
	}
	return t
}

// End returns the first instant of the following period; the period covers
// the half-open interval [Start, End).
func (p SettlementPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p SettlementPeriod) Next() SettlementPeriod {
	return PeriodOf(p.End())
}

// PeriodsOverlapping returns every settlement period whose [Start, End)
// intersects the half-open interval [from, to), in chronological order.
func PeriodsOverlapping(from, to time.Time) ([]SettlementPeriod, error) {
	if !to.After(from) {
		return nil, errors.New("interval end must be after start")
	}
	var periods []SettlementPeriod
	for p := PeriodOf(from); p.Start().Before(to); p = p.Next() {
		periods = append(periods, p)
	}
	return periods, nil
}
