package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func Ptr[T any](v T) *T {
	return &v
}

// ConvertToDate truncates t to its UTC calendar date (midnight UTC).
// Settlement arithmetic always runs on whole UTC days.
func ConvertToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// WholeDays returns the number of whole days in the half-open interval
// [from, to). Both arguments are expected to be UTC midnights.
func WholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	return dec, nil
}
