package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// TimedUnlockWait is the fixed wait before a timed grant becomes readable.
//
// Set via env:
// - TIMED_UNLOCK_WAIT_HOURS=24
func TimedUnlockWait() time.Duration {
	v := strings.TrimSpace(os.Getenv("TIMED_UNLOCK_WAIT_HOURS"))
	if v == "" {
		return 24 * time.Hour
	}
	hours, err := strconv.Atoi(v)
	if err != nil || hours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

// BaseCurrencyCode is the platform settlement currency. Royalty records are
// always denominated in it; payouts convert out of it.
//
// Set via env:
// - BASE_CURRENCY_CODE=USD
func BaseCurrencyCode() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("BASE_CURRENCY_CODE")))
	if v == "" {
		return "USD"
	}
	return v
}
