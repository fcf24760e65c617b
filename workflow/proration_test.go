package workflow

import (
	"testing"
	"time"

	"github.com/serialpress/novels_backend/models"
	"github.com/serialpress/novels_backend/utils"
	"github.com/shopspring/decimal"
)

func paymentFor(amount string, start, end time.Time) *models.SubscriptionPayment {
	return &models.SubscriptionPayment{
		ID:           1,
		ReaderId:     1,
		NovelId:      1,
		Amount:       decimal.RequireFromString(amount),
		CurrencyCode: "USD",
		ServiceStart: start,
		ServiceEnd:   end,
	}
}

func TestProratePayment_SplitsAcrossThreeMonths(t *testing.T) {
	payment := paymentFor("30.00",
		time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	shares, err := ProratePayment(payment, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(shares))
	}

	expected := []struct {
		period models.SettlementPeriod
		days   int
		amount string
	}{
		{"2025-01", 12, "8.18"},
		{"2025-02", 28, "19.09"},
		{"2025-03", 4, "2.73"},
	}
	for i, want := range expected {
		got := shares[i]
		if got.Period != want.period {
			t.Fatalf("share %d: expected period %s, got %s", i, want.period, got.Period)
		}
		if got.Days != want.days {
			t.Fatalf("share %d: expected %d days, got %d", i, want.days, got.Days)
		}
		if !got.Amount.Equal(decimal.RequireFromString(want.amount)) {
			t.Fatalf("share %d: expected amount %s, got %s", i, want.amount, got.Amount)
		}
	}

	sum := decimal.Zero
	for _, share := range shares {
		sum = sum.Add(share.Amount)
	}
	if !sum.Equal(payment.Amount) {
		t.Fatalf("shares sum to %s, want exactly %s", sum, payment.Amount)
	}
}

func TestProratePayment_SingleMonthKeepsFullAmount(t *testing.T) {
	payment := paymentFor("9.99",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	shares, err := ProratePayment(payment, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 1 {
		t.Fatalf("expected 1 share, got %d", len(shares))
	}
	if shares[0].Period != "2025-06" {
		t.Fatalf("expected period 2025-06, got %s", shares[0].Period)
	}
	if !shares[0].Amount.Equal(payment.Amount) {
		t.Fatalf("expected full amount %s, got %s", payment.Amount, shares[0].Amount)
	}
}

func TestProratePayment_ZeroDurationIsRejected(t *testing.T) {
	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	if _, err := ProratePayment(paymentFor("5.00", day, day), 2); err != ErrZeroDuration {
		t.Fatalf("expected ErrZeroDuration for same-day interval, got %v", err)
	}
	// time-of-day is truncated first, so a sub-day interval is degenerate too
	if _, err := ProratePayment(paymentFor("5.00", day.Add(2*time.Hour), day.Add(20*time.Hour)), 2); err != ErrZeroDuration {
		t.Fatalf("expected ErrZeroDuration for sub-day interval, got %v", err)
	}
	if _, err := ProratePayment(paymentFor("5.00", day, day.AddDate(0, 0, -3)), 2); err != ErrZeroDuration {
		t.Fatalf("expected ErrZeroDuration for inverted interval, got %v", err)
	}
}

func TestProratePayment_TruncatesTimeOfDay(t *testing.T) {
	// 23:59 on Jan 31 still counts January; the day boundary is UTC midnight
	payment := paymentFor("10.00",
		time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2025, 2, 3, 6, 0, 0, 0, time.UTC))

	shares, err := ProratePayment(payment, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(shares))
	}
	if shares[0].Days != 1 || shares[1].Days != 2 {
		t.Fatalf("expected 1+2 overlap days, got %d+%d", shares[0].Days, shares[1].Days)
	}
}

func TestProratePayment_ExactSumAcrossWindows(t *testing.T) {
	amounts := []string{"30.00", "9.99", "100.01", "0.07", "12345.67"}
	// leap February, a one-day year boundary, a full year, a month boundary
	// and untruncated time-of-day inputs
	windows := []struct {
		start, end time.Time
	}{
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC), time.Date(2025, 3, 5, 4, 0, 0, 0, time.UTC)},
	}

	for _, amount := range amounts {
		for _, window := range windows {
			payment := paymentFor(amount, window.start, window.end)
			shares, err := ProratePayment(payment, 2)
			if err != nil {
				t.Fatalf("amount=%s window=%v: unexpected error: %v", amount, window, err)
			}

			totalDays := utils.WholeDays(utils.ConvertToDate(window.start), utils.ConvertToDate(window.end))
			daysSum := 0
			amountSum := decimal.Zero
			for _, share := range shares {
				daysSum += share.Days
				amountSum = amountSum.Add(share.Amount)
			}
			if daysSum != totalDays {
				t.Fatalf("amount=%s window=%v: overlap days %d != total days %d", amount, window, daysSum, totalDays)
			}
			if !amountSum.Equal(payment.Amount) {
				t.Fatalf("amount=%s window=%v: shares sum to %s, want exactly %s", amount, window, amountSum, payment.Amount)
			}
		}
	}
}

func TestProratePayment_ZeroMinorUnitCurrency(t *testing.T) {
	// yen-style currency: shares round to whole units, remainder to the last
	payment := paymentFor("1000",
		time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	shares, err := ProratePayment(payment, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := decimal.Zero
	for i, share := range shares {
		if i < len(shares)-1 && !share.Amount.Equal(share.Amount.Truncate(0)) {
			t.Fatalf("share %d is not a whole unit: %s", i, share.Amount)
		}
		sum = sum.Add(share.Amount)
	}
	if !sum.Equal(payment.Amount) {
		t.Fatalf("shares sum to %s, want exactly %s", sum, payment.Amount)
	}
}
