package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/serialpress/novels_backend/models"
	"github.com/serialpress/novels_backend/utils"
	"github.com/shopspring/decimal"
)

// ErrZeroDuration marks a degenerate payment (service_end at or before
// service_start after day truncation). Callers skip the payment, they do not
// abort the batch.
var ErrZeroDuration = errors.New("subscription payment covers zero whole days")

// ProratedShare is one settlement period's slice of a subscription payment.
type ProratedShare struct {
	Period models.SettlementPeriod
	Days   int
	Amount decimal.Decimal
}

// ProratePayment splits amount across every calendar month the half-open
// interval [serviceStart, serviceEnd) overlaps, weighted by whole UTC days.
//
// Arithmetic runs entirely in decimal. Every share except the last is the
// day-weighted fraction rounded to the currency's minimum unit; the last
// share is amount minus the sum of the others, so the shares reproduce the
// payment exactly and any rounding remainder lands deterministically in the
// final period.
func ProratePayment(payment *models.SubscriptionPayment, minorUnits int32) ([]ProratedShare, error) {

	start := utils.ConvertToDate(payment.ServiceStart)
	end := utils.ConvertToDate(payment.ServiceEnd)

	totalDays := utils.WholeDays(start, end)
	if totalDays <= 0 {
		return nil, ErrZeroDuration
	}

	periods, err := models.PeriodsOverlapping(start, end)
	if err != nil {
		return nil, err
	}

	shares := make([]ProratedShare, 0, len(periods))
	daysSum := 0
	for _, period := range periods {
		overlapStart := maxTime(start, period.Start())
		overlapEnd := minTime(end, period.End())
		overlapDays := utils.WholeDays(overlapStart, overlapEnd)
		if overlapDays <= 0 {
			continue
		}
		daysSum += overlapDays
		shares = append(shares, ProratedShare{Period: period, Days: overlapDays})
	}

	if daysSum != totalDays {
		// must hold by construction; a mismatch means corrupt interval math
		return nil, fmt.Errorf("proration day mismatch: overlap days %d != total days %d", daysSum, totalDays)
	}

	total := decimal.NewFromInt(int64(totalDays))
	allocated := decimal.Zero
	for i := range shares {
		if i == len(shares)-1 {
			shares[i].Amount = payment.Amount.Sub(allocated)
			break
		}
		portion := payment.Amount.
			Mul(decimal.NewFromInt(int64(shares[i].Days))).
			DivRound(total, minorUnits)
		shares[i].Amount = portion
		allocated = allocated.Add(portion)
	}

	return shares, nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
