package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPayoutNotPending    = errors.New("payout is not pending")
	ErrInvalidPayoutStatus = errors.New("confirmation status must be Paid or Failed")
)

type contributorTotal struct {
	ContributorId int
	Total         decimal.Decimal
}

// AggregatePayouts batches a period's royalty records into one payable row
// per contributor: sum in the base currency, convert at the latest FX rate at
// aggregation time, upsert under the (contributor, period) uniqueness. Safe
// to repeat; concurrent runs converge on a single row. Payouts already Paid
// or Failed are left untouched.
func AggregatePayouts(ctx context.Context, db *gorm.DB, logger *logrus.Logger, period models.SettlementPeriod) (BatchCounts, error) {

	counts := BatchCounts{}

	var totals []contributorTotal
	err := db.WithContext(ctx).Model(&models.RoyaltyRecord{}).
		Select("contributor_id, SUM(net_amount) AS total").
		Where("settlement_period = ?", period).
		Group("contributor_id").
		Order("contributor_id").
		Scan(&totals).Error
	if err != nil {
		config.LogError(logger, "payoutAggregator.go", "AggregatePayouts", "SumRoyalties", period, err)
		return counts, err
	}

	now := time.Now().UTC()
	for _, total := range totals {
		created, updated, err := upsertPayout(ctx, db, logger, period, total, now)
		if err != nil {
			config.LogError(logger, "payoutAggregator.go", "AggregatePayouts", "upsertPayout", total, err)
			return counts, err
		}
		switch {
		case created:
			counts.Created++
		case updated:
			counts.Updated++
		default:
			counts.Skipped++
		}
	}
	return counts, nil
}

func upsertPayout(ctx context.Context, db *gorm.DB, logger *logrus.Logger, period models.SettlementPeriod, total contributorTotal, now time.Time) (created bool, updated bool, err error) {

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contributor, err := models.GetContributor2(tx, total.ContributorId)
		if err != nil {
			return err
		}

		fxRate, err := models.GetExchangeRateAt(tx, contributor.PayoutCurrencyCode, now)
		if err != nil {
			if errors.Is(err, models.ErrNoExchangeRate) {
				// missing rate skips this contributor only; the rest of the
				// period still settles
				config.LogSkip(logger, "payoutAggregator.go", "upsertPayout", "no exchange rate",
					map[string]interface{}{"contributorId": total.ContributorId, "currency": contributor.PayoutCurrencyCode, "period": period})
				return nil
			}
			return err
		}
		payoutAmount := total.Total.Mul(fxRate).Round(4)

		payout := models.Payout{
			ContributorId:      total.ContributorId,
			SettlementPeriod:   period,
			BaseAmount:         total.Total,
			PayoutCurrencyCode: contributor.PayoutCurrencyCode,
			PayoutAmount:       payoutAmount,
			FxRate:             fxRate,
			Status:             models.PayoutStatusPending,
		}
		if err := tx.Create(&payout).Error; err == nil {
			created = true
			return nil
		} else if !isDuplicateKeyErr(err) {
			return err
		}

		// a row exists: re-aggregate in place, but only while still pending
		existing, err := models.GetPayoutForUpdate(tx, total.ContributorId, period)
		if err != nil {
			return err
		}
		if existing.Status != models.PayoutStatusPending {
			config.LogSkip(logger, "payoutAggregator.go", "upsertPayout", "payout already settled",
				map[string]interface{}{"contributorId": total.ContributorId, "period": period, "status": existing.Status})
			return nil
		}
		updated = true
		return tx.Model(&models.Payout{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"base_amount":          total.Total,
				"payout_currency_code": contributor.PayoutCurrencyCode,
				"payout_amount":        payoutAmount,
				"fx_rate":              fxRate,
			}).Error
	})
	if err != nil {
		return false, false, err
	}
	return created, updated, nil
}

// ConfirmPayout is the only path out of Pending. An external operator or
// payment gateway reports the outcome; aggregation itself never marks a
// payout Paid.
func ConfirmPayout(ctx context.Context, db *gorm.DB, logger *logrus.Logger, payoutId int, status models.PayoutStatus) (*models.Payout, error) {

	if status != models.PayoutStatusPaid && status != models.PayoutStatusFailed {
		return nil, ErrInvalidPayoutStatus
	}

	now := time.Now().UTC()
	var payout models.Payout

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payout, payoutId).Error; err != nil {
			return err
		}
		if payout.Status != models.PayoutStatusPending {
			return ErrPayoutNotPending
		}
		updates := map[string]interface{}{"status": status}
		if status == models.PayoutStatusPaid {
			updates["paid_at"] = now
			payout.PaidAt = &now
		}
		payout.Status = status
		return tx.Model(&models.Payout{}).Where("id = ?", payoutId).Updates(updates).Error
	})
	if err != nil {
		if !errors.Is(err, ErrPayoutNotPending) {
			config.LogError(logger, "payoutAggregator.go", "ConfirmPayout", "Transaction", payoutId, err)
		}
		return nil, err
	}
	return &payout, nil
}
