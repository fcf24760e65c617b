package workflow

import (
	"context"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchCounts is the observability result of one batch entry point.
type BatchCounts struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Updated int `json:"updated"`
}

const unlockOutboxLockTTL = 30 * time.Second

// GenerateUnlockSpendingEvents drains the unlock outbox into spending
// events: one event per paid unlock, stamped with the settlement period
// containing resolved_at. Safe to run concurrently (SKIP LOCKED claims) and
// repeatedly (the event uniqueness constraint absorbs re-delivery).
func GenerateUnlockSpendingEvents(ctx context.Context, db *gorm.DB, logger *logrus.Logger, workerId string, batchSize int) (BatchCounts, error) {

	counts := BatchCounts{}
	if batchSize <= 0 {
		batchSize = 50
	}

	for {
		claimed, err := claimUnlockOutbox(ctx, db, workerId, batchSize)
		if err != nil {
			config.LogError(logger, "spendingEvents.go", "GenerateUnlockSpendingEvents", "claimUnlockOutbox", workerId, err)
			return counts, err
		}
		if len(claimed) == 0 {
			return counts, nil
		}

		for _, rec := range claimed {
			created, err := emitUnlockEvent(ctx, db, rec)
			if err != nil {
				// keep the claim lock in place: the row is retried only after
				// the lock TTL expires, so a persistently failing record cannot
				// be reclaimed within this pass and the drain still terminates
				errMsg := err.Error()
				_ = db.WithContext(ctx).Model(&models.UnlockOutboxRecord{}).
					Where("id = ?", rec.ID).
					Update("last_process_error", &errMsg).Error
				config.LogError(logger, "spendingEvents.go", "GenerateUnlockSpendingEvents", "emitUnlockEvent", rec, err)
				continue
			}
			if created {
				counts.Created++
			} else {
				counts.Skipped++
				config.LogSkip(logger, "spendingEvents.go", "GenerateUnlockSpendingEvents", "duplicate event", rec.GrantId)
			}
		}
	}
}

func claimUnlockOutbox(ctx context.Context, db *gorm.DB, workerId string, batchSize int) ([]models.UnlockOutboxRecord, error) {
	now := time.Now().UTC()
	staleBefore := now.Add(-unlockOutboxLockTTL)

	var claimed []models.UnlockOutboxRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("is_processed = 0").
			Where("(locked_at IS NULL OR locked_at <= ?)", staleBefore).
			Order("id ASC").
			Limit(batchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for i := range claimed {
			if err := tx.Model(&models.UnlockOutboxRecord{}).
				Where("id = ?", claimed[i].ID).
				Updates(map[string]interface{}{
					"locked_at": &now,
					"locked_by": &workerId,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

// emitUnlockEvent writes the spending event and marks the outbox row in one
// transaction. Returns false when the event already existed.
func emitUnlockEvent(ctx context.Context, db *gorm.DB, rec models.UnlockOutboxRecord) (created bool, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := models.SpendingEvent{
			ReaderId:         rec.ReaderId,
			NovelId:          rec.NovelId,
			Amount:           rec.Cost,
			SourceType:       models.SpendingSourceChapterUnlock,
			SourceId:         rec.GrantId,
			SettlementPeriod: models.PeriodOf(rec.ResolvedAt),
			OccurredAt:       rec.ResolvedAt,
		}
		if err := tx.Create(&event).Error; err != nil {
			if !isDuplicateKeyErr(err) {
				return err
			}
			created = false
		} else {
			created = true
		}
		return tx.Model(&models.UnlockOutboxRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"is_processed": true,
				"locked_at":    nil,
				"locked_by":    nil,
			}).Error
	})
	return created, err
}

// GenerateSubscriptionSpendingEvents prorates every subscription payment
// recorded since the stage checkpoint into per-period spending events.
// Degenerate payments are skipped with a reason; duplicate shares from
// overlapping re-runs are absorbed by the event uniqueness constraint.
func GenerateSubscriptionSpendingEvents(ctx context.Context, db *gorm.DB, logger *logrus.Logger, batchSize int) (BatchCounts, error) {

	counts := BatchCounts{}
	if batchSize <= 0 {
		batchSize = 200
	}

	cursor, err := models.GetCheckpoint(db.WithContext(ctx), models.CheckpointStageSubscriptionEvents)
	if err != nil {
		config.LogError(logger, "spendingEvents.go", "GenerateSubscriptionSpendingEvents", "GetCheckpoint", nil, err)
		return counts, err
	}

	for {
		var payments []models.SubscriptionPayment
		err := db.WithContext(ctx).
			Where("id > ?", cursor).
			Order("id ASC").
			Limit(batchSize).
			Find(&payments).Error
		if err != nil {
			config.LogError(logger, "spendingEvents.go", "GenerateSubscriptionSpendingEvents", "FetchPayments", cursor, err)
			return counts, err
		}
		if len(payments) == 0 {
			return counts, nil
		}

		for i := range payments {
			payment := &payments[i]
			created, skipped, err := emitSubscriptionEvents(ctx, db, logger, payment)
			if err != nil {
				// integrity failures stop the batch at the failing payment so
				// the checkpoint never skips past unprocessed money
				config.LogError(logger, "spendingEvents.go", "GenerateSubscriptionSpendingEvents", "emitSubscriptionEvents", payment, err)
				return counts, err
			}
			counts.Created += created
			counts.Skipped += skipped
			cursor = payment.ID
			if err := models.AdvanceCheckpoint(db.WithContext(ctx), models.CheckpointStageSubscriptionEvents, cursor); err != nil {
				config.LogError(logger, "spendingEvents.go", "GenerateSubscriptionSpendingEvents", "AdvanceCheckpoint", cursor, err)
				return counts, err
			}
		}
	}
}

func emitSubscriptionEvents(ctx context.Context, db *gorm.DB, logger *logrus.Logger, payment *models.SubscriptionPayment) (created int, skipped int, err error) {

	minorUnits := int32(2)
	if currency, cerr := models.GetCurrencyByCode(ctx, payment.CurrencyCode); cerr == nil {
		minorUnits = currency.DecimalPlaces
	}

	shares, err := ProratePayment(payment, minorUnits)
	if err != nil {
		if err == ErrZeroDuration {
			config.LogSkip(logger, "spendingEvents.go", "emitSubscriptionEvents", "zero-duration payment", payment.ID)
			return 0, 1, nil
		}
		return 0, 0, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, share := range shares {
			event := models.SpendingEvent{
				ReaderId:         payment.ReaderId,
				NovelId:          payment.NovelId,
				Amount:           share.Amount,
				SourceType:       models.SpendingSourceSubscription,
				SourceId:         payment.ID,
				SettlementPeriod: share.Period,
				OccurredAt:       payment.CreatedAt,
			}
			if err := tx.Create(&event).Error; err != nil {
				if isDuplicateKeyErr(err) {
					skipped++
					continue
				}
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, skipped, nil
}
