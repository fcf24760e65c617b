package workflow

import (
	"context"
	"time"

	"github.com/serialpress/novels_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SettlementRunResult reports what one full pipeline pass did, stage by stage.
type SettlementRunResult struct {
	TimedGrantsResolved int64       `json:"timed_grants_resolved"`
	UnlockEvents        BatchCounts `json:"unlock_events"`
	SubscriptionEvents  BatchCounts `json:"subscription_events"`
	Royalties           BatchCounts `json:"royalties"`
	Payouts             BatchCounts `json:"payouts"`
}

// RunSettlement executes the whole pipeline in order for one settlement
// period: sweep due timed grants, derive spending events, resolve royalties,
// aggregate payouts. Every stage is idempotent, so a failed run is simply
// re-invoked.
func RunSettlement(ctx context.Context, db *gorm.DB, logger *logrus.Logger, workerId string, period models.SettlementPeriod) (SettlementRunResult, error) {

	result := SettlementRunResult{}

	resolved, err := SweepDueTimedGrants(ctx, db, logger, time.Now().UTC())
	if err != nil {
		return result, err
	}
	result.TimedGrantsResolved = resolved

	result.UnlockEvents, err = GenerateUnlockSpendingEvents(ctx, db, logger, workerId, 0)
	if err != nil {
		return result, err
	}

	result.SubscriptionEvents, err = GenerateSubscriptionSpendingEvents(ctx, db, logger, 0)
	if err != nil {
		return result, err
	}

	result.Royalties, err = ResolveRoyalties(ctx, db, logger, 0)
	if err != nil {
		return result, err
	}

	result.Payouts, err = AggregatePayouts(ctx, db, logger, period)
	if err != nil {
		return result, err
	}

	return result, nil
}

const settlementRunHandler = "SettlementRun"

// RunSettlementOnce wraps RunSettlement in a durable idempotency key when the
// caller supplies one, so a scheduler retry with the same run key does not
// repeat a pass that already succeeded. Returns skipped=true for such a
// replay. An empty runKey falls back to a plain run.
func RunSettlementOnce(ctx context.Context, db *gorm.DB, logger *logrus.Logger, workerId string, period models.SettlementPeriod, runKey string) (result SettlementRunResult, skipped bool, err error) {
	if runKey == "" {
		result, err = RunSettlement(ctx, db, logger, workerId, period)
		return result, false, err
	}

	skip, err := BeginIdempotency(db.WithContext(ctx), settlementRunHandler, runKey)
	if err != nil {
		return result, false, err
	}
	if skip {
		return result, true, nil
	}

	result, err = RunSettlement(ctx, db, logger, workerId, period)
	if err != nil {
		_ = MarkIdempotencyFailed(db.WithContext(ctx), settlementRunHandler, runKey, err)
		return result, false, err
	}
	return result, false, MarkIdempotencySucceeded(db.WithContext(ctx), settlementRunHandler, runKey)
}
