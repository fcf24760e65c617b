package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/serialpress/novels_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrGrantNotPending   = errors.New("grant is not pending")
	ErrActiveGrantExists = errors.New("an active grant already exists")
	ErrInvalidMethod     = errors.New("invalid unlock method for this operation")
)

// FreshnessRule decides whether an unlock counts as a "newly read" chapter
// for engagement accounting. The canonical rule differs per product surface,
// so it is injected, not hard-coded; nothing in settlement depends on it.
type FreshnessRule func(grant *models.AccessGrant, at time.Time) bool

// AccessPolicy carries the tunable parts of the unlock state machine.
type AccessPolicy struct {
	TimedUnlockWait time.Duration
	Freshness       FreshnessRule
}

// DefaultAccessPolicy reads the wait from env and treats every first unlock
// as fresh.
func DefaultAccessPolicy() AccessPolicy {
	return AccessPolicy{
		TimedUnlockWait: config.TimedUnlockWait(),
		Freshness: func(grant *models.AccessGrant, at time.Time) bool {
			return grant.ResolvedAt != nil && grant.ResolvedAt.Year() == at.Year() && grant.ResolvedAt.YearDay() == at.YearDay()
		},
	}
}

// RequestAccess is the single entry point for a reader opening a chapter.
//
// Resolution order, first match wins:
//  1. an existing non-cancelled grant is returned as-is (due timed grants
//     resolve lazily here)
//  2. free chapter -> Unlocked/Free
//  3. active subscription covering the novel -> Unlocked/Subscription
//  4. payWith Key/Karma -> balance debited and grant Unlocked atomically
//  5. otherwise a Pending/Timed grant with unlock_at = now + wait
//
// payWith is empty when the reader has not offered to spend. Insufficient
// balance rolls the whole transaction back; no grant row survives.
//
// The second return value is the policy's freshness verdict for this read,
// consumed by engagement accounting; settlement ignores it.
func RequestAccess(ctx context.Context, db *gorm.DB, logger *logrus.Logger, policy AccessPolicy, readerId, chapterId int, payWith models.BalanceKind) (*models.AccessGrant, bool, error) {

	chapter, err := models.GetChapterPricing(ctx, chapterId)
	if err != nil {
		config.LogError(logger, "accessLedger.go", "RequestAccess", "GetChapterPricing", chapterId, err)
		return nil, false, err
	}

	now := time.Now().UTC()
	var grant *models.AccessGrant

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireReaderUnlockLock(tx, readerId); err != nil {
			return err
		}
		defer ReleaseReaderUnlockLock(tx, readerId)

		existing, err := models.GetActiveGrant(tx, readerId, chapterId, true)
		if err == nil {
			grant = existing
			if existing.Status == models.GrantStatusPending && existing.UnlockAt != nil && !now.Before(*existing.UnlockAt) {
				if err := existing.MarkUnlocked(tx, now); err != nil {
					return err
				}
				existing.Status = models.GrantStatusUnlocked
				existing.ResolvedAt = &now
			}
			return nil
		}
		if !errors.Is(err, utils.ErrorRecordNotFound) {
			return err
		}

		grant, err = createGrant(ctx, tx, policy, chapter, readerId, payWith, now)
		return err
	})
	if err != nil {
		if !errors.Is(err, models.ErrInsufficientBalance) {
			config.LogError(logger, "accessLedger.go", "RequestAccess", "Transaction", map[string]interface{}{"readerId": readerId, "chapterId": chapterId}, err)
		}
		return nil, false, err
	}

	fresh := policy.Freshness != nil && policy.Freshness(grant, now)
	return grant, fresh, nil
}

// createGrant applies steps 2-5 of the resolution order. Runs under the
// reader's advisory lock with no active grant present.
func createGrant(ctx context.Context, tx *gorm.DB, policy AccessPolicy, chapter *models.Chapter, readerId int, payWith models.BalanceKind, now time.Time) (*models.AccessGrant, error) {

	grant := models.AccessGrant{
		ReaderId:    readerId,
		ChapterId:   chapter.ID,
		Active:      utils.Ptr(true),
		Cost:        decimal.Zero,
		RequestedAt: now,
	}

	switch {
	case chapter.IsFree:
		grant.Method = models.UnlockMethodFree
		grant.Status = models.GrantStatusUnlocked
		grant.ResolvedAt = &now

	default:
		subscribed, err := models.HasActiveSubscription(tx, readerId, chapter.NovelId, now)
		if err != nil {
			return nil, err
		}
		if subscribed {
			grant.Method = models.UnlockMethodSubscription
			grant.Status = models.GrantStatusUnlocked
			grant.ResolvedAt = &now
			break
		}
		if payWith == models.BalanceKindKey || payWith == models.BalanceKindKarma {
			cost := chapter.Price(payWith)
			if err := models.DebitBalance(tx, readerId, payWith, cost); err != nil {
				return nil, err
			}
			if payWith == models.BalanceKindKarma {
				grant.Method = models.UnlockMethodKarma
			} else {
				grant.Method = models.UnlockMethodKey
			}
			grant.Status = models.GrantStatusUnlocked
			grant.Cost = cost
			grant.ResolvedAt = &now
			break
		}
		unlockAt := now.Add(policy.TimedUnlockWait)
		grant.Method = models.UnlockMethodTimed
		grant.Status = models.GrantStatusPending
		grant.UnlockAt = &unlockAt
	}

	if err := tx.Create(&grant).Error; err != nil {
		return nil, err
	}
	if grant.Status == models.GrantStatusUnlocked {
		if err := models.PublishUnlock(ctx, tx, &grant, chapter.NovelId, now); err != nil {
			return nil, err
		}
	}
	return &grant, nil
}

// ResolvePending transitions a due Pending grant to Unlocked. Safe to call
// before unlock_at (returns the grant unchanged) and after a concurrent
// resolution (the guarded UPDATE is a no-op).
func ResolvePending(ctx context.Context, db *gorm.DB, logger *logrus.Logger, readerId, chapterId int) (*models.AccessGrant, error) {

	now := time.Now().UTC()
	var grant *models.AccessGrant

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := models.GetActiveGrant(tx, readerId, chapterId, true)
		if err != nil {
			return err
		}
		grant = existing
		if existing.Status != models.GrantStatusPending {
			return nil
		}
		if existing.UnlockAt == nil || now.Before(*existing.UnlockAt) {
			return nil
		}
		if err := existing.MarkUnlocked(tx, now); err != nil {
			return err
		}
		existing.Status = models.GrantStatusUnlocked
		existing.ResolvedAt = &now

		chapter, err := models.GetChapter2(tx, chapterId)
		if err != nil {
			return err
		}
		// no-op for unpaid methods; paid pending grants would publish here
		return models.PublishUnlock(ctx, tx, existing, chapter.NovelId, now)
	})
	if err != nil {
		config.LogError(logger, "accessLedger.go", "ResolvePending", "Transaction", map[string]interface{}{"readerId": readerId, "chapterId": chapterId}, err)
		return nil, err
	}
	return grant, nil
}

// CancelPending lets a reader pay to skip the wait: the pending grant is
// marked Cancelled and a fresh Unlocked grant with newMethod is created in
// the same transaction. Never leaves two non-cancelled grants behind.
func CancelPending(ctx context.Context, db *gorm.DB, logger *logrus.Logger, readerId, chapterId int, newMethod models.UnlockMethod) (*models.AccessGrant, error) {

	if newMethod == models.UnlockMethodTimed {
		return nil, ErrInvalidMethod
	}

	chapter, err := models.GetChapterPricing(ctx, chapterId)
	if err != nil {
		config.LogError(logger, "accessLedger.go", "CancelPending", "GetChapterPricing", chapterId, err)
		return nil, err
	}

	now := time.Now().UTC()
	var grant *models.AccessGrant

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireReaderUnlockLock(tx, readerId); err != nil {
			return err
		}
		defer ReleaseReaderUnlockLock(tx, readerId)

		existing, err := models.GetActiveGrant(tx, readerId, chapterId, true)
		if err != nil {
			return err
		}
		if existing.Status != models.GrantStatusPending {
			return ErrGrantNotPending
		}
		if err := existing.MarkCancelled(tx); err != nil {
			return err
		}

		replacement := models.AccessGrant{
			ReaderId:    readerId,
			ChapterId:   chapterId,
			Active:      utils.Ptr(true),
			Method:      newMethod,
			Status:      models.GrantStatusUnlocked,
			Cost:        decimal.Zero,
			RequestedAt: existing.RequestedAt,
			ResolvedAt:  &now,
		}
		if newMethod.IsPaid() {
			kind, err := newMethod.BalanceKind()
			if err != nil {
				return err
			}
			replacement.Cost = chapter.Price(kind)
			if err := models.DebitBalance(tx, readerId, kind, replacement.Cost); err != nil {
				return err
			}
		}
		if err := tx.Create(&replacement).Error; err != nil {
			return err
		}
		grant = &replacement
		return models.PublishUnlock(ctx, tx, &replacement, chapter.NovelId, now)
	})
	if err != nil {
		if !errors.Is(err, models.ErrInsufficientBalance) && !errors.Is(err, ErrGrantNotPending) {
			config.LogError(logger, "accessLedger.go", "CancelPending", "Transaction", map[string]interface{}{"readerId": readerId, "chapterId": chapterId}, err)
		}
		return nil, err
	}
	return grant, nil
}

// ReGrant creates a fresh grant for a (reader, chapter) whose history is all
// cancelled. Terminal rows are never mutated; this is the only way back in.
func ReGrant(ctx context.Context, db *gorm.DB, logger *logrus.Logger, policy AccessPolicy, readerId, chapterId int, payWith models.BalanceKind) (*models.AccessGrant, error) {

	chapter, err := models.GetChapterPricing(ctx, chapterId)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var grant *models.AccessGrant

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireReaderUnlockLock(tx, readerId); err != nil {
			return err
		}
		defer ReleaseReaderUnlockLock(tx, readerId)

		if _, err := models.GetActiveGrant(tx, readerId, chapterId, true); err == nil {
			return ErrActiveGrantExists
		} else if !errors.Is(err, utils.ErrorRecordNotFound) {
			return err
		}
		grant, err = createGrant(ctx, tx, policy, chapter, readerId, payWith, now)
		return err
	})
	if err != nil {
		if !errors.Is(err, models.ErrInsufficientBalance) && !errors.Is(err, ErrActiveGrantExists) {
			config.LogError(logger, "accessLedger.go", "ReGrant", "Transaction", map[string]interface{}{"readerId": readerId, "chapterId": chapterId}, err)
		}
		return nil, err
	}
	return grant, nil
}

// SweepDueTimedGrants is the scheduler-facing counterpart of the lazy
// resolution in RequestAccess: it flips every due Pending timed grant to
// Unlocked in one guarded UPDATE. Timed grants carry no cost, so the sweep
// never publishes outbox rows. Returns the number of grants resolved.
func SweepDueTimedGrants(ctx context.Context, db *gorm.DB, logger *logrus.Logger, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Model(&models.AccessGrant{}).
		Where("status = ? AND method = ? AND unlock_at <= ?", models.GrantStatusPending, models.UnlockMethodTimed, now).
		Updates(map[string]interface{}{
			"status":      models.GrantStatusUnlocked,
			"resolved_at": now,
		})
	if result.Error != nil {
		config.LogError(logger, "accessLedger.go", "SweepDueTimedGrants", "Updates", now, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
