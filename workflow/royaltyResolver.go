package workflow

import (
	"context"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ResolveRoyalties walks every spending event past the stage checkpoint and
// writes one royalty record per resolvable role. A role with no effective
// contract is skipped with a logged reason; the remaining roles of the same
// event still settle. Re-runs over overlapping ranges are no-ops through the
// (source_event_id, role) uniqueness.
func ResolveRoyalties(ctx context.Context, db *gorm.DB, logger *logrus.Logger, batchSize int) (BatchCounts, error) {

	counts := BatchCounts{}
	if batchSize <= 0 {
		batchSize = 200
	}

	cursor, err := models.GetCheckpoint(db.WithContext(ctx), models.CheckpointStageRoyaltyResolver)
	if err != nil {
		config.LogError(logger, "royaltyResolver.go", "ResolveRoyalties", "GetCheckpoint", nil, err)
		return counts, err
	}

	for {
		var events []models.SpendingEvent
		err := db.WithContext(ctx).
			Where("id > ?", cursor).
			Order("id ASC").
			Limit(batchSize).
			Find(&events).Error
		if err != nil {
			config.LogError(logger, "royaltyResolver.go", "ResolveRoyalties", "FetchEvents", cursor, err)
			return counts, err
		}
		if len(events) == 0 {
			return counts, nil
		}

		for i := range events {
			event := &events[i]
			created, skipped, err := resolveEventRoyalties(ctx, db, logger, event)
			if err != nil {
				config.LogError(logger, "royaltyResolver.go", "ResolveRoyalties", "resolveEventRoyalties", event, err)
				return counts, err
			}
			counts.Created += created
			counts.Skipped += skipped
			cursor = event.ID
			if err := models.AdvanceCheckpoint(db.WithContext(ctx), models.CheckpointStageRoyaltyResolver, cursor); err != nil {
				config.LogError(logger, "royaltyResolver.go", "ResolveRoyalties", "AdvanceCheckpoint", cursor, err)
				return counts, err
			}
		}
	}
}

// responsibleContributors maps each royalty role to the contributor the event
// should pay. Chapter-unlock events honor the chapter's editor override; a
// chapter may have a different editor than the novel's current default.
func responsibleContributors(tx *gorm.DB, event *models.SpendingEvent) (map[models.RoyaltyRole]int, error) {

	novel, err := models.GetNovel2(tx, event.NovelId)
	if err != nil {
		return nil, err
	}

	responsible := map[models.RoyaltyRole]int{
		models.RoyaltyRoleAuthor:      novel.AuthorId,
		models.RoyaltyRoleEditor:      novel.DefaultEditorId,
		models.RoyaltyRoleChiefEditor: novel.DefaultChiefEditorId,
	}

	if event.SourceType == models.SpendingSourceChapterUnlock {
		var outbox models.UnlockOutboxRecord
		if err := tx.Where("grant_id = ?", event.SourceId).First(&outbox).Error; err != nil {
			return nil, err
		}
		chapter, err := models.GetChapter2(tx, outbox.ChapterId)
		if err != nil {
			return nil, err
		}
		responsible[models.RoyaltyRoleEditor] = chapter.ResponsibleEditorId(novel)
		responsible[models.RoyaltyRoleChiefEditor] = chapter.ResponsibleChiefEditorId(novel)
	}

	return responsible, nil
}

func resolveEventRoyalties(ctx context.Context, db *gorm.DB, logger *logrus.Logger, event *models.SpendingEvent) (created int, skipped int, err error) {

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		responsible, err := responsibleContributors(tx, event)
		if err != nil {
			return err
		}

		periodStart := event.SettlementPeriod.Start()
		hundred := decimal.NewFromInt(100)

		for _, role := range models.RoyaltyRoles {
			contributorId := responsible[role]
			if contributorId == 0 {
				continue
			}

			candidates, err := models.GetEffectiveContracts(tx, event.NovelId, role, periodStart)
			if err != nil {
				return err
			}
			contract := SelectContract(candidates)
			if contract == nil {
				// missing contract skips this role only, never the event
				config.LogSkip(logger, "royaltyResolver.go", "resolveEventRoyalties", "no effective contract",
					map[string]interface{}{"eventId": event.ID, "novelId": event.NovelId, "role": role})
				skipped++
				continue
			}

			record := models.RoyaltyRecord{
				ContributorId:    contract.ContributorId,
				NovelId:          event.NovelId,
				SettlementPeriod: event.SettlementPeriod,
				Role:             role,
				GrossAmount:      event.Amount,
				SharePercent:     contract.SharePercent,
				NetAmount:        event.Amount.Mul(contract.SharePercent).DivRound(hundred, 4),
				SourceEventId:    event.ID,
			}
			if err := tx.Create(&record).Error; err != nil {
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
