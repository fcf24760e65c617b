package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/serialpress/novels_backend/utils"
	"github.com/serialpress/novels_backend/workflow"
	"gorm.io/gorm"
)

// Regenerates spending events over an id range by rewinding the subscription
// checkpoint and re-running both generators. Safe because event generation is
// idempotent: existing (source, period) rows are skipped, never duplicated.
func main() {
	fromId := flag.Int("from-payment-id", 0, "Rewind the subscription checkpoint to this payment id (exclusive). 0 reprocesses everything.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetActorIdInContext(ctx, 0)
	ctx = utils.SetActorNameInContext(ctx, "SpendingBackfill")

	// AdvanceCheckpoint only moves forward, so a rewind writes directly.
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.BatchCheckpoint{}).
			Where("stage = ?", models.CheckpointStageSubscriptionEvents).
			Update("cursor_id", *fromId).Error
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to rewind checkpoint: %v\n", err)
		os.Exit(1)
	}

	logger := config.GetLogger()
	workerId := "backfill-" + uuid.NewString()[:8]

	unlocks, err := workflow.GenerateUnlockSpendingEvents(ctx, db, logger, workerId, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unlock event generation failed: %v\n", err)
		os.Exit(1)
	}
	subscriptions, err := workflow.GenerateSubscriptionSpendingEvents(ctx, db, logger, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "subscription event generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("backfill complete: unlocks created=%d skipped=%d, subscriptions created=%d skipped=%d\n",
		unlocks.Created, unlocks.Skipped, subscriptions.Created, subscriptions.Skipped)
}
