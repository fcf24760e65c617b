package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/serialpress/novels_backend/utils"
	"github.com/serialpress/novels_backend/workflow"
)

func main() {
	periodFlag := flag.String("period", "", "Settlement period (YYYY-MM). Defaults to the previous calendar month.")
	runKeyFlag := flag.String("run-key", "", "Optional idempotency key; a repeated key skips a run that already succeeded.")
	flag.Parse()

	ctx := context.Background()
	// Explicit DB connect (config no longer connects DB in init()).
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	raw := *periodFlag
	if raw == "" {
		raw = models.PeriodOf(time.Now().UTC().AddDate(0, -1, 0)).String()
	}
	period, err := models.ParsePeriod(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid period: %v\n", err)
		os.Exit(1)
	}

	ctx = utils.SetActorIdInContext(ctx, 0)
	ctx = utils.SetActorNameInContext(ctx, "SettlementRun")

	workerId := "cli-" + uuid.NewString()[:8]
	result, skipped, err := workflow.RunSettlementOnce(ctx, db, config.GetLogger(), workerId, period, *runKeyFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "settlement run failed for %s: %v\n", period, err)
		os.Exit(1)
	}
	if skipped {
		fmt.Printf("settlement run for %s already succeeded under key %q, nothing to do\n", period, *runKeyFlag)
		return
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("settlement run complete for %s:\n%s\n", period, out)
}
