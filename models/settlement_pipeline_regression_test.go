package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/serialpress/novels_backend/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end settlement pipeline against real MySQL + Redis: paid unlock under
// concurrency, outbox drain, subscription proration, royalty resolution and
// payout aggregation, with every batch stage re-run to prove idempotency.
func TestSettlementPipelineEndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()
	logger := config.GetLogger()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "novels_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	// base currency, contributors, novel and chapters
	if err := db.Create(&models.Currency{Code: "USD", Name: "US Dollar", DecimalPlaces: 2}).Error; err != nil {
		t.Fatalf("create currency: %v", err)
	}
	author, err := models.CreateContributor(ctx, &models.NewContributor{Name: "Author"})
	if err != nil {
		t.Fatalf("CreateContributor(author): %v", err)
	}
	editor, err := models.CreateContributor(ctx, &models.NewContributor{Name: "Editor"})
	if err != nil {
		t.Fatalf("CreateContributor(editor): %v", err)
	}
	chief, err := models.CreateContributor(ctx, &models.NewContributor{Name: "Chief Editor"})
	if err != nil {
		t.Fatalf("CreateContributor(chief): %v", err)
	}
	novel, err := models.CreateNovel(ctx, &models.NewNovel{
		Title:                "Ninth Ascension",
		AuthorId:             author.ID,
		DefaultEditorId:      editor.ID,
		DefaultChiefEditorId: chief.ID,
	})
	if err != nil {
		t.Fatalf("CreateNovel: %v", err)
	}
	freeChapter, err := models.CreateChapter(ctx, &models.NewChapter{
		NovelId: novel.ID, Number: 1, Title: "Prologue", IsFree: true,
	})
	if err != nil {
		t.Fatalf("CreateChapter(free): %v", err)
	}
	paidChapter, err := models.CreateChapter(ctx, &models.NewChapter{
		NovelId:    novel.ID,
		Number:     2,
		Title:      "First Trial",
		PriceKeys:  decimal.NewFromInt(3),
		PriceKarma: decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("CreateChapter(paid): %v", err)
	}

	reader, err := models.CreateReader(ctx, &models.NewReader{Name: "Reader One"})
	if err != nil {
		t.Fatalf("CreateReader: %v", err)
	}
	if err := models.CreditBalance(db, reader.ID, models.BalanceKindKey, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("CreditBalance: %v", err)
	}

	effectiveFrom := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	contracts := []models.RoyaltyContract{
		{NovelId: novel.ID, Role: models.RoyaltyRoleAuthor, ContributorId: author.ID, SharePercent: decimal.NewFromInt(60), EffectiveFrom: effectiveFrom, Status: models.ContractStatusActive},
		{NovelId: novel.ID, Role: models.RoyaltyRoleEditor, ContributorId: editor.ID, SharePercent: decimal.NewFromInt(10), EffectiveFrom: effectiveFrom, Status: models.ContractStatusActive},
		{NovelId: novel.ID, Role: models.RoyaltyRoleChiefEditor, ContributorId: chief.ID, SharePercent: decimal.NewFromInt(5), EffectiveFrom: effectiveFrom, Status: models.ContractStatusActive},
	}
	for i := range contracts {
		if err := db.Create(&contracts[i]).Error; err != nil {
			t.Fatalf("create contract: %v", err)
		}
	}

	policy := workflow.DefaultAccessPolicy()

	// 1) concurrent paid unlocks must debit exactly once
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := workflow.RequestAccess(ctx, db, logger, policy, reader.ID, paidChapter.ID, models.BalanceKindKey); err != nil {
				t.Errorf("RequestAccess: %v", err)
			}
		}()
	}
	wg.Wait()

	keys, err := models.GetBalance(db, reader.ID, models.BalanceKindKey)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if keys.Cmp(decimal.NewFromInt(7)) != 0 {
		t.Fatalf("expected key balance 7 after one debit, got %s", keys)
	}
	var activeGrants int64
	if err := db.Model(&models.AccessGrant{}).
		Where("reader_id = ? AND chapter_id = ? AND active IS NOT NULL", reader.ID, paidChapter.ID).
		Count(&activeGrants).Error; err != nil {
		t.Fatalf("count grants: %v", err)
	}
	if activeGrants != 1 {
		t.Fatalf("expected exactly 1 active grant, got %d", activeGrants)
	}

	// 2) free chapter unlocks but publishes nothing
	freeGrant, fresh, err := workflow.RequestAccess(ctx, db, logger, policy, reader.ID, freeChapter.ID, "")
	if err != nil {
		t.Fatalf("RequestAccess(free): %v", err)
	}
	if freeGrant.Method != models.UnlockMethodFree || freeGrant.Status != models.GrantStatusUnlocked {
		t.Fatalf("expected Unlocked/Free grant, got %s/%s", freeGrant.Status, freeGrant.Method)
	}
	if !fresh {
		t.Fatalf("a first unlock resolved today must count as newly read")
	}
	var outboxRows int64
	if err := db.Model(&models.UnlockOutboxRecord{}).Count(&outboxRows).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if outboxRows != 1 {
		t.Fatalf("expected 1 outbox row (paid unlock only), got %d", outboxRows)
	}

	// 3) outbox drain, then a replay that must find nothing
	counts, err := workflow.GenerateUnlockSpendingEvents(ctx, db, logger, "test-worker", 50)
	if err != nil {
		t.Fatalf("GenerateUnlockSpendingEvents: %v", err)
	}
	if counts.Created != 1 {
		t.Fatalf("expected 1 unlock event created, got %+v", counts)
	}
	counts, err = workflow.GenerateUnlockSpendingEvents(ctx, db, logger, "test-worker", 50)
	if err != nil {
		t.Fatalf("GenerateUnlockSpendingEvents rerun: %v", err)
	}
	if counts.Created != 0 {
		t.Fatalf("rerun must create no events, got %+v", counts)
	}

	// 4) subscription payment prorated across three periods
	if _, err := models.RecordSubscriptionPayment(ctx, &models.NewSubscriptionPayment{
		ReaderId:     reader.ID,
		NovelId:      novel.ID,
		Amount:       decimal.RequireFromString("30.00"),
		CurrencyCode: "USD",
		ServiceStart: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		ServiceEnd:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("RecordSubscriptionPayment: %v", err)
	}
	counts, err = workflow.GenerateSubscriptionSpendingEvents(ctx, db, logger, 100)
	if err != nil {
		t.Fatalf("GenerateSubscriptionSpendingEvents: %v", err)
	}
	if counts.Created != 3 {
		t.Fatalf("expected 3 subscription events, got %+v", counts)
	}
	counts, err = workflow.GenerateSubscriptionSpendingEvents(ctx, db, logger, 100)
	if err != nil {
		t.Fatalf("GenerateSubscriptionSpendingEvents rerun: %v", err)
	}
	if counts.Created != 0 {
		t.Fatalf("rerun past the checkpoint must create nothing, got %+v", counts)
	}

	var janEvent models.SpendingEvent
	if err := db.Where("source_type = ? AND settlement_period = ?", models.SpendingSourceSubscription, "2025-01").
		First(&janEvent).Error; err != nil {
		t.Fatalf("fetch january event: %v", err)
	}
	if janEvent.Amount.Cmp(decimal.RequireFromString("8.18")) != 0 {
		t.Fatalf("expected january share 8.18, got %s", janEvent.Amount)
	}

	// 5) royalties: 4 events x 3 roles
	counts, err = workflow.ResolveRoyalties(ctx, db, logger, 100)
	if err != nil {
		t.Fatalf("ResolveRoyalties: %v", err)
	}
	if counts.Created != 12 || counts.Skipped != 0 {
		t.Fatalf("expected 12 royalty records, got %+v", counts)
	}

	// 6) payout aggregation for january, then convergent re-run
	counts, err = workflow.AggregatePayouts(ctx, db, logger, "2025-01")
	if err != nil {
		t.Fatalf("AggregatePayouts: %v", err)
	}
	if counts.Created != 3 {
		t.Fatalf("expected 3 payouts created, got %+v", counts)
	}
	payouts, err := models.GetPayoutsForPeriod(db, "2025-01")
	if err != nil {
		t.Fatalf("GetPayoutsForPeriod: %v", err)
	}
	wantTotals := map[int]string{
		author.ID: "4.908",
		editor.ID: "0.818",
		chief.ID:  "0.409",
	}
	var authorPayout *models.Payout
	for _, p := range payouts {
		want, ok := wantTotals[p.ContributorId]
		if !ok {
			t.Fatalf("unexpected payout for contributor %d", p.ContributorId)
		}
		if p.BaseAmount.Cmp(decimal.RequireFromString(want)) != 0 {
			t.Fatalf("contributor %d: expected base amount %s, got %s", p.ContributorId, want, p.BaseAmount)
		}
		if p.FxRate.Cmp(decimal.NewFromInt(1)) != 0 {
			t.Fatalf("contributor %d: expected base-currency rate 1, got %s", p.ContributorId, p.FxRate)
		}
		if p.ContributorId == author.ID {
			authorPayout = p
		}
	}

	counts, err = workflow.AggregatePayouts(ctx, db, logger, "2025-01")
	if err != nil {
		t.Fatalf("AggregatePayouts rerun: %v", err)
	}
	if counts.Created != 0 || counts.Updated != 3 {
		t.Fatalf("rerun must update in place, got %+v", counts)
	}

	// 7) confirmation is terminal and shields the row from re-aggregation
	confirmed, err := workflow.ConfirmPayout(ctx, db, logger, authorPayout.ID, models.PayoutStatusPaid)
	if err != nil {
		t.Fatalf("ConfirmPayout: %v", err)
	}
	if confirmed.Status != models.PayoutStatusPaid || confirmed.PaidAt == nil {
		t.Fatalf("expected Paid payout with paid_at, got %+v", confirmed)
	}
	if _, err := workflow.ConfirmPayout(ctx, db, logger, authorPayout.ID, models.PayoutStatusFailed); err != workflow.ErrPayoutNotPending {
		t.Fatalf("expected ErrPayoutNotPending on double confirmation, got %v", err)
	}
	counts, err = workflow.AggregatePayouts(ctx, db, logger, "2025-01")
	if err != nil {
		t.Fatalf("AggregatePayouts after confirmation: %v", err)
	}
	if counts.Skipped != 1 || counts.Updated != 2 {
		t.Fatalf("settled payout must be skipped, got %+v", counts)
	}

	// 8) a novel with a hole in its contract coverage and a contributor
	// without an exchange rate: both are skipped without derailing the run
	if err := db.Create(&models.Currency{Code: "GBP", Name: "Pound Sterling", DecimalPlaces: 2}).Error; err != nil {
		t.Fatalf("create currency: %v", err)
	}
	author2, err := models.CreateContributor(ctx, &models.NewContributor{Name: "Author Two"})
	if err != nil {
		t.Fatalf("CreateContributor(author2): %v", err)
	}
	chief2, err := models.CreateContributor(ctx, &models.NewContributor{Name: "Chief Two", PayoutCurrencyCode: "GBP"})
	if err != nil {
		t.Fatalf("CreateContributor(chief2): %v", err)
	}
	novel2, err := models.CreateNovel(ctx, &models.NewNovel{
		Title:                "Tenth Descent",
		AuthorId:             author2.ID,
		DefaultEditorId:      editor.ID, // the role is staffed but never contracted
		DefaultChiefEditorId: chief2.ID,
	})
	if err != nil {
		t.Fatalf("CreateNovel(novel2): %v", err)
	}
	contracts2 := []models.RoyaltyContract{
		{NovelId: novel2.ID, Role: models.RoyaltyRoleAuthor, ContributorId: author2.ID, SharePercent: decimal.NewFromInt(50), EffectiveFrom: effectiveFrom, Status: models.ContractStatusActive},
		{NovelId: novel2.ID, Role: models.RoyaltyRoleChiefEditor, ContributorId: chief2.ID, SharePercent: decimal.NewFromInt(5), EffectiveFrom: effectiveFrom, Status: models.ContractStatusActive},
	}
	for i := range contracts2 {
		if err := db.Create(&contracts2[i]).Error; err != nil {
			t.Fatalf("create contract: %v", err)
		}
	}
	if _, err := models.RecordSubscriptionPayment(ctx, &models.NewSubscriptionPayment{
		ReaderId:     reader.ID,
		NovelId:      novel2.ID,
		Amount:       decimal.RequireFromString("10.00"),
		CurrencyCode: "USD",
		ServiceStart: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		ServiceEnd:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("RecordSubscriptionPayment(novel2): %v", err)
	}
	counts, err = workflow.GenerateSubscriptionSpendingEvents(ctx, db, logger, 100)
	if err != nil {
		t.Fatalf("GenerateSubscriptionSpendingEvents(novel2): %v", err)
	}
	if counts.Created != 1 {
		t.Fatalf("expected 1 single-period event, got %+v", counts)
	}

	counts, err = workflow.ResolveRoyalties(ctx, db, logger, 100)
	if err != nil {
		t.Fatalf("ResolveRoyalties(novel2): %v", err)
	}
	if counts.Created != 2 || counts.Skipped != 1 {
		t.Fatalf("uncontracted editor role must be skipped while the others resolve, got %+v", counts)
	}

	counts, err = workflow.AggregatePayouts(ctx, db, logger, "2025-04")
	if err != nil {
		t.Fatalf("AggregatePayouts(2025-04): %v", err)
	}
	if counts.Created != 1 || counts.Skipped != 1 {
		t.Fatalf("contributor without an exchange rate must be skipped, got %+v", counts)
	}
	aprPayouts, err := models.GetPayoutsForPeriod(db, "2025-04")
	if err != nil {
		t.Fatalf("GetPayoutsForPeriod(2025-04): %v", err)
	}
	if len(aprPayouts) != 1 || aprPayouts[0].ContributorId != author2.ID {
		t.Fatalf("expected a single payout for the author, got %+v", aprPayouts)
	}
	if aprPayouts[0].BaseAmount.Cmp(decimal.RequireFromString("5")) != 0 {
		t.Fatalf("expected base amount 5, got %s", aprPayouts[0].BaseAmount)
	}

	// 9) skip-wait: a pending timed grant is cancelled and replaced by a paid
	// unlock in one step, and the cancelled history blocks nothing twice
	reader2, err := models.CreateReader(ctx, &models.NewReader{Name: "Reader Two"})
	if err != nil {
		t.Fatalf("CreateReader(reader2): %v", err)
	}
	if err := models.CreditBalance(db, reader2.ID, models.BalanceKindKarma, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("CreditBalance(karma): %v", err)
	}
	pending, _, err := workflow.RequestAccess(ctx, db, logger, policy, reader2.ID, paidChapter.ID, "")
	if err != nil {
		t.Fatalf("RequestAccess(no payment): %v", err)
	}
	if pending.Status != models.GrantStatusPending || pending.Method != models.UnlockMethodTimed || pending.UnlockAt == nil {
		t.Fatalf("expected Pending/Timed grant with unlock_at, got %+v", pending)
	}
	skipped, err := workflow.CancelPending(ctx, db, logger, reader2.ID, paidChapter.ID, models.UnlockMethodKarma)
	if err != nil {
		t.Fatalf("CancelPending: %v", err)
	}
	if skipped.Status != models.GrantStatusUnlocked || skipped.Method != models.UnlockMethodKarma {
		t.Fatalf("expected Unlocked/Karma replacement, got %s/%s", skipped.Status, skipped.Method)
	}
	karma, err := models.GetBalance(db, reader2.ID, models.BalanceKindKarma)
	if err != nil {
		t.Fatalf("GetBalance(karma): %v", err)
	}
	if karma.Cmp(decimal.NewFromInt(20)) != 0 {
		t.Fatalf("expected karma balance 20 after skip-wait, got %s", karma)
	}
	var grantRows, activeRows int64
	if err := db.Model(&models.AccessGrant{}).
		Where("reader_id = ? AND chapter_id = ?", reader2.ID, paidChapter.ID).
		Count(&grantRows).Error; err != nil {
		t.Fatalf("count grants: %v", err)
	}
	if err := db.Model(&models.AccessGrant{}).
		Where("reader_id = ? AND chapter_id = ? AND active IS NOT NULL", reader2.ID, paidChapter.ID).
		Count(&activeRows).Error; err != nil {
		t.Fatalf("count active grants: %v", err)
	}
	if grantRows != 2 || activeRows != 1 {
		t.Fatalf("expected cancelled history plus one active grant, got %d rows / %d active", grantRows, activeRows)
	}
	if _, err := workflow.ReGrant(ctx, db, logger, policy, reader2.ID, paidChapter.ID, models.BalanceKindKarma); err != workflow.ErrActiveGrantExists {
		t.Fatalf("expected ErrActiveGrantExists, got %v", err)
	}

	// 10) due timed grants resolve both lazily on re-read and in bulk via the
	// sweep; neither path touches the outbox
	zeroWait := workflow.AccessPolicy{TimedUnlockWait: 0}
	reader3, err := models.CreateReader(ctx, &models.NewReader{Name: "Reader Three"})
	if err != nil {
		t.Fatalf("CreateReader(reader3): %v", err)
	}
	reader4, err := models.CreateReader(ctx, &models.NewReader{Name: "Reader Four"})
	if err != nil {
		t.Fatalf("CreateReader(reader4): %v", err)
	}
	if _, _, err := workflow.RequestAccess(ctx, db, logger, zeroWait, reader3.ID, paidChapter.ID, ""); err != nil {
		t.Fatalf("RequestAccess(reader3): %v", err)
	}
	if _, _, err := workflow.RequestAccess(ctx, db, logger, zeroWait, reader4.ID, paidChapter.ID, ""); err != nil {
		t.Fatalf("RequestAccess(reader4): %v", err)
	}
	lazy, _, err := workflow.RequestAccess(ctx, db, logger, zeroWait, reader3.ID, paidChapter.ID, "")
	if err != nil {
		t.Fatalf("RequestAccess(reader3 re-read): %v", err)
	}
	if lazy.Status != models.GrantStatusUnlocked || lazy.Method != models.UnlockMethodTimed {
		t.Fatalf("a due timed grant must resolve on re-read, got %s/%s", lazy.Status, lazy.Method)
	}
	swept, err := workflow.SweepDueTimedGrants(ctx, db, logger, time.Now().UTC())
	if err != nil {
		t.Fatalf("SweepDueTimedGrants: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected the sweep to resolve reader4's grant only, got %d", swept)
	}
	sweptGrant, err := models.GetActiveGrant(db, reader4.ID, paidChapter.ID, false)
	if err != nil {
		t.Fatalf("GetActiveGrant(reader4): %v", err)
	}
	if sweptGrant.Status != models.GrantStatusUnlocked || sweptGrant.ResolvedAt == nil {
		t.Fatalf("expected swept grant Unlocked with resolved_at, got %+v", sweptGrant)
	}
	if err := db.Model(&models.UnlockOutboxRecord{}).Count(&outboxRows).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if outboxRows != 2 {
		t.Fatalf("timed resolutions must not publish; expected 2 outbox rows (key unlock + karma skip-wait), got %d", outboxRows)
	}

	// 11) concurrent first-ever checkpoint advances for one stage must all
	// succeed and land on the highest cursor
	const advanceStage = "PipelineRegressionAdvance"
	var advanceWg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		advanceWg.Add(1)
		go func(cursor int) {
			defer advanceWg.Done()
			if err := models.AdvanceCheckpoint(db, advanceStage, cursor); err != nil {
				t.Errorf("AdvanceCheckpoint(%d): %v", cursor, err)
			}
		}(i)
	}
	advanceWg.Wait()
	cursor, err := models.GetCheckpoint(db, advanceStage)
	if err != nil {
		t.Fatalf("GetCheckpoint: %v", err)
	}
	if cursor != 8 {
		t.Fatalf("expected checkpoint at 8, got %d", cursor)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("novels-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("novels-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=novels_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
