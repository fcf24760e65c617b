package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/serialpress/novels_backend/utils"
	"github.com/shopspring/decimal"
)

// Seeds a local database with a small catalog, one funded reader and a full
// contract set, enough to exercise the whole settlement pipeline by hand.
func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetActorIdInContext(ctx, 0)
	ctx = utils.SetActorNameInContext(ctx, "SeedDev")

	currencies := []models.Currency{
		{Code: "USD", Name: "US Dollar", DecimalPlaces: 2},
		{Code: "EUR", Name: "Euro", DecimalPlaces: 2},
		{Code: "JPY", Name: "Japanese Yen", DecimalPlaces: 0},
	}
	for i := range currencies {
		if err := db.WithContext(ctx).Where("code = ?", currencies[i].Code).
			FirstOrCreate(&currencies[i]).Error; err != nil {
			fmt.Fprintf(os.Stderr, "seed currency %s: %v\n", currencies[i].Code, err)
			os.Exit(1)
		}
	}

	author, err := models.CreateContributor(ctx, &models.NewContributor{Name: "Dev Author", PayoutCurrencyCode: "USD"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed author: %v\n", err)
		os.Exit(1)
	}
	editor, err := models.CreateContributor(ctx, &models.NewContributor{Name: "Dev Editor", PayoutCurrencyCode: "EUR"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed editor: %v\n", err)
		os.Exit(1)
	}
	chief, err := models.CreateContributor(ctx, &models.NewContributor{Name: "Dev Chief Editor", PayoutCurrencyCode: "USD"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed chief editor: %v\n", err)
		os.Exit(1)
	}

	novel, err := models.CreateNovel(ctx, &models.NewNovel{
		Title:                "The Settled Accounts",
		AuthorId:             author.ID,
		DefaultEditorId:      editor.ID,
		DefaultChiefEditorId: chief.ID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed novel: %v\n", err)
		os.Exit(1)
	}

	for number := 1; number <= 5; number++ {
		input := &models.NewChapter{
			NovelId:    novel.ID,
			Number:     number,
			Title:      fmt.Sprintf("Chapter %d", number),
			PriceKeys:  decimal.NewFromInt(3),
			PriceKarma: decimal.NewFromInt(30),
			IsFree:     number == 1,
		}
		if _, err := models.CreateChapter(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "seed chapter %d: %v\n", number, err)
			os.Exit(1)
		}
	}

	reader, err := models.CreateReader(ctx, &models.NewReader{Name: "Dev Reader"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed reader: %v\n", err)
		os.Exit(1)
	}
	if err := models.CreditBalance(db.WithContext(ctx), reader.ID, models.BalanceKindKey, decimal.NewFromInt(100)); err != nil {
		fmt.Fprintf(os.Stderr, "fund reader keys: %v\n", err)
		os.Exit(1)
	}
	if err := models.CreditBalance(db.WithContext(ctx), reader.ID, models.BalanceKindKarma, decimal.NewFromInt(500)); err != nil {
		fmt.Fprintf(os.Stderr, "fund reader karma: %v\n", err)
		os.Exit(1)
	}

	effectiveFrom := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	contracts := []models.RoyaltyContract{
		{NovelId: novel.ID, Role: models.RoyaltyRoleAuthor, ContributorId: author.ID, SharePercent: decimal.NewFromInt(60), EffectiveFrom: effectiveFrom, Status: models.ContractStatusActive},
		{NovelId: novel.ID, Role: models.RoyaltyRoleEditor, ContributorId: editor.ID, SharePercent: decimal.NewFromInt(10), EffectiveFrom: effectiveFrom, Status: models.ContractStatusActive},
		{NovelId: novel.ID, Role: models.RoyaltyRoleChiefEditor, ContributorId: chief.ID, SharePercent: decimal.NewFromInt(5), EffectiveFrom: effectiveFrom, Status: models.ContractStatusActive},
	}
	for i := range contracts {
		if err := db.WithContext(ctx).Create(&contracts[i]).Error; err != nil {
			fmt.Fprintf(os.Stderr, "seed contract %s: %v\n", contracts[i].Role, err)
			os.Exit(1)
		}
	}

	eurRate, err := utils.ParseDecimal("0.91")
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse fx rate: %v\n", err)
		os.Exit(1)
	}
	rate := models.NewCurrencyExchange{
		CurrencyCode: "EUR",
		ExchangeDate: time.Now().UTC(),
		ExchangeRate: eurRate,
		Notes:        "dev seed",
	}
	if _, err := models.CreateCurrencyExchange(ctx, &rate); err != nil {
		fmt.Fprintf(os.Stderr, "seed fx rate: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded novel=%d reader=%d author=%d editor=%d chief=%d\n",
		novel.ID, reader.ID, author.ID, editor.ID, chief.ID)
}
