package models

import (
	"log"

	"github.com/serialpress/novels_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Reader{}, &ReaderBalance{},
		&Contributor{},
		&Novel{}, &Chapter{},
		&AccessGrant{},
		&Subscription{}, &SubscriptionPayment{},
		&SpendingEvent{},
		&RoyaltyContract{}, &RoyaltyRecord{},
		&Payout{},
		&Currency{}, &CurrencyExchange{},
		&UnlockOutboxRecord{},
		&IdempotencyKey{},
		&BatchCheckpoint{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
