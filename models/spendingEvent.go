package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpendingEvent is the append-only record of revenue attributable to a novel
// within one settlement period. Rows are never updated or deleted.
//
// uniq_spending_source is the idempotency key: regenerating events for an
// already-processed (source, period) pair hits the constraint and is skipped.
type SpendingEvent struct {
	ID               int                `gorm:"primary_key" json:"id"`
	ReaderId         int                `gorm:"not null;index" json:"reader_id"`
	NovelId          int                `gorm:"not null;index" json:"novel_id"`
	Amount           decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"amount"`
	SourceType       SpendingSourceType `gorm:"size:20;not null;index:uniq_spending_source,unique" json:"source_type"`
	SourceId         int                `gorm:"not null;index:uniq_spending_source,unique" json:"source_id"`
	SettlementPeriod SettlementPeriod   `gorm:"size:7;not null;index:uniq_spending_source,unique;index" json:"settlement_period"`
	OccurredAt       time.Time          `gorm:"not null" json:"occurred_at"`
	CreatedAt        time.Time          `gorm:"autoCreateTime" json:"created_at"`
}
