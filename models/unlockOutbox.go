package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/serialpress/novels_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnlockOutboxRecord is the transactional outbox between the access ledger
// and the spending-event generator. It is written inside the same DB
// transaction that unlocks a paid grant, so a committed paid unlock always
// has exactly one outbox row waiting to become a spending event.
type UnlockOutboxRecord struct {
	ID               int             `gorm:"primary_key" json:"id"`
	GrantId          int             `gorm:"not null;unique" json:"grant_id"`
	ReaderId         int             `gorm:"not null" json:"reader_id"`
	ChapterId        int             `gorm:"not null" json:"chapter_id"`
	NovelId          int             `gorm:"not null" json:"novel_id"`
	Method           UnlockMethod    `gorm:"size:20;not null" json:"method"`
	Cost             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost"`
	ResolvedAt       time.Time       `gorm:"not null" json:"resolved_at"`
	IsProcessed      bool            `gorm:"default:false;index" json:"is_processed"`
	LockedAt         *time.Time      `json:"locked_at"`
	LockedBy         *string         `gorm:"size:100" json:"locked_by"`
	LastProcessError *string         `gorm:"type:text" json:"last_process_error"`
	CorrelationId    string          `gorm:"size:64" json:"correlation_id"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// PublishUnlock writes the outbox row inside the caller's grant transaction.
// Only paid unlocks are published; free and subscription grants carry no
// chapter-level revenue.
func PublishUnlock(ctx context.Context, tx *gorm.DB, grant *AccessGrant, novelId int, resolvedAt time.Time) error {
	if !grant.Method.IsPaid() {
		return nil
	}
	record := UnlockOutboxRecord{
		GrantId:       grant.ID,
		ReaderId:      grant.ReaderId,
		ChapterId:     grant.ChapterId,
		NovelId:       novelId,
		Method:        grant.Method,
		Cost:          grant.Cost,
		ResolvedAt:    resolvedAt,
		IsProcessed:   false,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
