package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoyaltyRecord is one contributor's share of one spending event. The
// (source_event_id, role) uniqueness makes resolver re-runs no-ops.
type RoyaltyRecord struct {
	ID               int              `gorm:"primary_key" json:"id"`
	ContributorId    int              `gorm:"not null;index:idx_contrib_period" json:"contributor_id"`
	NovelId          int              `gorm:"not null;index" json:"novel_id"`
	SettlementPeriod SettlementPeriod `gorm:"size:7;not null;index:idx_contrib_period" json:"settlement_period"`
	Role             RoyaltyRole      `gorm:"size:20;not null;index:uniq_event_role,unique" json:"role"`
	GrossAmount      decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"gross_amount"`
	SharePercent     decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"share_percent"`
	NetAmount        decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"net_amount"`
	SourceEventId    int              `gorm:"not null;index:uniq_event_role,unique" json:"source_event_id"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
}
