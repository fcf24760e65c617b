package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RoyaltyContract is versioned-by-date reference data maintained outside the
// pipeline. Only one contract per (novel, role) should be effective at any
// instant; the resolver assumes that invariant and applies a deterministic
// tie-break when dirty data violates it.
type RoyaltyContract struct {
	ID            int             `gorm:"primary_key" json:"id"`
	NovelId       int             `gorm:"not null;index:idx_novel_role" json:"novel_id"`
	Role          RoyaltyRole     `gorm:"size:20;not null;index:idx_novel_role" json:"role"`
	ContributorId int             `gorm:"not null;index" json:"contributor_id"`
	SharePercent  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"share_percent"`
	EffectiveFrom time.Time       `gorm:"not null" json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to"` // nil = open-ended
	Status        ContractStatus  `gorm:"size:20;default:'Active'" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// EffectiveAt reports whether the contract's [effective_from, effective_to)
// range contains the instant.
func (c *RoyaltyContract) EffectiveAt(at time.Time) bool {
	if c.EffectiveFrom.After(at) {
		return false
	}
	if c.EffectiveTo != nil && !c.EffectiveTo.After(at) {
		return false
	}
	return true
}

// GetEffectiveContracts returns the active contracts for (novel, role) whose
// effective range contains the instant. May return more than one row when the
// reference data overlaps; the caller picks deterministically.
func GetEffectiveContracts(tx *gorm.DB, novelId int, role RoyaltyRole, at time.Time) ([]*RoyaltyContract, error) {
	var contracts []*RoyaltyContract
	err := tx.Where("novel_id = ? AND role = ? AND status = ?", novelId, role, ContractStatusActive).
		Where("effective_from <= ?", at).
		Where("effective_to IS NULL OR effective_to > ?", at).
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}
