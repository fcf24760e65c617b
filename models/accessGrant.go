package models

import (
	"time"

	"github.com/serialpress/novels_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccessGrant records one reader's right to one chapter.
//
// Lifecycle: Pending -> {Unlocked, Cancelled}. Unlocked and Cancelled are
// terminal; a cancelled history is only ever superseded by a brand-new row.
//
// Active mirrors the status for uniqueness: it is true while the grant is
// Pending or Unlocked and NULL once Cancelled. MySQL unique indexes ignore
// NULLs, so uniq_active_grant enforces "at most one non-cancelled grant per
// (reader, chapter)" while allowing any number of cancelled rows.
type AccessGrant struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ReaderId    int             `gorm:"not null;index:uniq_active_grant,unique" json:"reader_id"`
	ChapterId   int             `gorm:"not null;index:uniq_active_grant,unique" json:"chapter_id"`
	Active      *bool           `gorm:"index:uniq_active_grant,unique" json:"-"`
	Method      UnlockMethod    `gorm:"size:20;not null" json:"method"`
	Status      GrantStatus     `gorm:"size:20;not null;index" json:"status"`
	Cost        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost"`
	UnlockAt    *time.Time      `gorm:"index" json:"unlock_at"`
	RequestedAt time.Time       `gorm:"not null" json:"requested_at"`
	ResolvedAt  *time.Time      `json:"resolved_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetActiveGrant returns the single non-cancelled grant for (reader, chapter),
// or RecordNotFound. forUpdate locks the row for the caller's transaction.
func GetActiveGrant(tx *gorm.DB, readerId, chapterId int, forUpdate bool) (*AccessGrant, error) {
	dbCtx := tx.Where("reader_id = ? AND chapter_id = ? AND active IS NOT NULL", readerId, chapterId)
	if forUpdate {
		dbCtx = dbCtx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var grant AccessGrant
	if err := dbCtx.First(&grant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &grant, nil
}

// MarkCancelled retires a pending grant. The Active column must be cleared in
// the same statement so a replacement row can be inserted in this transaction.
func (g *AccessGrant) MarkCancelled(tx *gorm.DB) error {
	return tx.Model(&AccessGrant{}).
		Where("id = ? AND status = ?", g.ID, GrantStatusPending).
		Updates(map[string]interface{}{
			"status": GrantStatusCancelled,
			"active": nil,
		}).Error
}

// MarkUnlocked transitions Pending -> Unlocked. The status guard keeps the
// transition idempotent under concurrent resolution.
func (g *AccessGrant) MarkUnlocked(tx *gorm.DB, resolvedAt time.Time) error {
	return tx.Model(&AccessGrant{}).
		Where("id = ? AND status = ?", g.ID, GrantStatusPending).
		Updates(map[string]interface{}{
			"status":      GrantStatusUnlocked,
			"resolved_at": resolvedAt,
		}).Error
}
