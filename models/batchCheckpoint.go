package models

import (
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	CheckpointStageSubscriptionEvents = "SubscriptionSpendingEvents"
	CheckpointStageRoyaltyResolver    = "RoyaltyResolver"
)

// BatchCheckpoint tracks the highest source id a batch stage has fully
// processed. Stages may safely be re-run over ranges at or below the cursor;
// idempotency keys make the overlap a no-op.
type BatchCheckpoint struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Stage     string    `gorm:"size:50;not null;unique" json:"stage"`
	CursorId  int       `gorm:"not null;default:0" json:"cursor_id"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetCheckpoint(tx *gorm.DB, stage string) (int, error) {
	var checkpoint BatchCheckpoint
	err := tx.Where("stage = ?", stage).First(&checkpoint).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return checkpoint.CursorId, nil
}

// AdvanceCheckpoint moves the cursor forward, never backwards. Concurrent
// batch runs therefore converge on the max processed id.
func AdvanceCheckpoint(tx *gorm.DB, stage string, cursorId int) error {
	result := tx.Model(&BatchCheckpoint{}).
		Where("stage = ? AND cursor_id < ?", stage, cursorId).
		Update("cursor_id", cursorId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&BatchCheckpoint{}).Where("stage = ?", stage).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		// existing cursor is already at or past cursorId
		return nil
	}
	if err := tx.Create(&BatchCheckpoint{Stage: stage, CursorId: cursorId}).Error; err != nil {
		var mysqlErr *mysqlDriver.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			// a concurrent run created the row first; converge through the
			// guarded update
			return AdvanceCheckpoint(tx, stage, cursorId)
		}
		return err
	}
	return nil
}
