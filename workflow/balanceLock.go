package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireReaderUnlockLock serializes unlock requests per reader across
// instances using MySQL advisory locks. Two concurrent RequestAccess calls
// for the same reader queue here, so balance reads inside the transaction
// always see the prior debit.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that runs the unlock transaction.
func AcquireReaderUnlockLock(tx *gorm.DB, readerId int) error {
	lockName := fmt.Sprintf("unlock:%d", readerId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire unlock lock for reader_id=%d", readerId)
	}
	return nil
}

func ReleaseReaderUnlockLock(tx *gorm.DB, readerId int) {
	lockName := fmt.Sprintf("unlock:%d", readerId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
