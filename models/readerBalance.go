package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// ReaderBalance is one wallet (keys or karma) belonging to a reader.
// Debits happen inside the unlock transaction, under the reader's advisory
// lock, so the balance can never go below zero.
type ReaderBalance struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ReaderId  int             `gorm:"not null;index:uniq_reader_kind,unique" json:"reader_id"`
	Kind      BalanceKind     `gorm:"size:10;not null;index:uniq_reader_kind,unique" json:"kind"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// DebitBalance subtracts amount from the reader's wallet within the caller's
// transaction. Returns ErrInsufficientBalance without writing anything when
// the wallet cannot cover the amount.
func DebitBalance(tx *gorm.DB, readerId int, kind BalanceKind, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.New("debit amount cannot be negative")
	}
	if amount.IsZero() {
		return nil
	}

	var balance ReaderBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reader_id = ? AND kind = ?", readerId, kind).
		First(&balance).Error
	if err != nil {
		return err
	}

	if balance.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	return tx.Model(&ReaderBalance{}).
		Where("id = ?", balance.ID).
		Update("balance", balance.Balance.Sub(amount)).Error
}

// CreditBalance adds amount to the reader's wallet (top-ups, refunds).
func CreditBalance(tx *gorm.DB, readerId int, kind BalanceKind, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.New("credit amount cannot be negative")
	}
	var balance ReaderBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reader_id = ? AND kind = ?", readerId, kind).
		First(&balance).Error
	if err != nil {
		return err
	}
	return tx.Model(&ReaderBalance{}).
		Where("id = ?", balance.ID).
		Update("balance", balance.Balance.Add(amount)).Error
}

// GetBalance reads the current wallet value through the caller's transaction.
func GetBalance(tx *gorm.DB, readerId int, kind BalanceKind) (decimal.Decimal, error) {
	var balance ReaderBalance
	err := tx.Where("reader_id = ? AND kind = ?", readerId, kind).First(&balance).Error
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Balance, nil
}
