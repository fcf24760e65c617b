package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Payout is the single payable unit owed to one contributor for one period.
// uniq_contrib_period guarantees at most one row regardless of how many times
// aggregation runs; two concurrent aggregators converge on the same row.
type Payout struct {
	ID                 int              `gorm:"primary_key" json:"id"`
	ContributorId      int              `gorm:"not null;index:uniq_contrib_period,unique" json:"contributor_id"`
	SettlementPeriod   SettlementPeriod `gorm:"size:7;not null;index:uniq_contrib_period,unique" json:"settlement_period"`
	BaseAmount         decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"base_amount"`
	PayoutCurrencyCode string           `gorm:"size:3;not null" json:"payout_currency_code"`
	PayoutAmount       decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"payout_amount"`
	FxRate             decimal.Decimal  `gorm:"type:decimal(20,6);not null" json:"fx_rate"`
	Status             PayoutStatus     `gorm:"size:20;not null;default:'Pending';index" json:"status"`
	PaidAt             *time.Time       `json:"paid_at"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetPayoutForUpdate locks the (contributor, period) row inside the caller's
// transaction, or returns gorm.ErrRecordNotFound.
func GetPayoutForUpdate(tx *gorm.DB, contributorId int, period SettlementPeriod) (*Payout, error) {
	var payout Payout
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contributor_id = ? AND settlement_period = ?", contributorId, period).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func GetPayoutsForPeriod(tx *gorm.DB, period SettlementPeriod) ([]*Payout, error) {
	var payouts []*Payout
	err := tx.Where("settlement_period = ?", period).
		Order("contributor_id").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}
