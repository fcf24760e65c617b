package models

import (
	"context"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Subscription struct {
	ID        int                `gorm:"primary_key" json:"id"`
	ReaderId  int                `gorm:"not null;index:idx_reader_novel" json:"reader_id"`
	NovelId   int                `gorm:"not null;index:idx_reader_novel" json:"novel_id"`
	StartsAt  time.Time          `gorm:"not null" json:"starts_at"`
	ExpiresAt time.Time          `gorm:"not null;index" json:"expires_at"`
	Status    SubscriptionStatus `gorm:"size:20;default:'Active'" json:"status"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasActiveSubscription reports whether the reader holds an unexpired, active
// subscription covering the novel at the given instant.
func HasActiveSubscription(tx *gorm.DB, readerId, novelId int, at time.Time) (bool, error) {
	var count int64
	err := tx.Model(&Subscription{}).
		Where("reader_id = ? AND novel_id = ? AND status = ?", readerId, novelId, SubscriptionStatusActive).
		Where("starts_at <= ? AND expires_at > ?", at, at).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SubscriptionPayment is the money side of a subscription: one immutable row
// per charge. service_start/service_end bound the paid duration half-open and
// may span several settlement periods.
type SubscriptionPayment struct {
	ID           int             `gorm:"primary_key" json:"id"`
	ReaderId     int             `gorm:"not null;index" json:"reader_id"`
	NovelId      int             `gorm:"not null;index" json:"novel_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CurrencyCode string          `gorm:"size:3;default:'USD'" json:"currency_code"`
	ServiceStart time.Time       `gorm:"not null" json:"service_start"`
	ServiceEnd   time.Time       `gorm:"not null" json:"service_end"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewSubscriptionPayment struct {
	ReaderId     int             `json:"reader_id" binding:"required"`
	NovelId      int             `json:"novel_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	CurrencyCode string          `json:"currency_code"`
	ServiceStart time.Time       `json:"service_start" binding:"required"`
	ServiceEnd   time.Time       `json:"service_end" binding:"required"`
}

// RecordSubscriptionPayment persists the payment and the subscription window
// it buys, in one transaction. The payment row is never updated afterwards.
func RecordSubscriptionPayment(ctx context.Context, input *NewSubscriptionPayment) (*SubscriptionPayment, error) {
	db := config.GetDB()

	payment := SubscriptionPayment{
		ReaderId:     input.ReaderId,
		NovelId:      input.NovelId,
		Amount:       input.Amount,
		CurrencyCode: input.CurrencyCode,
		ServiceStart: input.ServiceStart,
		ServiceEnd:   input.ServiceEnd,
	}
	if payment.CurrencyCode == "" {
		payment.CurrencyCode = config.BaseCurrencyCode()
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		subscription := Subscription{
			ReaderId:  input.ReaderId,
			NovelId:   input.NovelId,
			StartsAt:  input.ServiceStart,
			ExpiresAt: input.ServiceEnd,
			Status:    SubscriptionStatusActive,
		}
		return tx.Create(&subscription).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
