package models

import (
	"context"
	"errors"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNoExchangeRate reports that a currency has no recorded rate at or before
// the requested instant. Payout aggregation skips the affected contributor
// and keeps going.
var ErrNoExchangeRate = errors.New("no exchange rate recorded for currency")

// CurrencyExchange records the base-currency -> currency rate observed on one
// date. Payout conversion uses the latest rate at or before aggregation time.
type CurrencyExchange struct {
	ID           int             `gorm:"primary_key" json:"id"`
	CurrencyCode string          `gorm:"size:3;not null;index" json:"currency_code" binding:"required"`
	ExchangeDate time.Time       `gorm:"index;not null" json:"exchange_date" binding:"required"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"exchange_rate"`
	Notes        string          `gorm:"size:255" json:"notes"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCurrencyExchange struct {
	CurrencyCode string          `json:"currency_code" binding:"required"`
	ExchangeDate time.Time       `json:"exchange_date" binding:"required"`
	ExchangeRate decimal.Decimal `json:"exchange_rate" binding:"required"`
	Notes        string          `json:"notes"`
}

func CreateCurrencyExchange(ctx context.Context, input *NewCurrencyExchange) (*CurrencyExchange, error) {
	db := config.GetDB()

	if input.ExchangeRate.IsZero() || input.ExchangeRate.IsNegative() {
		return nil, errors.New("exchange rate must be positive")
	}
	if _, err := GetCurrencyByCode(ctx, input.CurrencyCode); err != nil {
		return nil, errors.New("currency code not found")
	}

	exchange := CurrencyExchange{
		CurrencyCode: input.CurrencyCode,
		ExchangeDate: input.ExchangeDate,
		ExchangeRate: input.ExchangeRate,
		Notes:        input.Notes,
	}
	if err := db.WithContext(ctx).Create(&exchange).Error; err != nil {
		return nil, err
	}
	// new rate invalidates the cached point-in-time lookup
	if err := config.RemoveRedisKey("fxRate:" + input.CurrencyCode); err != nil {
		return nil, err
	}
	return &exchange, nil
}

// GetExchangeRateAt returns the latest recorded rate at or before the given
// instant, converting base currency into code. The base currency itself is
// always 1.0. Cached for the common "rate as of now" aggregation path.
func GetExchangeRateAt(tx *gorm.DB, code string, at time.Time) (decimal.Decimal, error) {
	if code == config.BaseCurrencyCode() {
		return decimal.NewFromInt(1), nil
	}

	var cached CurrencyExchange
	redisKey := "fxRate:" + code
	exists, err := config.GetRedisObject(redisKey, &cached)
	if err != nil {
		return decimal.Zero, err
	}
	if exists && !cached.ExchangeDate.After(at) {
		return cached.ExchangeRate, nil
	}

	var exchange CurrencyExchange
	err = tx.Where("currency_code = ? AND exchange_date <= ?", code, at).
		Order("exchange_date desc, id desc").
		First(&exchange).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, ErrNoExchangeRate
		}
		return decimal.Zero, err
	}
	if err := config.SetRedisObject(redisKey, &exchange, time.Hour); err != nil {
		return decimal.Zero, err
	}
	return exchange.ExchangeRate, nil
}
