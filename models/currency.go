package models

import (
	"context"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/utils"
)

type Currency struct {
	ID            int       `gorm:"primary_key" json:"id"`
	Code          string    `gorm:"size:3;not null;unique" json:"code" binding:"required"`
	Name          string    `gorm:"size:100" json:"name"`
	DecimalPlaces int32     `gorm:"default:2" json:"decimal_places"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetCurrencies(ctx context.Context) ([]*Currency, error) {
	return utils.FetchAllModels[Currency](ctx)
}

// GetCurrencyByCode reads through Redis with a DB fallback; currency rows
// are effectively immutable reference data.
func GetCurrencyByCode(ctx context.Context, code string) (*Currency, error) {
	var currency Currency
	redisKey := "currency:" + code
	exists, err := config.GetRedisObject(redisKey, &currency)
	if err != nil {
		return nil, err
	}
	if exists {
		return &currency, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("code = ?", code).First(&currency).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := config.SetRedisObject(redisKey, &currency, 0); err != nil {
		return nil, err
	}
	return &currency, nil
}
