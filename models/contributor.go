package models

import (
	"context"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/utils"
	"gorm.io/gorm"
)

// Contributor is anyone the platform owes money to: authors, editors and
// chief editors alike. PayoutCurrencyCode drives the FX step of aggregation.
type Contributor struct {
	ID                 int       `gorm:"primary_key" json:"id"`
	Name               string    `gorm:"size:100;not null" json:"name" binding:"required"`
	PayoutCurrencyCode string    `gorm:"size:3;default:'USD'" json:"payout_currency_code"`
	Status             string    `gorm:"size:20;default:'Active'" json:"status"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetContributor(ctx context.Context, id int) (*Contributor, error) {
	return utils.FetchSingleModel[Contributor](ctx, id)
}

func GetContributor2(tx *gorm.DB, id int) (*Contributor, error) {
	var contributor Contributor
	if err := tx.First(&contributor, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &contributor, nil
}

type NewContributor struct {
	Name               string `json:"name" binding:"required"`
	PayoutCurrencyCode string `json:"payout_currency_code"`
}

func CreateContributor(ctx context.Context, input *NewContributor) (*Contributor, error) {
	db := config.GetDB()
	contributor := Contributor{
		Name:               input.Name,
		PayoutCurrencyCode: input.PayoutCurrencyCode,
	}
	if contributor.PayoutCurrencyCode == "" {
		contributor.PayoutCurrencyCode = config.BaseCurrencyCode()
	}
	if err := db.WithContext(ctx).Create(&contributor).Error; err != nil {
		return nil, err
	}
	return &contributor, nil
}
