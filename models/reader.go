package models

import (
	"context"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/utils"
	"gorm.io/gorm"
)

type Reader struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Status    string    `gorm:"size:20;default:'Active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetReader(ctx context.Context, id int) (*Reader, error) {
	return utils.FetchSingleModel[Reader](ctx, id)
}

type NewReader struct {
	Name string `json:"name" binding:"required"`
}

// CreateReader also seeds both wallet rows so debits never race row creation.
func CreateReader(ctx context.Context, input *NewReader) (*Reader, error) {
	db := config.GetDB()
	reader := Reader{Name: input.Name}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reader).Error; err != nil {
			return err
		}
		balances := []ReaderBalance{
			{ReaderId: reader.ID, Kind: BalanceKindKey},
			{ReaderId: reader.ID, Kind: BalanceKindKarma},
		}
		return tx.Create(&balances).Error
	})
	if err != nil {
		return nil, err
	}
	return &reader, nil
}
