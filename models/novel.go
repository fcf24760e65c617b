package models

import (
	"context"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/utils"
	"gorm.io/gorm"
)

type Novel struct {
	ID                   int       `gorm:"primary_key" json:"id"`
	Title                string    `gorm:"size:255;not null" json:"title" binding:"required"`
	AuthorId             int       `gorm:"index;not null" json:"author_id" binding:"required"`
	DefaultEditorId      int       `gorm:"default:0" json:"default_editor_id"`
	DefaultChiefEditorId int       `gorm:"default:0" json:"default_chief_editor_id"`
	Status               string    `gorm:"size:20;default:'Ongoing'" json:"status"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetNovel(ctx context.Context, id int) (*Novel, error) {
	return utils.FetchSingleModel[Novel](ctx, id)
}

// GetNovel2 reads through the caller's transaction instead of the global DB.
func GetNovel2(tx *gorm.DB, id int) (*Novel, error) {
	var novel Novel
	if err := tx.First(&novel, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &novel, nil
}

type NewNovel struct {
	Title                string `json:"title" binding:"required"`
	AuthorId             int    `json:"author_id" binding:"required"`
	DefaultEditorId      int    `json:"default_editor_id"`
	DefaultChiefEditorId int    `json:"default_chief_editor_id"`
}

func CreateNovel(ctx context.Context, input *NewNovel) (*Novel, error) {
	db := config.GetDB()
	if err := utils.ValidateResourceId[Contributor](ctx, input.AuthorId); err != nil {
		return nil, err
	}
	novel := Novel{
		Title:                input.Title,
		AuthorId:             input.AuthorId,
		DefaultEditorId:      input.DefaultEditorId,
		DefaultChiefEditorId: input.DefaultChiefEditorId,
	}
	if err := db.WithContext(ctx).Create(&novel).Error; err != nil {
		return nil, err
	}
	return &novel, nil
}
