package models

import (
	"context"
	"fmt"
	"time"

	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Chapter struct {
	ID            int             `gorm:"primary_key" json:"id"`
	NovelId       int             `gorm:"not null;index:uniq_novel_chapter,unique" json:"novel_id" binding:"required"`
	Number        int             `gorm:"not null;index:uniq_novel_chapter,unique" json:"number" binding:"required"`
	Title         string          `gorm:"size:255" json:"title"`
	PriceKeys     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_keys"`
	PriceKarma    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_karma"`
	IsFree        bool            `gorm:"default:false" json:"is_free"`
	EditorId      int             `gorm:"default:0" json:"editor_id"`
	ChiefEditorId int             `gorm:"default:0" json:"chief_editor_id"`
	PublishedAt   *time.Time      `json:"published_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Price returns the chapter's cost in the given wallet kind.
func (c *Chapter) Price(kind BalanceKind) decimal.Decimal {
	if kind == BalanceKindKarma {
		return c.PriceKarma
	}
	return c.PriceKeys
}

// ResponsibleEditorId resolves the chapter override, falling back to the
// novel default. A chapter may have a different editor than the novel.
func (c *Chapter) ResponsibleEditorId(novel *Novel) int {
	if c.EditorId != 0 {
		return c.EditorId
	}
	return novel.DefaultEditorId
}

func (c *Chapter) ResponsibleChiefEditorId(novel *Novel) int {
	if c.ChiefEditorId != 0 {
		return c.ChiefEditorId
	}
	return novel.DefaultChiefEditorId
}

func GetChapter(ctx context.Context, id int) (*Chapter, error) {
	return utils.FetchSingleModel[Chapter](ctx, id)
}

func GetChapter2(tx *gorm.DB, id int) (*Chapter, error) {
	var chapter Chapter
	if err := tx.First(&chapter, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &chapter, nil
}

// GetChapterPricing reads pricing through Redis with a DB fallback. Pricing
// changes rarely, and every RequestAccess hits it.
func GetChapterPricing(ctx context.Context, id int) (*Chapter, error) {
	var chapter Chapter
	redisKey := fmt.Sprintf("chapterPricing:%d", id)
	exists, err := config.GetRedisObject(redisKey, &chapter)
	if err != nil {
		return nil, err
	}
	if exists {
		return &chapter, nil
	}

	result, err := utils.FetchSingleModel[Chapter](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(redisKey, result, 10*time.Minute); err != nil {
		return nil, err
	}
	return result, nil
}

type NewChapter struct {
	NovelId       int             `json:"novel_id" binding:"required"`
	Number        int             `json:"number" binding:"required"`
	Title         string          `json:"title"`
	PriceKeys     decimal.Decimal `json:"price_keys"`
	PriceKarma    decimal.Decimal `json:"price_karma"`
	IsFree        bool            `json:"is_free"`
	EditorId      int             `json:"editor_id"`
	ChiefEditorId int             `json:"chief_editor_id"`
}

func CreateChapter(ctx context.Context, input *NewChapter) (*Chapter, error) {
	db := config.GetDB()
	if err := utils.ValidateResourceId[Novel](ctx, input.NovelId); err != nil {
		return nil, err
	}
	chapter := Chapter{
		NovelId:       input.NovelId,
		Number:        input.Number,
		Title:         input.Title,
		PriceKeys:     input.PriceKeys,
		PriceKarma:    input.PriceKarma,
		IsFree:        input.IsFree,
		EditorId:      input.EditorId,
		ChiefEditorId: input.ChiefEditorId,
	}
	if err := db.WithContext(ctx).Create(&chapter).Error; err != nil {
		return nil, err
	}
	// stale pricing must not outlive an edit
	if err := config.RemoveRedisKey(fmt.Sprintf("chapterPricing:%d", chapter.ID)); err != nil {
		return nil, err
	}
	return &chapter, nil
}
