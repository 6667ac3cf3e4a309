package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/internal/item/domain"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.PricedItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *domain.PricedItem) error {
	return db.WithContext(ctx).
		Model(&domain.PricedItem{}).
		Where("account_id = ? AND id = ?", item.AccountID, item.ID).
		Updates(map[string]any{
			"name":       item.Name,
			"unit":       item.Unit,
			"unit_price": item.UnitPrice,
			"active":     item.Active,
			"updated_at": item.UpdatedAt,
		}).Error
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, accountID snowflake.ID, code string) error {
	return db.WithContext(ctx).
		Model(&domain.PricedItem{}).
		Where("account_id = ? AND code = ? AND active = ?", accountID, code, true).
		Update("active", false).Error
}

func (r *repo) FindActiveByCode(ctx context.Context, db *gorm.DB, accountID snowflake.ID, code string) (*domain.PricedItem, error) {
	var item domain.PricedItem
	err := db.WithContext(ctx).
		Where("account_id = ? AND code = ? AND active = ?", accountID, code, true).
		Order("revision DESC").
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, accountID snowflake.ID, page pagination.Page) ([]domain.PricedItem, error) {
	page = page.Normalize()
	var items []domain.PricedItem
	err := db.WithContext(ctx).
		Where("account_id = ? AND active = ?", accountID, true).
		Order("code ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&items).Error
	return items, err
}
