package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *PricedItem) error
	Update(ctx context.Context, db *gorm.DB, item *PricedItem) error
	Deactivate(ctx context.Context, db *gorm.DB, accountID snowflake.ID, code string) error
	FindActiveByCode(ctx context.Context, db *gorm.DB, accountID snowflake.ID, code string) (*PricedItem, error)
	ListActive(ctx context.Context, db *gorm.DB, accountID snowflake.ID, page pagination.Page) ([]PricedItem, error)
}
