package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Append(ctx context.Context, db *gorm.DB, entry *LedgerEntry) error
	SumAmount(ctx context.Context, db *gorm.DB, accountID, customerID snowflake.ID) (decimal.Decimal, error)
	List(ctx context.Context, db *gorm.DB, accountID, customerID snowflake.ID, page pagination.Page) ([]LedgerEntry, error)
}
