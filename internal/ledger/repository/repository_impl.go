package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/zenpay/zenpay/internal/ledger/domain"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Append(ctx context.Context, db *gorm.DB, entry *domain.LedgerEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) SumAmount(ctx context.Context, db *gorm.DB, accountID, customerID snowflake.ID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = ? AND customer_id = ?`,
			accountID, customerID).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, accountID, customerID snowflake.ID, page pagination.Page) ([]domain.LedgerEntry, error) {
	page = page.Normalize()
	var entries []domain.LedgerEntry
	err := db.WithContext(ctx).
		Where("account_id = ? AND customer_id = ?", accountID, customerID).
		Order("created_at DESC, id DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&entries).Error
	return entries, err
}
