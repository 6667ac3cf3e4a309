package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	CustomerID snowflake.ID
	ItemCode   string
	From       *time.Time
	To         *time.Time
}

type Repository interface {
	// InsertIfAbsent writes the event unless one with the same
	// (account_id, idempotency_key) already exists. Returns whether a row
	// was written.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, event *UsageEvent) (bool, error)
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, accountID snowflake.ID, key string) (*UsageEvent, error)
	List(ctx context.Context, db *gorm.DB, accountID snowflake.ID, filter ListFilter, page pagination.Page) ([]UsageEvent, error)

	// FetchUnreported returns events still owed to the billing provider:
	// unreported ones, plus failed ones whose last attempt predates retryBefore.
	FetchUnreported(ctx context.Context, db *gorm.DB, limit int, retryBefore time.Time) ([]UsageEvent, error)
	MarkReported(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	MarkReportFailed(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
