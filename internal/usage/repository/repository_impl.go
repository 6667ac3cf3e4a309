package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/internal/usage/domain"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, event *domain.UsageEvent) (bool, error) {
	tx := db.WithContext(ctx)
	if event.IdempotencyKey != nil {
		tx = tx.Clauses(buildIdempotencyConflictClause(db))
	}
	result := tx.Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// The idempotency index is partial (idempotency_key IS NOT NULL), so the
// conflict target has to name the predicate where the dialect requires it.
func buildIdempotencyConflictClause(db *gorm.DB) clause.OnConflict {
	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "idempotency_key"}},
		DoNothing: true,
	}
	name := ""
	if db != nil {
		name = db.Dialector.Name()
	}
	if strings.EqualFold(name, "postgres") || strings.EqualFold(name, "sqlite") {
		conflict.TargetWhere = clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "idempotency_key IS NOT NULL"},
		}}
	}
	return conflict
}

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, accountID snowflake.ID, key string) (*domain.UsageEvent, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var event domain.UsageEvent
	err := db.WithContext(ctx).
		Where("account_id = ? AND idempotency_key = ?", accountID, key).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, accountID snowflake.ID, filter domain.ListFilter, page pagination.Page) ([]domain.UsageEvent, error) {
	page = page.Normalize()

	query := db.WithContext(ctx).Where("account_id = ?", accountID)
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.ItemCode != "" {
		query = query.Where("item_code = ?", filter.ItemCode)
	}
	if filter.From != nil {
		query = query.Where("recorded_at >= ?", *filter.From)
	}
	// Both bounds are inclusive.
	if filter.To != nil {
		query = query.Where("recorded_at <= ?", *filter.To)
	}

	var events []domain.UsageEvent
	err := query.
		Order("recorded_at DESC, id DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&events).Error
	return events, err
}

func (r *repo) FetchUnreported(ctx context.Context, db *gorm.DB, limit int, retryBefore time.Time) ([]domain.UsageEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []domain.UsageEvent
	err := db.WithContext(ctx).
		Where("reporting_status = ? OR (reporting_status = ? AND updated_at < ?)",
			domain.StatusUnreported, domain.StatusReportFailed, retryBefore).
		Order("recorded_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *repo) MarkReported(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.UsageEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reporting_status": domain.StatusReported,
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (r *repo) MarkReportFailed(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.UsageEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reporting_status": domain.StatusReportFailed,
			"updated_at":       time.Now().UTC(),
		}).Error
}
