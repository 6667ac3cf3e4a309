package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/internal/customer/domain"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("account_id = ? AND id = ?", customer.AccountID, customer.ID).
		Updates(map[string]any{
			"name":       customer.Name,
			"email":      customer.Email,
			"metadata":   customer.Metadata,
			"updated_at": customer.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, accountID snowflake.ID, externalID string) error {
	return db.WithContext(ctx).
		Where("account_id = ? AND external_id = ?", accountID, externalID).
		Delete(&domain.Customer{}).Error
}

func (r *repo) FindByExternalID(ctx context.Context, db *gorm.DB, accountID snowflake.ID, externalID string) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Where("account_id = ? AND external_id = ?", accountID, externalID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Where("account_id = ? AND id = ?", accountID, id).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, accountID snowflake.ID, page pagination.Page) ([]domain.Customer, error) {
	page = page.Normalize()
	var customers []domain.Customer
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&customers).Error
	return customers, err
}
