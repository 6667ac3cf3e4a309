package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	Delete(ctx context.Context, db *gorm.DB, accountID snowflake.ID, externalID string) error
	FindByExternalID(ctx context.Context, db *gorm.DB, accountID snowflake.ID, externalID string) (*Customer, error)
	FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, accountID snowflake.ID, page pagination.Page) ([]Customer, error)
}
