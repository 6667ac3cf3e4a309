package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PricedItem is one revision of a billable catalog entry. Price changes never
// mutate a revision in place; a new row supersedes the old one so usage events
// recorded against the old price stay explainable.
type PricedItem struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	AccountID snowflake.ID    `json:"account_id" gorm:"index:ix_priced_items_account_code"`
	Code      string          `json:"code" gorm:"index:ix_priced_items_account_code"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(20,8)"`
	Revision  int             `json:"revision"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (PricedItem) TableName() string {
	return "priced_items"
}
