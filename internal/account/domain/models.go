package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Account is a tenant. Every customer, item, ledger entry and usage event
// hangs off exactly one account.
type Account struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text" json:"name"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
