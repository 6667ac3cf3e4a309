package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is an end user of an account, addressed by the caller-supplied
// external ID which is unique within the account.
type Customer struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	AccountID  snowflake.ID      `gorm:"column:account_id;not null;uniqueIndex:ux_customers_account_external,priority:1" json:"account_id"`
	ExternalID string            `gorm:"type:text;not null;uniqueIndex:ux_customers_account_external,priority:2" json:"customer_id"`
	Name       string            `gorm:"type:text" json:"name,omitempty"`
	Email      string            `gorm:"type:text" json:"email,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
