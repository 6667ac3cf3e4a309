package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusUnreported   = "unreported"
	StatusReported     = "reported"
	StatusReportFailed = "report_failed"
)

// UsageEvent is an immutable metering record. Item code and unit price are
// snapshotted at record time so later catalog changes never re-price history.
// Only reporting_status and updated_at change after insert.
type UsageEvent struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	AccountID       snowflake.ID      `json:"account_id" gorm:"index:ix_usage_events_account_customer"`
	CustomerID      snowflake.ID      `json:"customer_id" gorm:"index:ix_usage_events_account_customer"`
	ItemID          snowflake.ID      `json:"item_id"`
	ItemCode        string            `json:"item_code"`
	Quantity        decimal.Decimal   `json:"quantity" gorm:"type:numeric(20,8)"`
	UnitPrice       decimal.Decimal   `json:"unit_price" gorm:"type:numeric(20,8)"`
	Cost            decimal.Decimal   `json:"cost" gorm:"type:numeric(20,8)"`
	IdempotencyKey  *string           `json:"idempotency_key,omitempty"`
	ReportingStatus string            `json:"reporting_status"`
	RecordedAt      time.Time         `json:"recorded_at" gorm:"index"`
	Metadata        datatypes.JSONMap `json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (UsageEvent) TableName() string {
	return "usage_events"
}
