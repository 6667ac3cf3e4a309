package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const (
	KindTopup      = "topup"
	KindUsageDebit = "usage_debit"
	KindAdjustment = "adjustment"
)

// LedgerEntry is one immutable signed movement on a customer's credit
// balance. Rows are never updated or deleted; the balance is always the sum
// of all entries.
type LedgerEntry struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	AccountID   snowflake.ID    `json:"account_id" gorm:"index:ix_ledger_entries_account_customer"`
	CustomerID  snowflake.ID    `json:"customer_id" gorm:"index:ix_ledger_entries_account_customer"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(20,8)"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

func ValidKind(kind string) bool {
	switch kind {
	case KindTopup, KindUsageDebit, KindAdjustment:
		return true
	}
	return false
}
