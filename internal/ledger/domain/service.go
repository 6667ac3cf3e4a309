package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreditRequest struct {
	CustomerID  string          `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type DebitRequest struct {
	CustomerID  string          `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
}

type BalanceRequest struct {
	CustomerID string
}

type HistoryRequest struct {
	CustomerID string
	Page       pagination.Page
}

type HistoryResponse struct {
	Entries []LedgerEntry `json:"entries"`
}

// Service owns all balance movements. Debits on the same customer are
// serialized so that concurrent spends can never drive the balance negative.
type Service interface {
	Credit(context.Context, CreditRequest) (LedgerEntry, error)
	Debit(context.Context, DebitRequest) (LedgerEntry, error)
	Balance(context.Context, BalanceRequest) (decimal.Decimal, error)
	History(context.Context, HistoryRequest) (HistoryResponse, error)

	// LockCustomer takes the per-customer debit lock and returns the release
	// func. Callers that debit through ApplyDebit must hold this lock across
	// their whole transaction, commit included.
	LockCustomer(accountID, customerID snowflake.ID) func()

	// ApplyDebit appends a debit entry inside the caller's transaction after
	// verifying the balance covers it. The caller holds the customer lock.
	ApplyDebit(ctx context.Context, tx *gorm.DB, accountID, customerID snowflake.ID, amount decimal.Decimal, kind, description string) (LedgerEntry, error)
}

var (
	ErrInvalidAccount     = errors.New("invalid_account")
	ErrInvalidCustomer    = errors.New("invalid_customer_id")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidKind        = errors.New("invalid_kind")
	ErrNotFound           = errors.New("not_found")
	ErrInsufficientCredit = errors.New("insufficient_credit")
)
