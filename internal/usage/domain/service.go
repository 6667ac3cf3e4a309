package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zenpay/zenpay/pkg/db/pagination"
)

type RecordUsageRequest struct {
	CustomerID     string          `json:"customer_id"`
	ItemCode       string          `json:"item_code"`
	Quantity       decimal.Decimal `json:"quantity"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	DeductCredit   bool            `json:"deduct_credit"`
	RecordedAt     *time.Time      `json:"recorded_at,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

type ListUsageRequest struct {
	CustomerID string
	ItemCode   string
	From       *time.Time
	To         *time.Time
	Page       pagination.Page
}

type ListUsageResponse struct {
	Events []UsageEvent `json:"events"`
}

type Service interface {
	Record(context.Context, RecordUsageRequest) (UsageEvent, error)
	List(context.Context, ListUsageRequest) (ListUsageResponse, error)
}

var (
	ErrInvalidAccount  = errors.New("invalid_account")
	ErrInvalidCustomer = errors.New("invalid_customer_id")
	ErrInvalidItem     = errors.New("invalid_item")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrNotFound        = errors.New("not_found")
)
