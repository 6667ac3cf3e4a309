package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/zenpay/zenpay/pkg/db/pagination"
)

type CreateItemRequest struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// UpdateItemRequest re-prices or renames an item. A price change produces a
// new revision; name/unit changes edit the active revision in place.
type UpdateItemRequest struct {
	Code      string           `json:"-"`
	Name      *string          `json:"name,omitempty"`
	Unit      *string          `json:"unit,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type GetItemRequest struct {
	Code string
}

type ListItemRequest struct {
	Page pagination.Page
}

type ListItemResponse struct {
	Items []PricedItem `json:"items"`
}

type Service interface {
	Create(context.Context, CreateItemRequest) (PricedItem, error)
	Update(context.Context, UpdateItemRequest) (PricedItem, error)
	GetByCode(context.Context, GetItemRequest) (PricedItem, error)
	List(context.Context, ListItemRequest) (ListItemResponse, error)
	Delete(context.Context, GetItemRequest) error
}

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidItem    = errors.New("invalid_item")
	ErrInvalidPrice   = errors.New("invalid_unit_price")
	ErrCodeExists     = errors.New("item_code_exists")
	ErrNotFound       = errors.New("not_found")
)
