package domain

import (
	"context"
	"errors"

	"github.com/zenpay/zenpay/pkg/db/pagination"
)

// UpsertCustomerRequest creates a customer or updates the existing one with
// the same external ID. Nil fields leave the stored value untouched.
type UpsertCustomerRequest struct {
	CustomerID string         `json:"customer_id"`
	Name       *string        `json:"name,omitempty"`
	Email      *string        `json:"email,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type GetCustomerRequest struct {
	CustomerID string
}

type ListCustomerRequest struct {
	Page pagination.Page
}

type ListCustomerResponse struct {
	Customers []Customer `json:"customers"`
}

type Service interface {
	Upsert(context.Context, UpsertCustomerRequest) (Customer, error)
	GetByExternalID(context.Context, GetCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	Delete(context.Context, GetCustomerRequest) error
}

var (
	ErrInvalidAccount  = errors.New("invalid_account")
	ErrInvalidCustomer = errors.New("invalid_customer_id")
	ErrNotFound        = errors.New("not_found")
)
