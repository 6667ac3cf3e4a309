package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ReportRequest carries one usage event to the billing provider. CustomerID
// is the customer's external identifier, the one the provider knows.
type ReportRequest struct {
	EventID    string
	ItemCode   string
	CustomerID string
	Quantity   decimal.Decimal
	RecordedAt time.Time
}

// Reporter pushes usage to an external billing provider. Reporting is best
// effort; a failed report never affects recorded usage or ledger state.
type Reporter interface {
	Report(ctx context.Context, req ReportRequest) error
}

var ErrIntegration = errors.New("integration_error")
