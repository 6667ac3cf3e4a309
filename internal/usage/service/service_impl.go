package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/internal/accountctx"
	customerdomain "github.com/zenpay/zenpay/internal/customer/domain"
	itemdomain "github.com/zenpay/zenpay/internal/item/domain"
	ledgerdomain "github.com/zenpay/zenpay/internal/ledger/domain"
	"github.com/zenpay/zenpay/internal/observability/metrics"
	"github.com/zenpay/zenpay/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
	ItemRepo     itemdomain.Repository
	Ledger       ledgerdomain.Service
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	customerRepo customerdomain.Repository
	itemRepo     itemdomain.Repository
	ledger       ledgerdomain.Service
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("usage.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		itemRepo:     p.ItemRepo,
		ledger:       p.Ledger,
		metrics:      p.Metrics,
	}
}

// errDuplicateUsage aborts the record transaction when the idempotency key
// lost the insert race; the caller re-reads the winning row.
var errDuplicateUsage = errors.New("duplicate_usage_event")

func (s *Service) Record(ctx context.Context, req domain.RecordUsageRequest) (domain.UsageEvent, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.UsageEvent{}, domain.ErrInvalidAccount
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return domain.UsageEvent{}, domain.ErrInvalidCustomer
	}
	itemCode := strings.TrimSpace(req.ItemCode)
	if itemCode == "" {
		return domain.UsageEvent{}, domain.ErrInvalidItem
	}
	if req.Quantity.IsNegative() {
		return domain.UsageEvent{}, domain.ErrInvalidQuantity
	}

	var idempotencyKey *string
	if req.IdempotencyKey != nil {
		key := strings.TrimSpace(*req.IdempotencyKey)
		if key != "" {
			idempotencyKey = &key
		}
	}

	// Fast path for retries: a key that already has an event returns it
	// verbatim, no second debit. The unique index still backs the racing case.
	if idempotencyKey != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, s.db, accountID, *idempotencyKey)
		if err != nil {
			return domain.UsageEvent{}, err
		}
		if existing != nil {
			return *existing, nil
		}
	}

	customer, err := s.customerRepo.FindByExternalID(ctx, s.db, accountID, customerID)
	if err != nil {
		return domain.UsageEvent{}, err
	}
	if customer == nil {
		return domain.UsageEvent{}, domain.ErrNotFound
	}

	item, err := s.itemRepo.FindActiveByCode(ctx, s.db, accountID, itemCode)
	if err != nil {
		return domain.UsageEvent{}, err
	}
	if item == nil {
		return domain.UsageEvent{}, domain.ErrNotFound
	}

	now := time.Now().UTC()
	recordedAt := now
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}

	event := domain.UsageEvent{
		ID:              s.genID.Generate(),
		AccountID:       accountID,
		CustomerID:      customer.ID,
		ItemID:          item.ID,
		ItemCode:        item.Code,
		Quantity:        req.Quantity,
		UnitPrice:       item.UnitPrice,
		Cost:            req.Quantity.Mul(item.UnitPrice),
		IdempotencyKey:  idempotencyKey,
		ReportingStatus: domain.StatusUnreported,
		RecordedAt:      recordedAt,
		Metadata:        datatypes.JSONMap{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Metadata != nil {
		event.Metadata = datatypes.JSONMap(req.Metadata)
	}

	debit := req.DeductCredit && event.Cost.IsPositive()
	if debit {
		// Held across commit so the balance check and the event insert are
		// one atomic step against concurrent debits.
		unlock := s.ledger.LockCustomer(accountID, customer.ID)
		defer unlock()
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.InsertIfAbsent(ctx, tx, &event)
		if err != nil {
			return err
		}
		if !inserted {
			return errDuplicateUsage
		}
		if debit {
			description := fmt.Sprintf("usage: %s x %s", item.Code, req.Quantity.String())
			_, err := s.ledger.ApplyDebit(ctx, tx, accountID, customer.ID, event.Cost.Neg(), ledgerdomain.KindUsageDebit, description)
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errDuplicateUsage) && idempotencyKey != nil {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, s.db, accountID, *idempotencyKey)
			if findErr != nil {
				return domain.UsageEvent{}, findErr
			}
			if existing != nil {
				return *existing, nil
			}
		}
		return domain.UsageEvent{}, err
	}

	s.metrics.RecordUsageEvent(event.ItemCode)
	s.log.Info("usage recorded",
		zap.String("customer_id", customerID),
		zap.String("item_code", event.ItemCode),
		zap.String("quantity", event.Quantity.String()),
		zap.String("cost", event.Cost.String()),
		zap.Bool("debited", debit),
	)
	return event, nil
}

func (s *Service) List(ctx context.Context, req domain.ListUsageRequest) (domain.ListUsageResponse, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.ListUsageResponse{}, domain.ErrInvalidAccount
	}

	filter := domain.ListFilter{
		ItemCode: strings.TrimSpace(req.ItemCode),
		From:     req.From,
		To:       req.To,
	}

	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		customer, err := s.customerRepo.FindByExternalID(ctx, s.db, accountID, customerID)
		if err != nil {
			return domain.ListUsageResponse{}, err
		}
		if customer == nil {
			return domain.ListUsageResponse{}, domain.ErrNotFound
		}
		filter.CustomerID = customer.ID
	}

	events, err := s.repo.List(ctx, s.db, accountID, filter, req.Page)
	if err != nil {
		return domain.ListUsageResponse{}, err
	}
	return domain.ListUsageResponse{Events: events}, nil
}
