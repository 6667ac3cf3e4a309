package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/zenpay/zenpay/internal/accountctx"
	customerdomain "github.com/zenpay/zenpay/internal/customer/domain"
	"github.com/zenpay/zenpay/internal/ledger/domain"
	"github.com/zenpay/zenpay/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	customerRepo customerdomain.Repository
	metrics      *metrics.Metrics

	// One mutex per (account, customer). Debits hold it across the whole
	// transaction; under read committed a lock released before commit would
	// let a racing debit read a stale sum and overdraw.
	locks sync.Map
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("ledger.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		metrics:      p.Metrics,
	}
}

type lockKey struct {
	accountID  snowflake.ID
	customerID snowflake.ID
}

func (s *Service) LockCustomer(accountID, customerID snowflake.ID) func() {
	value, _ := s.locks.LoadOrStore(lockKey{accountID, customerID}, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) resolveCustomer(ctx context.Context, externalID string) (snowflake.ID, *customerdomain.Customer, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return 0, nil, domain.ErrInvalidAccount
	}

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return 0, nil, domain.ErrInvalidCustomer
	}

	customer, err := s.customerRepo.FindByExternalID(ctx, s.db, accountID, externalID)
	if err != nil {
		return 0, nil, err
	}
	if customer == nil {
		return 0, nil, domain.ErrNotFound
	}
	return accountID, customer, nil
}

func (s *Service) Credit(ctx context.Context, req domain.CreditRequest) (domain.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	}

	accountID, customer, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	entry := domain.LedgerEntry{
		ID:          s.genID.Generate(),
		AccountID:   accountID,
		CustomerID:  customer.ID,
		Amount:      req.Amount,
		Kind:        domain.KindTopup,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Append(ctx, s.db, &entry); err != nil {
		return domain.LedgerEntry{}, err
	}

	s.metrics.RecordLedgerEntry(entry.Kind)
	s.log.Info("credit applied",
		zap.String("customer_id", req.CustomerID),
		zap.String("amount", req.Amount.String()),
	)
	return entry, nil
}

func (s *Service) Debit(ctx context.Context, req domain.DebitRequest) (domain.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	}
	kind := req.Kind
	if kind == "" {
		kind = domain.KindAdjustment
	}
	if !domain.ValidKind(kind) {
		return domain.LedgerEntry{}, domain.ErrInvalidKind
	}

	accountID, customer, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	unlock := s.LockCustomer(accountID, customer.ID)
	defer unlock()

	var entry domain.LedgerEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err = s.ApplyDebit(ctx, tx, accountID, customer.ID, req.Amount.Neg(), kind, req.Description)
		return err
	})
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	return entry, nil
}

// ApplyDebit expects a negative amount and the caller to hold the customer
// lock for the duration of tx.
func (s *Service) ApplyDebit(ctx context.Context, tx *gorm.DB, accountID, customerID snowflake.ID, amount decimal.Decimal, kind, description string) (domain.LedgerEntry, error) {
	if !amount.IsNegative() {
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	}

	if tx.Dialector.Name() == "postgres" {
		// Row lock as a second line of defense when several instances share
		// the database; the in-process mutex only covers one of them.
		if err := tx.Exec(`SELECT id FROM customers WHERE id = ? FOR UPDATE`, customerID).Error; err != nil {
			return domain.LedgerEntry{}, err
		}
	}

	balance, err := s.repo.SumAmount(ctx, tx, accountID, customerID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if balance.Add(amount).IsNegative() {
		return domain.LedgerEntry{}, domain.ErrInsufficientCredit
	}

	entry := domain.LedgerEntry{
		ID:          s.genID.Generate(),
		AccountID:   accountID,
		CustomerID:  customerID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Append(ctx, tx, &entry); err != nil {
		return domain.LedgerEntry{}, err
	}

	s.metrics.RecordLedgerEntry(entry.Kind)
	return entry, nil
}

func (s *Service) Balance(ctx context.Context, req domain.BalanceRequest) (decimal.Decimal, error) {
	accountID, customer, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.repo.SumAmount(ctx, s.db, accountID, customer.ID)
}

func (s *Service) History(ctx context.Context, req domain.HistoryRequest) (domain.HistoryResponse, error) {
	accountID, customer, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return domain.HistoryResponse{}, err
	}

	entries, err := s.repo.List(ctx, s.db, accountID, customer.ID, req.Page)
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	return domain.HistoryResponse{Entries: entries}, nil
}
