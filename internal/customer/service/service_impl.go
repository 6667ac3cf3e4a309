package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/internal/accountctx"
	"github.com/zenpay/zenpay/internal/customer/domain"
	"github.com/zenpay/zenpay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertCustomerRequest) (domain.Customer, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.Customer{}, domain.ErrInvalidAccount
	}

	externalID := strings.TrimSpace(req.CustomerID)
	if externalID == "" {
		return domain.Customer{}, domain.ErrInvalidCustomer
	}

	now := time.Now().UTC()

	existing, err := s.repo.FindByExternalID(ctx, s.db, accountID, externalID)
	if err != nil {
		return domain.Customer{}, err
	}

	if existing != nil {
		return s.applyUpsert(ctx, existing, req, now)
	}

	customer := domain.Customer{
		ID:         s.genID.Generate(),
		AccountID:  accountID,
		ExternalID: externalID,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Name != nil {
		customer.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		customer.Email = strings.TrimSpace(*req.Email)
	}
	if req.Metadata != nil {
		customer.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, err
		}
		// Lost the first-upsert race on (account_id, external_id);
		// converge on the winning row instead of surfacing a conflict.
		winner, findErr := s.repo.FindByExternalID(ctx, s.db, accountID, externalID)
		if findErr != nil {
			return domain.Customer{}, findErr
		}
		if winner == nil {
			return domain.Customer{}, err
		}
		return s.applyUpsert(ctx, winner, req, now)
	}
	return customer, nil
}

func (s *Service) applyUpsert(ctx context.Context, existing *domain.Customer, req domain.UpsertCustomerRequest, now time.Time) (domain.Customer, error) {
	if req.Name != nil {
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		existing.Email = strings.TrimSpace(*req.Email)
	}
	if req.Metadata != nil {
		existing.Metadata = datatypes.JSONMap(req.Metadata)
	}
	existing.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return domain.Customer{}, err
	}
	return *existing, nil
}

func (s *Service) GetByExternalID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.Customer{}, domain.ErrInvalidAccount
	}

	externalID := strings.TrimSpace(req.CustomerID)
	if externalID == "" {
		return domain.Customer{}, domain.ErrInvalidCustomer
	}

	customer, err := s.repo.FindByExternalID(ctx, s.db, accountID, externalID)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.ListCustomerResponse{}, domain.ErrInvalidAccount
	}

	customers, err := s.repo.List(ctx, s.db, accountID, req.Page)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}
	return domain.ListCustomerResponse{Customers: customers}, nil
}

func (s *Service) Delete(ctx context.Context, req domain.GetCustomerRequest) error {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.ErrInvalidAccount
	}

	externalID := strings.TrimSpace(req.CustomerID)
	if externalID == "" {
		return domain.ErrInvalidCustomer
	}

	existing, err := s.repo.FindByExternalID(ctx, s.db, accountID, externalID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}

	// Ledger entries and usage events are retained; only the catalog record goes away.
	return s.repo.Delete(ctx, s.db, accountID, externalID)
}
