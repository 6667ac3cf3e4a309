package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/internal/accountctx"
	"github.com/zenpay/zenpay/internal/item/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
		log:   p.Log.Named("item.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateItemRequest) (domain.PricedItem, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.PricedItem{}, domain.ErrInvalidAccount
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.PricedItem{}, domain.ErrInvalidItem
	}
	if req.UnitPrice.IsNegative() {
		return domain.PricedItem{}, domain.ErrInvalidPrice
	}

	existing, err := s.repo.FindActiveByCode(ctx, s.db, accountID, code)
	if err != nil {
		return domain.PricedItem{}, err
	}
	if existing != nil {
		return domain.PricedItem{}, domain.ErrCodeExists
	}

	now := time.Now().UTC()
	item := domain.PricedItem{
		ID:        s.genID.Generate(),
		AccountID: accountID,
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		Unit:      strings.TrimSpace(req.Unit),
		UnitPrice: req.UnitPrice,
		Revision:  1,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		return domain.PricedItem{}, err
	}

	s.log.Info("item created",
		zap.String("code", item.Code),
		zap.String("unit_price", item.UnitPrice.String()),
	)
	return item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateItemRequest) (domain.PricedItem, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.PricedItem{}, domain.ErrInvalidAccount
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.PricedItem{}, domain.ErrInvalidItem
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return domain.PricedItem{}, domain.ErrInvalidPrice
	}

	current, err := s.repo.FindActiveByCode(ctx, s.db, accountID, code)
	if err != nil {
		return domain.PricedItem{}, err
	}
	if current == nil {
		return domain.PricedItem{}, domain.ErrNotFound
	}

	now := time.Now().UTC()

	if req.UnitPrice != nil && !req.UnitPrice.Equal(current.UnitPrice) {
		// Re-pricing supersedes the active revision instead of editing it,
		// so already-recorded usage keeps pointing at the price it was
		// charged under.
		next := domain.PricedItem{
			ID:        s.genID.Generate(),
			AccountID: accountID,
			Code:      code,
			Name:      current.Name,
			Unit:      current.Unit,
			UnitPrice: *req.UnitPrice,
			Revision:  current.Revision + 1,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.Name != nil {
			next.Name = strings.TrimSpace(*req.Name)
		}
		if req.Unit != nil {
			next.Unit = strings.TrimSpace(*req.Unit)
		}
		// Retire-and-insert is one transaction; a failed insert must not
		// strand the code with no active revision.
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.Deactivate(ctx, tx, accountID, code); err != nil {
				return err
			}
			return s.repo.Insert(ctx, tx, &next)
		})
		if err != nil {
			return domain.PricedItem{}, err
		}
		s.log.Info("item re-priced",
			zap.String("code", code),
			zap.Int("revision", next.Revision),
			zap.String("unit_price", next.UnitPrice.String()),
		)
		return next, nil
	}

	if req.Name != nil {
		current.Name = strings.TrimSpace(*req.Name)
	}
	if req.Unit != nil {
		current.Unit = strings.TrimSpace(*req.Unit)
	}
	current.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, current); err != nil {
		return domain.PricedItem{}, err
	}
	return *current, nil
}

func (s *Service) GetByCode(ctx context.Context, req domain.GetItemRequest) (domain.PricedItem, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.PricedItem{}, domain.ErrInvalidAccount
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.PricedItem{}, domain.ErrInvalidItem
	}

	item, err := s.repo.FindActiveByCode(ctx, s.db, accountID, code)
	if err != nil {
		return domain.PricedItem{}, err
	}
	if item == nil {
		return domain.PricedItem{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListItemRequest) (domain.ListItemResponse, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.ListItemResponse{}, domain.ErrInvalidAccount
	}

	items, err := s.repo.ListActive(ctx, s.db, accountID, req.Page)
	if err != nil {
		return domain.ListItemResponse{}, err
	}
	return domain.ListItemResponse{Items: items}, nil
}

func (s *Service) Delete(ctx context.Context, req domain.GetItemRequest) error {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.ErrInvalidAccount
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.ErrInvalidItem
	}

	current, err := s.repo.FindActiveByCode(ctx, s.db, accountID, code)
	if err != nil {
		return err
	}
	if current == nil {
		return domain.ErrNotFound
	}

	// Soft delete: revisions stay on disk so historic usage stays priced.
	return s.repo.Deactivate(ctx, s.db, accountID, code)
}
