package item

import (
	"context"

	"sitestock/internal/core/id"
	"sitestock/internal/core/tx"
	"sitestock/internal/domain"
	"sitestock/pkg/logger"
)

// Service provides business logic for the Item catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new Item service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and persists a new item.
func (s *Service) Create(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, it)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "item created", "id", it.ID, "code", it.Code)
	return nil
}

// GetByID retrieves an item.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetByID(ctx, itemID)
}

// Update modifies an item.
func (s *Service) Update(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, it)
	})
}

// Delete soft-deletes an item.
func (s *Service) Delete(ctx context.Context, itemID id.ID) error {
	return s.repo.Delete(ctx, itemID)
}

// List retrieves items with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Item], error) {
	return s.repo.List(ctx, filter)
}
