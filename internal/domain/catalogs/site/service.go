package site

import (
	"context"
	"fmt"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/tx"
	"sitestock/internal/domain"
	"sitestock/pkg/logger"
)

// Service provides business logic for the Site catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new Site service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and persists a new site.
func (s *Service) Create(ctx context.Context, site *Site) error {
	if err := site.Validate(ctx); err != nil {
		return err
	}

	if site.Code != "" {
		exists, err := s.repo.ExistsByCode(ctx, site.Code)
		if err != nil {
			return fmt.Errorf("check site code: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("site", "code", site.Code)
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, site)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "site created", "id", site.ID, "code", site.Code)
	return nil
}

// GetByID retrieves a site.
func (s *Service) GetByID(ctx context.Context, siteID id.ID) (*Site, error) {
	return s.repo.GetByID(ctx, siteID)
}

// Update modifies a site. The code is immutable once set: documents embed it
// in their numbers.
func (s *Service) Update(ctx context.Context, site *Site) error {
	if err := site.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, site.ID)
	if err != nil {
		return err
	}
	if existing.Code != "" && existing.Code != site.Code {
		return apperror.NewValidation("site code cannot be changed").
			WithDetail("field", "code")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, site)
	})
}

// Delete soft-deletes a site.
func (s *Service) Delete(ctx context.Context, siteID id.ID) error {
	return s.repo.Delete(ctx, siteID)
}

// List retrieves sites with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Site], error) {
	return s.repo.List(ctx, filter)
}
