package site

import (
	"context"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
)

// Repository defines the interface for Site persistence.
type Repository interface {
	Create(ctx context.Context, s *Site) error
	GetByID(ctx context.Context, siteID id.ID) (*Site, error)
	GetByCode(ctx context.Context, code string) (*Site, error)
	Update(ctx context.Context, s *Site) error
	Delete(ctx context.Context, siteID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Site], error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
