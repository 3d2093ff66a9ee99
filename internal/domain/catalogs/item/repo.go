package item

import (
	"context"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
)

// Repository defines the interface for Item persistence.
type Repository interface {
	Create(ctx context.Context, i *Item) error
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)
	GetByIDs(ctx context.Context, itemIDs []id.ID) (map[id.ID]*Item, error)
	GetByCode(ctx context.Context, code string) (*Item, error)
	Update(ctx context.Context, i *Item) error
	Delete(ctx context.Context, itemID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Item], error)
}
