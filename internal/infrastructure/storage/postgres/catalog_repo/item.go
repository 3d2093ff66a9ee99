package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sitestock/internal/core/id"
	"sitestock/internal/domain/catalogs/item"
	"sitestock/internal/infrastructure/storage/postgres"
)

const itemsTable = "cat_items"

// ItemRepo implements item.Repository.
type ItemRepo struct {
	*BaseCatalogRepo[*item.Item]
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			itemsTable,
			postgres.ExtractDBColumns[item.Item](),
			func() *item.Item { return &item.Item{} },
		),
	}
}

// GetByIDs loads several items at once, keyed by id. Missing ids are
// simply absent from the map; callers decide whether that is an error.
func (r *ItemRepo) GetByIDs(ctx context.Context, itemIDs []id.ID) (map[id.ID]*item.Item, error) {
	result := make(map[id.ID]*item.Item, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	sql, args, err := r.Builder().
		Select(postgres.ExtractDBColumns[item.Item]()...).
		From(itemsTable).
		Where(squirrel.Eq{"id": itemIDs, "deletion_mark": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*item.Item
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get by ids: %w", err)
	}

	for _, it := range items {
		result[it.ID] = it
	}
	return result, nil
}

var _ item.Repository = (*ItemRepo)(nil)
