// Package stock provides the stock ledger and site/item balance register.
package stock

import (
	"context"
	"time"

	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// Repository defines persistence operations for the stock register.
type Repository interface {
	// Ledger operations

	// AppendEntries batch-inserts ledger entries. The ledger is append-only:
	// there is no update or delete.
	AppendEntries(ctx context.Context, entries []entity.StockEntry) error

	// GetEntriesByDocument retrieves all ledger entries for a document.
	GetEntriesByDocument(ctx context.Context, documentID id.ID) ([]entity.StockEntry, error)

	// GetEntryHistory returns ledger history for an item.
	GetEntryHistory(ctx context.Context, itemID id.ID, filter EntryFilter) ([]entity.StockEntry, error)

	// Balance operations

	// GetBalance returns current balance for site+item (zero if absent).
	GetBalance(ctx context.Context, siteID, itemID id.ID) (entity.SiteItemBalance, error)

	// GetBalanceForUpdate returns balance with a row lock, creating nothing.
	// A missing row comes back as a zero balance with found=false.
	GetBalanceForUpdate(ctx context.Context, siteID, itemID id.ID) (entity.SiteItemBalance, bool, error)

	// SaveBalance upserts a balance row.
	SaveBalance(ctx context.Context, balance entity.SiteItemBalance) error

	// GetBalancesBySite returns all non-zero balances for a site.
	GetBalancesBySite(ctx context.Context, siteID id.ID, filter BalanceFilter) ([]entity.SiteItemBalance, error)

	// GetBalancesByItem returns balances across all sites for an item.
	GetBalancesByItem(ctx context.Context, itemID id.ID) ([]entity.SiteItemBalance, error)

	// Batch balance operations (expiry-tracked items)

	// GetBatchForUpdate returns the batch balance with a row lock.
	// A missing row comes back as found=false.
	GetBatchForUpdate(ctx context.Context, siteID, itemID id.ID, batchNumber string) (entity.SiteItemBatchBalance, bool, error)

	// SaveBatch upserts a batch balance row.
	SaveBatch(ctx context.Context, batch entity.SiteItemBatchBalance) error

	// GetBatches returns all batch balances for site+item.
	GetBatches(ctx context.Context, siteID, itemID id.ID) ([]entity.SiteItemBatchBalance, error)

	// Reporting

	// GetTurnover calculates receipt and issue totals for a period.
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	ItemIDs     []id.ID
	ExcludeZero bool
}

// EntryFilter for filtering ledger history.
type EntryFilter struct {
	SiteID    *id.ID
	EntryType *entity.EntryType
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}

// TurnoverFilter for turnover reports.
type TurnoverFilter struct {
	SiteID   *id.ID
	ItemID   *id.ID
	FromDate time.Time
	ToDate   time.Time
}

// Turnover represents receipt/issue totals over a period.
type Turnover struct {
	SiteID         id.ID          `json:"siteId,omitempty"`
	ItemID         id.ID          `json:"itemId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Received       types.Quantity `json:"received"`
	Issued         types.Quantity `json:"issued"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
