// Package register_repo provides PostgreSQL implementations for register
// repositories.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/registers/stock"
	"sitestock/internal/infrastructure/storage/postgres"
)

const (
	stockEntriesTable = "reg_stock_entries"
	balancesTable     = "reg_site_item_balances"
	batchesTable      = "reg_site_item_batches"
)

var stockEntryColumns = []string{
	"line_id", "document_id", "document_type", "entry_date", "entry_type",
	"site_id", "item_id", "batch_number", "quantity", "unit_rate", "created_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// AppendEntries batch inserts ledger entries. Uses COPY when several rows
// are written inside a transaction.
func (r *StockRepo) AppendEntries(ctx context.Context, entries []entity.StockEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil && len(entries) > 1 {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.LineID, e.DocumentID, e.DocumentType, e.EntryDate, e.EntryType,
				e.SiteID, e.ItemID, e.BatchNumber, e.Quantity, e.UnitRate, e.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockEntriesTable, stockEntryColumns, rows); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockEntriesTable).Columns(stockEntryColumns...)
	for _, e := range entries {
		q = q.Values(
			e.LineID, e.DocumentID, e.DocumentType, e.EntryDate, e.EntryType,
			e.SiteID, e.ItemID, e.BatchNumber, e.Quantity, e.UnitRate, e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}
	return nil
}

// GetEntriesByDocument retrieves all ledger entries of one document.
func (r *StockRepo) GetEntriesByDocument(ctx context.Context, documentID id.ID) ([]entity.StockEntry, error) {
	q := r.builder.Select(stockEntryColumns...).
		From(stockEntriesTable).
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.StockEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

// GetEntryHistory returns ledger history for an item.
func (r *StockRepo) GetEntryHistory(ctx context.Context, itemID id.ID, filter stock.EntryFilter) ([]entity.StockEntry, error) {
	q := r.builder.Select(stockEntryColumns...).
		From(stockEntriesTable).
		Where(squirrel.Eq{"item_id": itemID})

	if filter.SiteID != nil {
		q = q.Where(squirrel.Eq{"site_id": *filter.SiteID})
	}
	if filter.EntryType != nil {
		q = q.Where(squirrel.Eq{"entry_type": *filter.EntryType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"entry_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"entry_date": *filter.ToDate})
	}

	q = q.OrderBy("entry_date DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.StockEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return entries, nil
}

var balanceColumns = []string{
	"site_id", "item_id", "closing_stock", "unit_rate", "closing_value",
	"last_entry_at", "updated_at",
}

// GetBalance returns the current balance for site+item, zero if absent.
func (r *StockRepo) GetBalance(ctx context.Context, siteID, itemID id.ID) (entity.SiteItemBalance, error) {
	q := r.builder.Select(balanceColumns...).
		From(balancesTable).
		Where(squirrel.Eq{"site_id": siteID, "item_id": itemID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return entity.SiteItemBalance{}, fmt.Errorf("build query: %w", err)
	}

	var balance entity.SiteItemBalance
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.NewSiteItemBalance(siteID, itemID), nil
		}
		return entity.SiteItemBalance{}, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// GetBalanceForUpdate returns the balance with a pessimistic row lock.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, siteID, itemID id.ID) (entity.SiteItemBalance, bool, error) {
	sql := `
		SELECT site_id, item_id, closing_stock, unit_rate, closing_value,
		       last_entry_at, updated_at
		FROM reg_site_item_balances
		WHERE site_id = $1 AND item_id = $2
		FOR UPDATE
	`

	var balance entity.SiteItemBalance
	err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &balance, sql, siteID, itemID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return entity.SiteItemBalance{}, false, nil
		}
		return entity.SiteItemBalance{}, false, fmt.Errorf("get balance for update: %w", err)
	}
	return balance, true, nil
}

// SaveBalance upserts a balance row.
func (r *StockRepo) SaveBalance(ctx context.Context, balance entity.SiteItemBalance) error {
	sql := `
		INSERT INTO reg_site_item_balances
			(site_id, item_id, closing_stock, unit_rate, closing_value, last_entry_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (site_id, item_id) DO UPDATE SET
			closing_stock = EXCLUDED.closing_stock,
			unit_rate     = EXCLUDED.unit_rate,
			closing_value = EXCLUDED.closing_value,
			last_entry_at = EXCLUDED.last_entry_at,
			updated_at    = NOW()
	`

	_, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		balance.SiteID, balance.ItemID, balance.ClosingStock,
		balance.UnitRate, balance.ClosingValue, balance.LastEntryAt,
	)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("save balance: %w", err), balancesTable)
	}
	return nil
}

// GetBalancesBySite returns balances for one site.
func (r *StockRepo) GetBalancesBySite(ctx context.Context, siteID id.ID, filter stock.BalanceFilter) ([]entity.SiteItemBalance, error) {
	q := r.builder.Select(balanceColumns...).
		From(balancesTable).
		Where(squirrel.Eq{"site_id": siteID})

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"closing_stock": int64(0)})
	}
	if len(filter.ItemIDs) > 0 {
		q = q.Where(squirrel.Eq{"item_id": filter.ItemIDs})
	}

	q = q.OrderBy("item_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.SiteItemBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

// GetBalancesByItem returns non-zero balances across all sites for an item.
func (r *StockRepo) GetBalancesByItem(ctx context.Context, itemID id.ID) ([]entity.SiteItemBalance, error) {
	q := r.builder.Select(balanceColumns...).
		From(balancesTable).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.NotEq{"closing_stock": int64(0)}).
		OrderBy("site_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.SiteItemBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

var batchColumns = []string{
	"site_id", "item_id", "batch_number", "expiry_date",
	"closing_qty", "unit_rate", "closing_value", "updated_at",
}

// GetBatchForUpdate returns the batch balance with a row lock.
func (r *StockRepo) GetBatchForUpdate(ctx context.Context, siteID, itemID id.ID, batchNumber string) (entity.SiteItemBatchBalance, bool, error) {
	sql := `
		SELECT site_id, item_id, batch_number, expiry_date,
		       closing_qty, unit_rate, closing_value, updated_at
		FROM reg_site_item_batches
		WHERE site_id = $1 AND item_id = $2 AND batch_number = $3
		FOR UPDATE
	`

	var batch entity.SiteItemBatchBalance
	err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &batch, sql, siteID, itemID, batchNumber)
	if err != nil {
		if pgxscan.NotFound(err) {
			return entity.SiteItemBatchBalance{}, false, nil
		}
		return entity.SiteItemBatchBalance{}, false, fmt.Errorf("get batch for update: %w", err)
	}
	return batch, true, nil
}

// SaveBatch upserts a batch balance row. The expiry date is written only
// on insert; the register enforces its immutability before calling here.
func (r *StockRepo) SaveBatch(ctx context.Context, batch entity.SiteItemBatchBalance) error {
	sql := `
		INSERT INTO reg_site_item_batches
			(site_id, item_id, batch_number, expiry_date, closing_qty, unit_rate, closing_value, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (site_id, item_id, batch_number) DO UPDATE SET
			closing_qty   = EXCLUDED.closing_qty,
			unit_rate     = EXCLUDED.unit_rate,
			closing_value = EXCLUDED.closing_value,
			updated_at    = NOW()
	`

	_, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		batch.SiteID, batch.ItemID, batch.BatchNumber, batch.ExpiryDate,
		batch.ClosingQty, batch.UnitRate, batch.ClosingValue,
	)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("save batch: %w", err), batchesTable)
	}
	return nil
}

// GetBatches returns all batch balances for site+item.
func (r *StockRepo) GetBatches(ctx context.Context, siteID, itemID id.ID) ([]entity.SiteItemBatchBalance, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"site_id": siteID, "item_id": itemID}).
		OrderBy("expiry_date", "batch_number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []entity.SiteItemBatchBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return batches, nil
}

// GetTurnover calculates receipt/issue totals and the opening balance for
// a period from the ledger.
func (r *StockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	var result stock.Turnover

	args := []any{filter.FromDate, filter.ToDate}
	conditions := "entry_date >= $1 AND entry_date < $2"
	argIndex := 3

	if filter.SiteID != nil {
		conditions += fmt.Sprintf(" AND site_id = $%d", argIndex)
		args = append(args, *filter.SiteID)
		result.SiteID = *filter.SiteID
		argIndex++
	}
	if filter.ItemID != nil {
		conditions += fmt.Sprintf(" AND item_id = $%d", argIndex)
		args = append(args, *filter.ItemID)
		result.ItemID = *filter.ItemID
	}

	sql := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN entry_type = 'receipt' THEN quantity ELSE 0 END), 0) AS received,
			COALESCE(SUM(CASE WHEN entry_type = 'issue' THEN quantity ELSE 0 END), 0) AS issued
		FROM reg_stock_entries
		WHERE %s
	`, conditions)

	querier := r.txm.GetQuerier(ctx)
	var receivedScaled, issuedScaled int64
	err := querier.QueryRow(ctx, sql, args...).Scan(&receivedScaled, &issuedScaled)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}
	result.Received = types.NewQuantityFromInt64Scaled(receivedScaled)
	result.Issued = types.NewQuantityFromInt64Scaled(issuedScaled)

	openingArgs := []any{filter.FromDate}
	openingConditions := "entry_date < $1"
	argIndex = 2

	if filter.SiteID != nil {
		openingConditions += fmt.Sprintf(" AND site_id = $%d", argIndex)
		openingArgs = append(openingArgs, *filter.SiteID)
		argIndex++
	}
	if filter.ItemID != nil {
		openingConditions += fmt.Sprintf(" AND item_id = $%d", argIndex)
		openingArgs = append(openingArgs, *filter.ItemID)
	}

	openingSQL := fmt.Sprintf(`
		SELECT COALESCE(
			SUM(CASE WHEN entry_type = 'receipt' THEN quantity ELSE -quantity END),
			0
		)
		FROM reg_stock_entries
		WHERE %s
	`, openingConditions)

	var openingScaled int64
	err = querier.QueryRow(ctx, openingSQL, openingArgs...).Scan(&openingScaled)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return result, fmt.Errorf("calculate opening balance: %w", err)
	}
	result.OpeningBalance = types.NewQuantityFromInt64Scaled(openingScaled)

	result.ClosingBalance = result.OpeningBalance + result.Received - result.Issued
	return result, nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
