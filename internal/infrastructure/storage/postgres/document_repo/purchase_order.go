package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
	"sitestock/internal/domain/documents/purchaseorder"
	"sitestock/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderLinesTable = "doc_purchase_order_lines"
	indentItemsTable        = "doc_indent_items"
)

// PurchaseOrderRepo implements purchaseorder.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchaseorder.PurchaseOrder]
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			purchaseOrdersTable,
			postgres.ExtractDBColumns[purchaseorder.PurchaseOrder](),
			func() *purchaseorder.PurchaseOrder { return &purchaseorder.PurchaseOrder{} },
		),
	}
}

func (r *PurchaseOrderRepo) GetLines(ctx context.Context, docID id.ID) ([]purchaseorder.PurchaseOrderLine, error) {
	sql, args, err := r.Builder().
		Select(
			"line_id", "serial_no", "item_id", "quantity", "rate",
			"discount_percent", "discount_amount", "tax_percent", "tax_amount",
			"amount", "indent_item_id",
		).
		From(purchaseOrderLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("serial_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchaseorder.PurchaseOrderLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

func (r *PurchaseOrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []purchaseorder.PurchaseOrderLine) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + purchaseOrderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(purchaseOrderLinesTable).
		Columns(
			"line_id", "document_id", "serial_no", "item_id", "quantity", "rate",
			"discount_percent", "discount_amount", "tax_percent", "tax_amount",
			"amount", "indent_item_id",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.SerialNo, line.ItemID, line.Quantity, line.Rate,
			line.DiscountPercent, line.DiscountAmount, line.TaxPercent, line.TaxAmount,
			line.Amount, line.IndentItemID,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchaseorder.ListFilter) (domain.ListResult[*purchaseorder.PurchaseOrder], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.SiteID != nil {
		q = q.Where(squirrel.Eq{"site_id": *filter.SiteID})
	}
	if filter.ApprovalStatus != nil {
		q = q.Where(squirrel.Eq{"approval_status": *filter.ApprovalStatus})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"supplier_name": pattern},
		})
	}

	return r.ListWith(ctx, q, filter.ListFilter)
}

var _ purchaseorder.Repository = (*PurchaseOrderRepo)(nil)

// IndentRepo implements purchaseorder.IndentRepository over the
// requisition lines table.
type IndentRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewIndentRepo creates a new indent item repository.
func NewIndentRepo(txm *postgres.TxManager) *IndentRepo {
	return &IndentRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *IndentRepo) GetItems(ctx context.Context, indentID id.ID) ([]purchaseorder.IndentItem, error) {
	sql, args, err := r.builder.
		Select("id", "indent_id", "item_id", "quantity", "purchase_order_line_id").
		From(indentItemsTable).
		Where(squirrel.Eq{"indent_id": indentID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []purchaseorder.IndentItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get indent items: %w", err)
	}
	return items, nil
}

// LinkToOrderLine back-references the order line from the requisition
// line. The indent_id condition keeps foreign references from matching;
// zero rows affected means a stale or foreign reference.
func (r *IndentRepo) LinkToOrderLine(ctx context.Context, indentID, indentItemID, orderLineID id.ID) (bool, error) {
	sql := `
		UPDATE doc_indent_items
		SET purchase_order_line_id = $1
		WHERE id = $2 AND indent_id = $3
	`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, orderLineID, indentItemID, indentID)
	if err != nil {
		return false, fmt.Errorf("link indent item: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

var _ purchaseorder.IndentRepository = (*IndentRepo)(nil)
