package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
	"sitestock/internal/domain/documents/challan"
	"sitestock/internal/infrastructure/storage/postgres"
)

const (
	challansTable          = "doc_challans"
	challanLinesTable      = "doc_challan_lines"
	challanLineBatchsTable = "doc_challan_line_batches"
)

// ChallanRepo implements challan.Repository.
type ChallanRepo struct {
	*BaseDocumentRepo[*challan.OutwardChallan]
}

// NewChallanRepo creates a new outward challan repository.
func NewChallanRepo(txm *postgres.TxManager) *ChallanRepo {
	return &ChallanRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			challansTable,
			postgres.ExtractDBColumns[challan.OutwardChallan](),
			func() *challan.OutwardChallan { return &challan.OutwardChallan{} },
		),
	}
}

func (r *ChallanRepo) GetLines(ctx context.Context, docID id.ID) ([]challan.ChallanLine, error) {
	sql, args, err := r.Builder().
		Select(
			"line_id", "line_no", "item_id",
			"challan_qty", "approved_qty", "received_qty", "quantity",
			"expiry_tracked",
		).
		From(challanLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []challan.ChallanLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

func (r *ChallanRepo) SaveLines(ctx context.Context, docID id.ID, lines []challan.ChallanLine) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + challanLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(challanLinesTable).
		Columns(
			"line_id", "document_id", "line_no", "item_id",
			"challan_qty", "approved_qty", "received_qty", "quantity",
			"expiry_tracked",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ItemID,
			line.ChallanQty, line.ApprovedQty, line.ReceivedQty, line.Quantity,
			line.ExpiryTracked,
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

func (r *ChallanRepo) GetLineBatches(ctx context.Context, docID id.ID) ([]challan.ChallanLineBatch, error) {
	sql := `
		SELECT b.batch_id, b.line_id, b.batch_number, b.expiry_date, b.quantity
		FROM doc_challan_line_batches b
		JOIN doc_challan_lines l ON l.line_id = b.line_id
		WHERE l.document_id = $1
		ORDER BY l.line_no, b.batch_number
	`

	var batches []challan.ChallanLineBatch
	if err := pgxscan.Select(ctx, r.Querier(ctx), &batches, sql, docID); err != nil {
		return nil, fmt.Errorf("get line batches: %w", err)
	}
	return batches, nil
}

func (r *ChallanRepo) SaveLineBatches(ctx context.Context, docID id.ID, batches []challan.ChallanLineBatch) error {
	querier := r.Querier(ctx)

	deleteSQL := `
		DELETE FROM doc_challan_line_batches
		WHERE line_id IN (SELECT line_id FROM doc_challan_lines WHERE document_id = $1)
	`
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing line batches: %w", err)
	}

	if len(batches) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(challanLineBatchsTable).
		Columns("batch_id", "line_id", "batch_number", "expiry_date", "quantity")

	for _, b := range batches {
		q = q.Values(b.BatchID, b.LineID, b.BatchNumber, b.ExpiryDate, b.Quantity)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert line batches: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert line batches: %w", err)
	}
	return nil
}

func (r *ChallanRepo) List(ctx context.Context, filter challan.ListFilter) (domain.ListResult[*challan.OutwardChallan], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.FromSiteID != nil {
		q = q.Where(squirrel.Eq{"from_site_id": *filter.FromSiteID})
	}
	if filter.ToSiteID != nil {
		q = q.Where(squirrel.Eq{"to_site_id": *filter.ToSiteID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
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
			squirrel.ILike{"vehicle_number": pattern},
		})
	}

	return r.ListWith(ctx, q, filter.ListFilter)
}

var _ challan.Repository = (*ChallanRepo)(nil)
