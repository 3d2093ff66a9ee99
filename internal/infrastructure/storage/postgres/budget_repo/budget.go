// Package budget_repo provides the PostgreSQL implementation of the site
// budget repository.
package budget_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/domain"
	"sitestock/internal/domain/budget"
	"sitestock/internal/infrastructure/storage/postgres"
	"sitestock/internal/infrastructure/storage/postgres/document_repo"
)

const (
	budgetsTable     = "budget_site_budgets"
	budgetLinesTable = "budget_site_budget_lines"
)

var budgetLineColumns = []string{
	"line_id", "budget_id", "site_id", "item_id",
	"budget_qty", "budget_rate", "budget_value",
	"ordered_qty", "avg_rate", "ordered_value",
}

// BudgetRepo implements budget.Repository. Budgets reuse the document
// header machinery: same audit columns, soft delete and optimistic lock.
type BudgetRepo struct {
	*document_repo.BaseDocumentRepo[*budget.SiteBudget]
	txm *postgres.TxManager
}

// NewBudgetRepo creates a new site budget repository.
func NewBudgetRepo(txm *postgres.TxManager) *BudgetRepo {
	return &BudgetRepo{
		BaseDocumentRepo: document_repo.NewBaseDocumentRepo(
			txm,
			budgetsTable,
			postgres.ExtractDBColumns[budget.SiteBudget](),
			func() *budget.SiteBudget { return &budget.SiteBudget{} },
		),
		txm: txm,
	}
}

func (r *BudgetRepo) GetLines(ctx context.Context, budgetID id.ID) ([]budget.SiteBudgetLine, error) {
	sql, args, err := r.Builder().
		Select(budgetLineColumns...).
		From(budgetLinesTable).
		Where(squirrel.Eq{"budget_id": budgetID}).
		OrderBy("site_id", "item_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []budget.SiteBudgetLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

func (r *BudgetRepo) SaveLines(ctx context.Context, budgetID id.ID, lines []budget.SiteBudgetLine) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + budgetLinesTable + " WHERE budget_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, budgetID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(budgetLinesTable).
		Columns(budgetLineColumns...)

	for _, line := range lines {
		q = q.Values(
			line.LineID, budgetID, line.SiteID, line.ItemID,
			line.BudgetQty, line.BudgetRate, line.BudgetValue,
			line.OrderedQty, line.AvgRate, line.OrderedValue,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err, budgetLinesTable)
	}
	return nil
}

// GetLineForUpdate loads one budget line with a row lock.
func (r *BudgetRepo) GetLineForUpdate(ctx context.Context, lineID id.ID) (budget.SiteBudgetLine, error) {
	sql := `
		SELECT line_id, budget_id, site_id, item_id,
		       budget_qty, budget_rate, budget_value,
		       ordered_qty, avg_rate, ordered_value
		FROM budget_site_budget_lines
		WHERE line_id = $1
		FOR UPDATE
	`

	var line budget.SiteBudgetLine
	if err := pgxscan.Get(ctx, r.Querier(ctx), &line, sql, lineID); err != nil {
		if pgxscan.NotFound(err) {
			return line, apperror.NewNotFound(budgetLinesTable, lineID.String())
		}
		return line, fmt.Errorf("get line for update: %w", err)
	}
	return line, nil
}

// UpdateLine persists one line.
func (r *BudgetRepo) UpdateLine(ctx context.Context, line budget.SiteBudgetLine) error {
	sql := `
		UPDATE budget_site_budget_lines
		SET item_id = $2, budget_qty = $3, budget_rate = $4, budget_value = $5,
		    ordered_qty = $6, avg_rate = $7, ordered_value = $8
		WHERE line_id = $1
	`

	result, err := r.Querier(ctx).Exec(ctx, sql,
		line.LineID, line.ItemID, line.BudgetQty, line.BudgetRate, line.BudgetValue,
		line.OrderedQty, line.AvgRate, line.OrderedValue,
	)
	if err != nil {
		return postgres.TranslateError(err, budgetLinesTable)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(budgetLinesTable, line.LineID.String())
	}
	return nil
}

// HasLineForItem reports whether the budget already covers (site, item)
// on a line other than excludeLineID.
func (r *BudgetRepo) HasLineForItem(ctx context.Context, budgetID, siteID, itemID, excludeLineID id.ID) (bool, error) {
	sql := `
		SELECT EXISTS(
			SELECT 1 FROM budget_site_budget_lines
			WHERE budget_id = $1 AND site_id = $2 AND item_id = $3 AND line_id <> $4
		)
	`

	var exists bool
	if err := r.Querier(ctx).QueryRow(ctx, sql, budgetID, siteID, itemID, excludeLineID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check line for item: %w", err)
	}
	return exists, nil
}

func (r *BudgetRepo) List(ctx context.Context, filter budget.ListFilter) (domain.ListResult[*budget.SiteBudget], error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[budget.SiteBudget]()...).
		From(budgetsTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.SiteID != nil {
		q = q.Where(squirrel.Expr(
			"id IN (SELECT budget_id FROM budget_site_budget_lines WHERE site_id = ?)",
			*filter.SiteID,
		))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"name": pattern},
		})
	}

	return r.ListWith(ctx, q, filter.ListFilter)
}

var _ budget.Repository = (*BudgetRepo)(nil)
