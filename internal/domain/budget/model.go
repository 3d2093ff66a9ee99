// Package budget provides site budgets: per-site, per-item quantity and
// value targets with derived values kept consistent on every write.
package budget

import (
	"context"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// SiteBudget is a budget declaration covering one or more sites.
type SiteBudget struct {
	entity.Document

	// Name labels the budget (e.g. "FY 25-26 civil works")
	Name string `db:"name" json:"name"`

	// Table part: budgeted items per site
	Lines []SiteBudgetLine `db:"-" json:"lines"`
}

// SiteBudgetLine is one (site, item) budget position.
// BudgetValue and OrderedValue are derived and recomputed on every write;
// OrderedQty and AvgRate are accumulated externally from placed purchase
// orders and are read-only through the line update path.
type SiteBudgetLine struct {
	LineID   id.ID `db:"line_id" json:"lineId"`
	BudgetID id.ID `db:"budget_id" json:"budgetId"`

	SiteID id.ID `db:"site_id" json:"siteId"`
	ItemID id.ID `db:"item_id" json:"itemId"`

	BudgetQty   types.Quantity `db:"budget_qty" json:"budgetQty"`
	BudgetRate  types.Money    `db:"budget_rate" json:"budgetRate"`
	BudgetValue types.Money    `db:"budget_value" json:"budgetValue"`

	OrderedQty   types.Quantity `db:"ordered_qty" json:"orderedQty"`
	AvgRate      types.Money    `db:"avg_rate" json:"avgRate"`
	OrderedValue types.Money    `db:"ordered_value" json:"orderedValue"`
}

// Recalculate recomputes the derived values from the current operands.
func (l *SiteBudgetLine) Recalculate() {
	l.BudgetValue = l.BudgetRate.Mul(l.BudgetQty.Decimal()).Round(4)
	l.OrderedValue = l.AvgRate.Mul(l.OrderedQty.Decimal()).Round(4)
}

// NewSiteBudget creates a budget with no lines.
func NewSiteBudget(name string) *SiteBudget {
	return &SiteBudget{
		Document: entity.NewDocument(),
		Name:     name,
		Lines:    make([]SiteBudgetLine, 0),
	}
}

// AddLine appends a budget position and derives its values.
func (b *SiteBudget) AddLine(siteID, itemID id.ID, qty types.Quantity, rate types.Money) {
	line := SiteBudgetLine{
		LineID:       id.New(),
		BudgetID:     b.ID,
		SiteID:       siteID,
		ItemID:       itemID,
		BudgetQty:    qty,
		BudgetRate:   rate,
		AvgRate:      types.ZeroMoney(),
		OrderedValue: types.ZeroMoney(),
	}
	line.Recalculate()
	b.Lines = append(b.Lines, line)
}

// Validate implements entity.Validatable.
func (b *SiteBudget) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}

	if b.Name == "" {
		return apperror.NewValidation("budget name is required").
			WithDetail("field", "name")
	}

	type key struct{ site, item id.ID }
	seen := make(map[key]bool, len(b.Lines))
	for _, line := range b.Lines {
		if id.IsNil(line.SiteID) {
			return apperror.NewValidation("line site is required")
		}
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("line item is required")
		}
		k := key{line.SiteID, line.ItemID}
		if seen[k] {
			return apperror.NewBusinessRule(apperror.CodeDuplicateBudgetItem,
				"item budgeted twice for the same site").
				WithDetail("site_id", line.SiteID).
				WithDetail("item_id", line.ItemID)
		}
		seen[k] = true

		if line.BudgetQty.IsNegative() {
			return apperror.NewValidation("budget quantity cannot be negative").
				WithDetail("item_id", line.ItemID)
		}
		if line.BudgetRate.IsNegative() {
			return apperror.NewValidation("budget rate cannot be negative").
				WithDetail("item_id", line.ItemID)
		}
	}

	return nil
}
