package dto

import (
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/budget"
)

// BudgetLineRequest is one planned (site, item) allocation.
type BudgetLineRequest struct {
	SiteID     id.ID          `json:"siteId" binding:"required"`
	ItemID     id.ID          `json:"itemId" binding:"required"`
	BudgetQty  types.Quantity `json:"budgetQty"`
	BudgetRate types.Money    `json:"budgetRate"`
}

// CreateBudgetRequest for creating site budgets.
type CreateBudgetRequest struct {
	Name    string              `json:"name" binding:"required"`
	Date    *time.Time          `json:"date"`
	Comment string              `json:"comment"`
	Lines   []BudgetLineRequest `json:"lines"`
}

// ToEntity converts the request to a SiteBudget.
func (r CreateBudgetRequest) ToEntity() *budget.SiteBudget {
	b := budget.NewSiteBudget(r.Name)
	b.Comment = r.Comment
	if r.Date != nil {
		b.Date = *r.Date
	}
	for _, l := range r.Lines {
		b.AddLine(l.SiteID, l.ItemID, l.BudgetQty, l.BudgetRate)
	}
	return b
}

// UpdateBudgetLineRequest patches a single budget line.
// Ordered quantities and values are maintained by the purchase flow and
// cannot be set directly.
type UpdateBudgetLineRequest struct {
	ItemID     *id.ID          `json:"itemId"`
	BudgetQty  *types.Quantity `json:"budgetQty"`
	BudgetRate *types.Money    `json:"budgetRate"`
	AvgRate    *types.Money    `json:"avgRate"`
}

// ToPatch converts the request to service input.
func (r UpdateBudgetLineRequest) ToPatch() budget.LinePatch {
	return budget.LinePatch{
		ItemID:     r.ItemID,
		BudgetQty:  r.BudgetQty,
		BudgetRate: r.BudgetRate,
		AvgRate:    r.AvgRate,
	}
}
