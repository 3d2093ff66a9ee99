package budget

import (
	"context"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
)

// Repository defines operations for site budgets.
type Repository interface {
	Create(ctx context.Context, b *SiteBudget) error
	GetByID(ctx context.Context, budgetID id.ID) (*SiteBudget, error)
	Update(ctx context.Context, b *SiteBudget) error
	Delete(ctx context.Context, budgetID id.ID) error

	GetLines(ctx context.Context, budgetID id.ID) ([]SiteBudgetLine, error)
	SaveLines(ctx context.Context, budgetID id.ID, lines []SiteBudgetLine) error

	// GetLineForUpdate loads one line with a row lock.
	GetLineForUpdate(ctx context.Context, lineID id.ID) (SiteBudgetLine, error)
	UpdateLine(ctx context.Context, line SiteBudgetLine) error

	// HasLineForItem reports whether the budget already holds a line for
	// (siteID, itemID) other than excludeLineID.
	HasLineForItem(ctx context.Context, budgetID, siteID, itemID, excludeLineID id.ID) (bool, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SiteBudget], error)
}

// ListFilter for filtering site budgets.
type ListFilter struct {
	domain.ListFilter

	SiteID *id.ID
}
