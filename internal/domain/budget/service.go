package budget

import (
	"context"
	"fmt"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/tx"
	"sitestock/internal/core/types"
	"sitestock/internal/domain"
	"sitestock/pkg/logger"
)

// LinePatch is a partial update of a budget line. Nil fields keep their
// stored values. Ordered quantity and value are accumulated by the
// ordering side and cannot be patched here.
type LinePatch struct {
	ItemID     *id.ID          `json:"itemId,omitempty"`
	BudgetQty  *types.Quantity `json:"budgetQty,omitempty"`
	BudgetRate *types.Money    `json:"budgetRate,omitempty"`
	AvgRate    *types.Money    `json:"avgRate,omitempty"`
}

// Service provides business operations for site budgets.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new budget service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create persists a budget with its lines. Derived values are recomputed
// server-side, whatever the caller sent.
func (s *Service) Create(ctx context.Context, b *SiteBudget) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}

	for i := range b.Lines {
		if id.IsNil(b.Lines[i].LineID) {
			b.Lines[i].LineID = id.New()
		}
		b.Lines[i].BudgetID = b.ID
		b.Lines[i].Recalculate()
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create budget: %w", err)
		}
		if err := s.repo.SaveLines(ctx, b.ID, b.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "budget created", "id", b.ID, "name", b.Name, "lines", len(b.Lines))
	return nil
}

// GetByID retrieves a budget with lines.
func (s *Service) GetByID(ctx context.Context, budgetID id.ID) (*SiteBudget, error) {
	b, err := s.repo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	b.Lines = lines
	return b, nil
}

// List returns budgets matching the filter, headers only.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SiteBudget], error) {
	return s.repo.List(ctx, filter)
}

// UpdateLine merges the patch onto the stored line, recomputes the derived
// values from the post-merge operands and persists the result. Retargeting
// the line at an item the budget already covers for the same site is
// rejected before anything is written.
func (s *Service) UpdateLine(ctx context.Context, lineID id.ID, patch LinePatch) (SiteBudgetLine, error) {
	var line SiteBudgetLine
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		line, err = s.repo.GetLineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}

		if patch.ItemID != nil && *patch.ItemID != line.ItemID {
			if id.IsNil(*patch.ItemID) {
				return apperror.NewValidation("line item is required").
					WithDetail("line_id", lineID)
			}
			taken, err := s.repo.HasLineForItem(ctx, line.BudgetID, line.SiteID, *patch.ItemID, lineID)
			if err != nil {
				return fmt.Errorf("check duplicate item: %w", err)
			}
			if taken {
				return apperror.NewBusinessRule(apperror.CodeDuplicateBudgetItem,
					"item already budgeted for this site").
					WithDetail("site_id", line.SiteID).
					WithDetail("item_id", *patch.ItemID)
			}
			line.ItemID = *patch.ItemID
		}

		if patch.BudgetQty != nil {
			if patch.BudgetQty.IsNegative() {
				return apperror.NewValidation("budget quantity cannot be negative").
					WithDetail("line_id", lineID)
			}
			line.BudgetQty = *patch.BudgetQty
		}
		if patch.BudgetRate != nil {
			if patch.BudgetRate.IsNegative() {
				return apperror.NewValidation("budget rate cannot be negative").
					WithDetail("line_id", lineID)
			}
			line.BudgetRate = *patch.BudgetRate
		}
		if patch.AvgRate != nil {
			line.AvgRate = *patch.AvgRate
		}

		line.Recalculate()
		return s.repo.UpdateLine(ctx, line)
	})
	if err != nil {
		return SiteBudgetLine{}, err
	}

	logger.Debug(ctx, "budget line updated", "line_id", lineID,
		"budget_value", line.BudgetValue, "ordered_value", line.OrderedValue)
	return line, nil
}

// Delete soft-deletes a budget.
func (s *Service) Delete(ctx context.Context, budgetID id.ID) error {
	if _, err := s.repo.GetByID(ctx, budgetID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, budgetID)
}
